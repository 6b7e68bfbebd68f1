package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/modules/user"
)

// DefaultAdminCheckTimeout bounds a single role lookup.
const DefaultAdminCheckTimeout = 5 * time.Second

// Decision is the outcome of an admin authorization check.
type Decision int

const (
	Unauthorized Decision = iota
	Authorized
	// TimedOut means the role lookup did not answer in time; the caller may retry.
	TimedOut
)

func (d Decision) String() string {
	switch d {
	case Authorized:
		return "authorized"
	case TimedOut:
		return "timed_out"
	default:
		return "unauthorized"
	}
}

// RoleLookup resolves a user's role.
type RoleLookup interface {
	GetRole(ctx context.Context, userID string) (user.Role, error)
}

// AdminChecker decides whether a user holds the admin role.
type AdminChecker struct {
	roles   RoleLookup
	timeout time.Duration
	logger  *zap.Logger
}

func NewAdminChecker(roles RoleLookup, timeout time.Duration, logger *zap.Logger) *AdminChecker {
	if timeout <= 0 {
		timeout = DefaultAdminCheckTimeout
	}
	return &AdminChecker{roles: roles, timeout: timeout, logger: logger}
}

// RetryAfter is the wait suggested to clients after a TimedOut decision.
func (c *AdminChecker) RetryAfter() time.Duration { return c.timeout }

// Check looks up the role of userID within the checker's timeout. A failed
// lookup resolves to Unauthorized; an unanswered one to TimedOut.
func (c *AdminChecker) Check(ctx context.Context, userID uuid.UUID) Decision {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		role user.Role
		err  error
	}
	done := make(chan result, 1)
	go func() {
		role, err := c.roles.GetRole(ctx, userID.String())
		done <- result{role: role, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) {
				return TimedOut
			}
			c.logger.Warn("admin role lookup failed", zap.String("user_id", userID.String()), zap.Error(res.err))
			return Unauthorized
		}
		if res.role == user.RoleAdmin {
			return Authorized
		}
		return Unauthorized
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Warn("admin role lookup timed out", zap.String("user_id", userID.String()), zap.Duration("timeout", c.timeout))
			return TimedOut
		}
		return Unauthorized
	}
}

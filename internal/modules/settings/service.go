package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/modules/cart"
)

const cacheTTL = time.Minute

type Service interface {
	// Get merges the stored sections over Defaults. Malformed rows are logged and skipped.
	Get(ctx context.Context) (*SiteSettings, error)
	// Update validates and replaces one section.
	Update(ctx context.Context, key string, value json.RawMessage) (*SiteSettings, error)
	// Seed stores sections that have no row yet. Unknown keys are rejected.
	Seed(ctx context.Context, seed map[string]map[string]interface{}) error
	// ShippingPolicy reads the free-shipping threshold from the store section,
	// falling back to fallback when none is stored or the lookup fails.
	ShippingPolicy(fallback cart.ShippingPolicy) cart.PolicySource
}

type service struct {
	repo   Repository
	logger *zap.Logger

	mu       sync.Mutex
	cached   map[string]json.RawMessage
	cachedAt time.Time
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{repo: repo, logger: logger}
}

func (s *service) rows(ctx context.Context) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil && time.Since(s.cachedAt) < cacheTTL {
		return s.cached, nil
	}
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	s.cached, s.cachedAt = rows, time.Now()
	return rows, nil
}

func (s *service) invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func (s *service) Get(ctx context.Context) (*SiteSettings, error) {
	rows, err := s.rows(ctx)
	if err != nil {
		return nil, err
	}
	out := Defaults()
	for _, key := range Keys {
		raw, ok := rows[key]
		if !ok {
			continue
		}
		dst, _ := out.section(key)
		if err := json.Unmarshal(raw, dst); err != nil {
			s.logger.Warn("ignoring malformed settings row", zap.String("key", key), zap.Error(err))
		}
	}
	return &out, nil
}

// decode parses value strictly into a fresh copy of the section under key.
func decode(key string, value json.RawMessage) (interface{}, error) {
	defaults := Defaults()
	dst, err := defaults.section(key)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	var verr error
	switch v := dst.(type) {
	case *Contact:
		verr = v.validate()
	case *Social:
		verr = v.validate()
	case *Store:
		verr = v.validate()
	}
	return dst, verr
}

func (s *service) Update(ctx context.Context, key string, value json.RawMessage) (*SiteSettings, error) {
	section, err := decode(key, value)
	if err != nil {
		return nil, err
	}
	normalized, err := json.Marshal(section)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, key, normalized); err != nil {
		return nil, fmt.Errorf("save settings %s: %w", key, err)
	}
	s.invalidate()
	return s.Get(ctx)
}

func (s *service) Seed(ctx context.Context, seed map[string]map[string]interface{}) error {
	var probe SiteSettings
	for key := range seed {
		if _, err := probe.section(key); err != nil {
			return err
		}
	}
	for _, key := range Keys {
		values, ok := seed[key]
		if !ok {
			continue
		}
		raw, err := json.Marshal(values)
		if err != nil {
			return fmt.Errorf("encode seed %s: %w", key, err)
		}
		section, err := decode(key, raw)
		if err != nil {
			return fmt.Errorf("seed %s: %w", key, err)
		}
		normalized, _ := json.Marshal(section)
		if err := s.repo.InsertMissing(ctx, key, normalized); err != nil {
			return fmt.Errorf("seed %s: %w", key, err)
		}
	}
	s.invalidate()
	return nil
}

func (s *service) ShippingPolicy(fallback cart.ShippingPolicy) cart.PolicySource {
	return func(ctx context.Context) cart.ShippingPolicy {
		rows, err := s.rows(ctx)
		if err != nil {
			s.logger.Warn("using configured shipping policy", zap.Error(err))
			return fallback
		}
		raw, ok := rows[KeyStore]
		if !ok {
			return fallback
		}
		var store struct {
			FreeShippingThreshold *json.RawMessage `json:"free_shipping_threshold"`
		}
		if err := json.Unmarshal(raw, &store); err != nil || store.FreeShippingThreshold == nil {
			return fallback
		}
		var st Store
		if err := json.Unmarshal(raw, &st); err != nil || st.FreeShippingThreshold < 0 {
			return fallback
		}
		policy := fallback
		policy.FreeThreshold = st.FreeShippingThreshold
		return policy
	}
}

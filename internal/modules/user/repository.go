package user

import "context"

// Repository defines data access for users and their roles.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id, firstName, lastName string) error

	// GetRole returns RoleCustomer when the user has no role row.
	GetRole(ctx context.Context, userID string) (Role, error)
	SetRole(ctx context.Context, userID string, role Role) error
}

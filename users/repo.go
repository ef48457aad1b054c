package users

import "context"

// UserRepo persists users. Lookups that find nothing return errors.ErrUserNotFound.
type UserRepo interface {
	// Upsert inserts the user or updates the existing row with the same email.
	// user.ID is set to the stored ID.
	Upsert(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Delete(ctx context.Context, id string) error
}

package users

import (
	"context"
	"time"
)

// Repo persists users. Lookups by username and email are global because both
// are unique across companies; everything else is company scoped.
type Repo interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, companyID, id string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, companyID string) ([]User, error)
	Update(ctx context.Context, u User) error
	SoftDelete(ctx context.Context, companyID, id string) error
	TouchLogin(ctx context.Context, id, googleSub string, at time.Time) error
	CountAdmins(ctx context.Context, companyID string) (int, error)
}

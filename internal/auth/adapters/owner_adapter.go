package adapters

import (
	"context"

	authmodels "leadbook/internal/auth/models"
	buyermodels "leadbook/internal/buyer/models"
)

type userFinder interface {
	FindByID(ctx context.Context, id string) (*authmodels.User, error)
}

// OwnerDirectory exposes users as buyer owners for the detail view.
type OwnerDirectory struct {
	users userFinder
}

func NewOwnerDirectory(users userFinder) *OwnerDirectory {
	return &OwnerDirectory{users: users}
}

func (d *OwnerDirectory) FindOwner(ctx context.Context, userID string) (*buyermodels.Owner, error) {
	u, err := d.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &buyermodels.Owner{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}

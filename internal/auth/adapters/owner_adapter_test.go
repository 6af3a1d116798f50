package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmodels "leadbook/internal/auth/models"
	"leadbook/internal/auth/store/user"
	"leadbook/pkg/platform/sentinel"
)

func TestOwnerDirectory(t *testing.T) {
	ctx := context.Background()
	users := user.New()
	require.NoError(t, users.Create(ctx, &authmodels.User{ID: "u-1", Email: "a@example.com", Name: "Asha"}))

	dir := NewOwnerDirectory(users)
	owner, err := dir.FindOwner(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", owner.Name)
	assert.Equal(t, "a@example.com", owner.Email)

	_, err = dir.FindOwner(ctx, "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

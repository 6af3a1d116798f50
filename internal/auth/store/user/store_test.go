package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"leadbook/internal/auth/models"
	"leadbook/internal/platform/database"
	"leadbook/pkg/platform/sentinel"
)

type userStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// UserStoreSuite runs the same lookup and uniqueness checks against every
// user store implementation.
type UserStoreSuite struct {
	suite.Suite
	newStore func(t *testing.T) userStore
	store    userStore
}

func (s *UserStoreSuite) SetupTest() {
	s.store = s.newStore(s.T())
}

func TestInMemoryUserStore(t *testing.T) {
	suite.Run(t, &UserStoreSuite{newStore: func(*testing.T) userStore { return New() }})
}

func TestGormUserStore(t *testing.T) {
	suite.Run(t, &UserStoreSuite{newStore: func(t *testing.T) userStore {
		db, err := database.OpenSQLiteMemory()
		require.NoError(t, err)
		t.Cleanup(func() { _ = database.Close(db) })
		require.NoError(t, AutoMigrate(db))
		return NewGorm(db)
	}})
}

func (s *UserStoreSuite) newUser(email string) *models.User {
	return &models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      "Jane Doe",
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *UserStoreSuite) TestLookup() {
	ctx := context.Background()
	u := s.newUser("jane@example.com")
	s.Require().NoError(s.store.Create(ctx, u))

	byID, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u, byID)

	byEmail, err := s.store.FindByEmail(ctx, "JANE@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, byEmail.ID)

	_, err = s.store.FindByID(ctx, uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByEmail(ctx, "nobody@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *UserStoreSuite) TestEmailIsUnique() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newUser("dup@example.com")))
	err := s.store.Create(ctx, s.newUser("Dup@example.com"))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

// Package service implements the demo credentials sign-in: a user is found or
// created by email and receives a signed session token.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"leadbook/internal/auth/models"
	dErrors "leadbook/pkg/domain-errors"
	"leadbook/pkg/platform/sentinel"
	"leadbook/pkg/requestcontext"
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type TokenIssuer interface {
	GenerateSessionToken(userID, email string, expiresIn time.Duration) (string, time.Time, error)
}

type Service struct {
	users  UserStore
	tokens TokenIssuer
	ttl    time.Duration
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(users UserStore, tokens TokenIssuer, ttl time.Duration, opts ...Option) (*Service, error) {
	if users == nil || tokens == nil {
		return nil, errors.New("user store and token issuer are required")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	s := &Service{users: users, tokens: tokens, ttl: ttl, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SignIn upserts the user by email and issues a session. An existing user keeps
// their stored name.
func (s *Service) SignIn(ctx context.Context, req *models.SignInRequest) (*models.Session, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.upsert(ctx, req)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.GenerateSessionToken(user.ID, user.Email, s.ttl)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session token")
	}

	s.logger.InfoContext(ctx, "user signed in",
		"user_id", user.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return &models.Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// CurrentUser returns the signed-in user.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Unauthorized")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "Unauthorized")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

func (s *Service) upsert(ctx context.Context, req *models.SignInRequest) (*models.User, error) {
	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	name := req.Name
	if name == "" {
		name = models.DefaultName
	}
	user := &models.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Name:      name,
		CreatedAt: requestcontext.Now(ctx).UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent sign-in for the same email.
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			if existing, ferr := s.users.FindByEmail(ctx, req.Email); ferr == nil {
				return existing, nil
			}
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	s.logger.InfoContext(ctx, "user created", "user_id", user.ID)
	return user, nil
}

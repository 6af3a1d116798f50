package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"leadbook/internal/auth/models"
	"leadbook/pkg/platform/sentinel"
	"leadbook/pkg/platform/tx"
)

type userRow struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Email     string `gorm:"uniqueIndex;size:255;not null"`
	Name      string `gorm:"size:100;not null"`
	CreatedAt time.Time
}

func (userRow) TableName() string { return "users" }

// GormUserStore persists users in the users table.
type GormUserStore struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

// AutoMigrate creates or updates the users table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&userRow{})
}

func (s *GormUserStore) Create(ctx context.Context, u *models.User) error {
	row := userRow{
		ID:        u.ID,
		Email:     strings.ToLower(u.Email),
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
	if err := tx.Conn(ctx, s.db).Create(&row).Error; err != nil {
		return wrapErr(err, "create user")
	}
	return nil
}

func (s *GormUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	var row userRow
	if err := tx.Conn(ctx, s.db).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, wrapErr(err, "find user")
	}
	return row.toModel(), nil
}

func (s *GormUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var row userRow
	if err := tx.Conn(ctx, s.db).Where("email = ?", strings.ToLower(email)).Take(&row).Error; err != nil {
		return nil, wrapErr(err, "find user by email")
	}
	return row.toModel(), nil
}

func (r userRow) toModel() *models.User {
	return &models.User{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func wrapErr(err error, op string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return sentinel.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, sentinel.ErrAlreadyUsed)
	}
	return fmt.Errorf("%s: %w", op, err)
}

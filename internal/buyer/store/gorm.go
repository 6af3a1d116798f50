package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"leadbook/internal/buyer/filter"
	"leadbook/internal/buyer/models"
	"leadbook/pkg/platform/sentinel"
	"leadbook/pkg/platform/tx"
)

// Gorm persists buyers and history through gorm. It works against PostgreSQL
// in production and SQLite in tests.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// AutoMigrate creates or updates the buyers and buyer_history tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&buyerRow{}, &historyRow{})
}

func (s *Gorm) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := tx.From(ctx); ok {
		return fn(ctx)
	}
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(tx.WithTx(ctx, gtx))
	})
}

func (s *Gorm) Create(ctx context.Context, b *models.Buyer) error {
	row := toBuyerRow(b)
	if err := tx.Conn(ctx, s.db).Create(&row).Error; err != nil {
		return wrapErr(err, "create buyer")
	}
	return nil
}

func (s *Gorm) FindByID(ctx context.Context, id string) (*models.Buyer, error) {
	var row buyerRow
	if err := tx.Conn(ctx, s.db).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, wrapErr(err, "find buyer")
	}
	return row.toModel(), nil
}

// Update writes b only if the stored updated_at still equals expected.
func (s *Gorm) Update(ctx context.Context, b *models.Buyer, expected time.Time) error {
	db := tx.Conn(ctx, s.db)
	row := toBuyerRow(b)
	res := db.Model(&row).
		Where("updated_at = ?", expected.UTC()).
		Select("*").
		Omit("id", "owner_id", "created_at").
		Updates(&row)
	if res.Error != nil {
		return wrapErr(res.Error, "update buyer")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := db.Model(&buyerRow{}).Where("id = ?", b.ID).Count(&n).Error; err != nil {
		return wrapErr(err, "update buyer")
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func (s *Gorm) Delete(ctx context.Context, id string) error {
	res := tx.Conn(ctx, s.db).Where("id = ?", id).Delete(&buyerRow{})
	if res.Error != nil {
		return wrapErr(res.Error, "delete buyer")
	}
	if res.RowsAffected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Gorm) List(ctx context.Context, q filter.Query) ([]*models.Buyer, error) {
	direction := "DESC"
	if q.Order == filter.OrderAsc {
		direction = "ASC"
	}
	db := applyQuery(tx.Conn(ctx, s.db).Model(&buyerRow{}), q).
		Order("updated_at " + direction).
		Order("id " + direction)
	if q.Paged() {
		db = db.Limit(q.Limit).Offset(q.Offset)
	}

	var rows []buyerRow
	if err := db.Find(&rows).Error; err != nil {
		return nil, wrapErr(err, "list buyers")
	}
	out := make([]*models.Buyer, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

func (s *Gorm) Count(ctx context.Context, q filter.Query) (int, error) {
	var n int64
	if err := applyQuery(tx.Conn(ctx, s.db).Model(&buyerRow{}), q).Count(&n).Error; err != nil {
		return 0, wrapErr(err, "count buyers")
	}
	return int(n), nil
}

func (s *Gorm) Append(ctx context.Context, e *models.HistoryEntry) error {
	row := toHistoryRow(e)
	if err := tx.Conn(ctx, s.db).Create(&row).Error; err != nil {
		return wrapErr(err, "append history")
	}
	return nil
}

// ListByBuyer returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Gorm) ListByBuyer(ctx context.Context, buyerID string, limit int) ([]*models.HistoryEntry, error) {
	db := tx.Conn(ctx, s.db).Where("buyer_id = ?", buyerID).Order("changed_at DESC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	var rows []historyRow
	if err := db.Find(&rows).Error; err != nil {
		return nil, wrapErr(err, "list history")
	}
	out := make([]*models.HistoryEntry, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

func (s *Gorm) DeleteByBuyer(ctx context.Context, buyerID string) error {
	if err := tx.Conn(ctx, s.db).Where("buyer_id = ?", buyerID).Delete(&historyRow{}).Error; err != nil {
		return wrapErr(err, "delete history")
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func applyQuery(db *gorm.DB, q filter.Query) *gorm.DB {
	if q.Search != "" {
		like := "%" + likeEscaper.Replace(q.Search) + "%"
		db = db.Where(
			`(name_folded LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\' OR email_folded LIKE ? ESCAPE '\')`,
			like, like, like,
		)
	}
	if q.City != "" {
		db = db.Where("city = ?", string(q.City))
	}
	if q.PropertyType != "" {
		db = db.Where("property_type = ?", string(q.PropertyType))
	}
	if q.Status != "" {
		db = db.Where("status = ?", string(q.Status))
	}
	if q.Timeline != "" {
		db = db.Where("timeline = ?", string(q.Timeline))
	}
	return db
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

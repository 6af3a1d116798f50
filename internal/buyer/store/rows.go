package store

import (
	"slices"
	"time"

	"leadbook/internal/buyer/filter"
	"leadbook/internal/buyer/models"
)

type buyerRow struct {
	ID           string    `gorm:"primaryKey;size:36"`
	FullName     string    `gorm:"size:80;not null"`
	NameFolded   string    `gorm:"size:320;not null;default:''"`
	Email        string    `gorm:"size:255;not null;default:''"`
	EmailFolded  string    `gorm:"size:1020;not null;default:''"`
	Phone        string    `gorm:"size:15;not null;index"`
	City         string    `gorm:"size:16;not null;index"`
	PropertyType string    `gorm:"size:16;not null;index"`
	BHK          *string   `gorm:"size:8"`
	Purpose      string    `gorm:"size:8;not null"`
	BudgetMin    *int64    `gorm:"default:null"`
	BudgetMax    *int64    `gorm:"default:null"`
	Timeline     string    `gorm:"size:24;not null;index"`
	Source       string    `gorm:"size:16;not null"`
	Notes        string    `gorm:"size:1000;not null;default:''"`
	Tags         []string  `gorm:"serializer:json;type:text"`
	Status       string    `gorm:"size:16;not null;index"`
	OwnerID      string    `gorm:"size:36;not null;index"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"not null;index;autoUpdateTime:false"`
}

func (buyerRow) TableName() string { return "buyers" }

type historyRow struct {
	ID        string      `gorm:"primaryKey;size:36"`
	BuyerID   string      `gorm:"size:36;not null;index"`
	ChangedBy string      `gorm:"size:36;not null"`
	ChangedAt time.Time   `gorm:"not null;index"`
	Action    string      `gorm:"size:16;not null"`
	Changes   models.Diff `gorm:"serializer:json;type:text"`
}

func (historyRow) TableName() string { return "buyer_history" }

func toBuyerRow(b *models.Buyer) buyerRow {
	row := buyerRow{
		ID:           b.ID,
		FullName:     b.FullName,
		NameFolded:   filter.Fold(b.FullName),
		Email:        b.Email,
		EmailFolded:  filter.Fold(b.Email),
		Phone:        b.Phone,
		City:         string(b.City),
		PropertyType: string(b.PropertyType),
		Purpose:      string(b.Purpose),
		BudgetMin:    b.BudgetMin,
		BudgetMax:    b.BudgetMax,
		Timeline:     string(b.Timeline),
		Source:       string(b.Source),
		Notes:        b.Notes,
		Tags:         slices.Clone(b.Tags),
		Status:       string(b.Status),
		OwnerID:      b.OwnerID,
		CreatedAt:    b.CreatedAt.UTC(),
		UpdatedAt:    b.UpdatedAt.UTC(),
	}
	if row.Tags == nil {
		row.Tags = []string{}
	}
	if b.BHK != nil {
		v := string(*b.BHK)
		row.BHK = &v
	}
	return row
}

func (r *buyerRow) toModel() *models.Buyer {
	b := &models.Buyer{
		ID:           r.ID,
		FullName:     r.FullName,
		Email:        r.Email,
		Phone:        r.Phone,
		City:         models.City(r.City),
		PropertyType: models.PropertyType(r.PropertyType),
		Purpose:      models.Purpose(r.Purpose),
		BudgetMin:    r.BudgetMin,
		BudgetMax:    r.BudgetMax,
		Timeline:     models.Timeline(r.Timeline),
		Source:       models.Source(r.Source),
		Notes:        r.Notes,
		Tags:         r.Tags,
		Status:       models.Status(r.Status),
		OwnerID:      r.OwnerID,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if r.BHK != nil {
		v := models.BHK(*r.BHK)
		b.BHK = &v
	}
	return b
}

func toHistoryRow(e *models.HistoryEntry) historyRow {
	return historyRow{
		ID:        e.ID,
		BuyerID:   e.BuyerID,
		ChangedBy: e.ChangedBy,
		ChangedAt: e.ChangedAt.UTC(),
		Action:    string(e.Action),
		Changes:   e.Changes,
	}
}

func (r *historyRow) toModel() *models.HistoryEntry {
	return &models.HistoryEntry{
		ID:        r.ID,
		BuyerID:   r.BuyerID,
		ChangedBy: r.ChangedBy,
		ChangedAt: r.ChangedAt.UTC(),
		Action:    models.Action(r.Action),
		Changes:   r.Changes,
	}
}

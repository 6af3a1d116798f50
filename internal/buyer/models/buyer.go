package models

import (
	"slices"
	"time"
)

// Buyer is a persisted buyer lead.
type Buyer struct {
	ID           string       `json:"id"`
	FullName     string       `json:"fullName"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone"`
	City         City         `json:"city"`
	PropertyType PropertyType `json:"propertyType"`
	BHK          *BHK         `json:"bhk"`
	Purpose      Purpose      `json:"purpose"`
	BudgetMin    *int64       `json:"budgetMin"`
	BudgetMax    *int64       `json:"budgetMax"`
	Timeline     Timeline     `json:"timeline"`
	Source       Source       `json:"source"`
	Notes        string       `json:"notes"`
	Tags         []string     `json:"tags"`
	Status       Status       `json:"status"`
	OwnerID      string       `json:"ownerId"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// OwnedBy reports whether userID may mutate the buyer.
func (b *Buyer) OwnedBy(userID string) bool {
	return userID != "" && b.OwnerID == userID
}

// Clone returns a deep copy; pointer fields and tags are not shared.
func (b *Buyer) Clone() *Buyer {
	c := *b
	c.BHK = clonePtr(b.BHK)
	c.BudgetMin = clonePtr(b.BudgetMin)
	c.BudgetMax = clonePtr(b.BudgetMax)
	c.Tags = slices.Clone(b.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return &c
}

// AsPartial returns an update payload carrying every field of b.
func (b *Buyer) AsPartial() PartialBuyer {
	tags := slices.Clone(b.Tags)
	if tags == nil {
		tags = []string{}
	}
	return PartialBuyer{
		ID:           b.ID,
		UpdatedAt:    b.UpdatedAt,
		FullName:     ptr(b.FullName),
		Email:        ptr(b.Email),
		Phone:        ptr(b.Phone),
		City:         ptr(b.City),
		PropertyType: ptr(b.PropertyType),
		BHK:          Optional[BHK]{Present: true, Value: clonePtr(b.BHK)},
		Purpose:      ptr(b.Purpose),
		BudgetMin:    Optional[int64]{Present: true, Value: clonePtr(b.BudgetMin)},
		BudgetMax:    Optional[int64]{Present: true, Value: clonePtr(b.BudgetMax)},
		Timeline:     ptr(b.Timeline),
		Source:       ptr(b.Source),
		Notes:        ptr(b.Notes),
		Tags:         &tags,
		Status:       ptr(b.Status),
	}
}

// Merge returns a copy of b with every field present in p applied.
// ID, owner and timestamps are left untouched.
func (b *Buyer) Merge(p PartialBuyer) *Buyer {
	m := b.Clone()
	if p.FullName != nil {
		m.FullName = *p.FullName
	}
	if p.Email != nil {
		m.Email = *p.Email
	}
	if p.Phone != nil {
		m.Phone = *p.Phone
	}
	if p.City != nil {
		m.City = *p.City
	}
	if p.PropertyType != nil {
		m.PropertyType = *p.PropertyType
	}
	if p.BHK.Present {
		m.BHK = clonePtr(p.BHK.Value)
	}
	if p.Purpose != nil {
		m.Purpose = *p.Purpose
	}
	if p.BudgetMin.Present {
		m.BudgetMin = clonePtr(p.BudgetMin.Value)
	}
	if p.BudgetMax.Present {
		m.BudgetMax = clonePtr(p.BudgetMax.Value)
	}
	if p.Timeline != nil {
		m.Timeline = *p.Timeline
	}
	if p.Source != nil {
		m.Source = *p.Source
	}
	if p.Notes != nil {
		m.Notes = *p.Notes
	}
	if p.Tags != nil {
		m.Tags = slices.Clone(*p.Tags)
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	return m
}

// Optional distinguishes an absent field from one explicitly set to null.
// Present with a nil Value clears the field.
type Optional[T any] struct {
	Present bool
	Value   *T
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Present: true, Value: &v}
}

// Null returns a present Optional with no value.
func Null[T any]() Optional[T] {
	return Optional[T]{Present: true}
}

// PartialBuyer is a validated update payload. Nil pointers and non-present
// Optionals are fields the caller did not send.
type PartialBuyer struct {
	ID        string
	UpdatedAt time.Time

	FullName     *string
	Email        *string
	Phone        *string
	City         *City
	PropertyType *PropertyType
	BHK          Optional[BHK]
	Purpose      *Purpose
	BudgetMin    Optional[int64]
	BudgetMax    Optional[int64]
	Timeline     *Timeline
	Source       *Source
	Notes        *string
	Tags         *[]string
	Status       *Status
}

// Owner is the display identity of a buyer's owner.
type Owner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BuyerDetail is a buyer with its recent history for the detail view.
type BuyerDetail struct {
	Buyer   *Buyer          `json:"buyer"`
	Owner   *Owner          `json:"owner,omitempty"`
	History []*HistoryEntry `json:"history"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination derives the page count from total and limit.
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// Page is a listing result.
type Page struct {
	Buyers     []*Buyer   `json:"buyers"`
	Pagination Pagination `json:"pagination"`
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Success  bool     `json:"success"`
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
}

func ptr[T any](v T) *T { return &v }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

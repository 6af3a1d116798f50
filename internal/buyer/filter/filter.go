// Package filter translates listing parameters into a storage-agnostic query.
package filter

import (
	"net/url"
	"strconv"
	"strings"

	"leadbook/internal/buyer/models"
)

// PageSize is the fixed number of buyers per page.
const PageSize = 10

// All is the sentinel value meaning "no filter" for enum parameters.
const All = "all"

// Order is the updatedAt sort direction.
type Order int

const (
	OrderDesc Order = iota
	OrderAsc
)

// Params are the raw listing parameters.
type Params struct {
	Search       string
	City         string
	PropertyType string
	Status       string
	Timeline     string
	Page         int
}

// ParseParams reads Params from a query string. An unparseable page is page 1.
func ParseParams(q url.Values) Params {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil {
		page = 1
	}
	return Params{
		Search:       q.Get("search"),
		City:         q.Get("city"),
		PropertyType: q.Get("propertyType"),
		Status:       q.Get("status"),
		Timeline:     q.Get("timeline"),
		Page:         page,
	}
}

// Query is a normalized listing query. Empty equality fields are not applied.
type Query struct {
	// Search is lower-cased; it matches fullName, phone or email as a substring.
	Search       string
	City         models.City
	PropertyType models.PropertyType
	Status       models.Status
	Timeline     models.Timeline
	Order        Order
	Page         int
	Limit        int
	Offset       int
}

// Build normalizes p into a Query ordered by updatedAt in the given direction.
func Build(p Params, order Order) Query {
	page := max(p.Page, 1)
	return Query{
		Search:       Fold(strings.TrimSpace(p.Search)),
		City:         models.City(active(p.City)),
		PropertyType: models.PropertyType(active(p.PropertyType)),
		Status:       models.Status(active(p.Status)),
		Timeline:     models.Timeline(active(p.Timeline)),
		Order:        order,
		Page:         page,
		Limit:        PageSize,
		Offset:       (page - 1) * PageSize,
	}
}

// Unpaged returns the same predicate and order without a limit.
func (q Query) Unpaged() Query {
	q.Page, q.Limit, q.Offset = 1, 0, 0
	return q
}

// Paged reports whether the query carries a limit.
func (q Query) Paged() bool {
	return q.Limit > 0
}

// Matches evaluates the query predicate against b.
func (q Query) Matches(b *models.Buyer) bool {
	if q.Search != "" &&
		!strings.Contains(Fold(b.FullName), q.Search) &&
		!strings.Contains(Fold(b.Phone), q.Search) &&
		!strings.Contains(Fold(b.Email), q.Search) {
		return false
	}
	if q.City != "" && b.City != q.City {
		return false
	}
	if q.PropertyType != "" && b.PropertyType != q.PropertyType {
		return false
	}
	if q.Status != "" && b.Status != q.Status {
		return false
	}
	if q.Timeline != "" && b.Timeline != q.Timeline {
		return false
	}
	return true
}

// Pagination describes the page this query selects given the total match count.
func (q Query) Pagination(total int) models.Pagination {
	return models.NewPagination(q.Page, q.Limit, total)
}

// Fold lowercases s for search matching. Stores that match in SQL keep a
// folded copy of each searchable column so every backend folds the same way.
func Fold(s string) string {
	return strings.ToLower(s)
}

func active(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, All) {
		return ""
	}
	return v
}

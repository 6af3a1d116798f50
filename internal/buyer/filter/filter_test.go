package filter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"leadbook/internal/buyer/models"
)

func TestParseParams(t *testing.T) {
	q, _ := url.ParseQuery("search=Asha&city=MOHALI&propertyType=all&status=NEW&timeline=&page=3")
	p := ParseParams(q)
	assert.Equal(t, Params{Search: "Asha", City: "MOHALI", PropertyType: "all", Status: "NEW", Page: 3}, p)

	q, _ = url.ParseQuery("page=abc")
	assert.Equal(t, 1, ParseParams(q).Page)
}

func TestBuild(t *testing.T) {
	t.Run("all sentinel and empty values are skipped", func(t *testing.T) {
		q := Build(Params{City: "all", PropertyType: "ALL", Status: "", Timeline: "EXPLORING", Page: 1}, OrderDesc)
		assert.Empty(t, q.City)
		assert.Empty(t, q.PropertyType)
		assert.Empty(t, q.Status)
		assert.Equal(t, models.TimelineExploring, q.Timeline)
	})

	t.Run("fixed page size and offset", func(t *testing.T) {
		q := Build(Params{Page: 3}, OrderAsc)
		assert.Equal(t, PageSize, q.Limit)
		assert.Equal(t, 20, q.Offset)
		assert.Equal(t, OrderAsc, q.Order)
	})

	t.Run("page below one is clamped", func(t *testing.T) {
		q := Build(Params{Page: -4}, OrderDesc)
		assert.Equal(t, 1, q.Page)
		assert.Equal(t, 0, q.Offset)
	})

	t.Run("unpaged keeps the predicate", func(t *testing.T) {
		q := Build(Params{Search: "X", City: "MOHALI", Page: 4}, OrderDesc).Unpaged()
		assert.False(t, q.Paged())
		assert.Equal(t, "x", q.Search)
		assert.Equal(t, models.CityMohali, q.City)
	})
}

func TestFold(t *testing.T) {
	assert.Equal(t, "élodie ünal", Fold("ÉLODIE Ünal"))
	assert.Equal(t, "élodie", Build(Params{Search: " ÉLODIE "}, OrderAsc).Search)
}

func TestMatches(t *testing.T) {
	b := &models.Buyer{
		FullName:     "Asha Verma",
		Phone:        "9876543210",
		Email:        "ASHA@example.com",
		City:         models.CityMohali,
		PropertyType: models.PropertyPlot,
		Status:       models.StatusNew,
		Timeline:     models.TimelineExploring,
	}

	tests := []struct {
		name   string
		params Params
		want   bool
	}{
		{"no filters", Params{}, true},
		{"name substring any case", Params{Search: "VERMA"}, true},
		{"phone substring", Params{Search: "6543"}, true},
		{"email substring", Params{Search: "asha@"}, true},
		{"search misses every field", Params{Search: "zzz"}, false},
		{"exact city", Params{City: "MOHALI"}, true},
		{"other city", Params{City: "CHANDIGARH"}, false},
		{"filters are ANDed", Params{Search: "asha", Status: "QUALIFIED"}, false},
		{"all sentinel", Params{City: "all", Status: "all", PropertyType: "all", Timeline: "all"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Build(tt.params, OrderDesc).Matches(b))
		})
	}
}

func TestPagination(t *testing.T) {
	q := Build(Params{Page: 2}, OrderDesc)
	assert.Equal(t, models.Pagination{Page: 2, Limit: 10, Total: 25, Pages: 3}, q.Pagination(25))
}

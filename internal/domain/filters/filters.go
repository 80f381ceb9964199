package filters

import (
	"net/url"
	"strings"

	"github.com/gorilla/schema"
)

const (
	AscSort  = "asc"
	DescSort = "desc"

	DefaultPage  = 1
	DefaultLimit = 9
	DefaultSort  = "title:asc"
	MaxLimit     = 100
)

var SortSafelist = []string{"title", "year"}

type Filters struct {
	Page   int    `schema:"page" json:"page" validate:"gte=1"`
	Limit  int    `schema:"limit" json:"limit" validate:"gte=1,lte=100"`
	Search string `schema:"search" json:"search,omitempty"`
	Year   int    `schema:"year" json:"year,omitempty" validate:"omitempty,gte=1895"`
	Genre  string `schema:"genre" json:"genre,omitempty"`
	Sort   string `schema:"sort" json:"sort" validate:"moviesort"`
}

func Default() Filters {
	return Filters{Page: DefaultPage, Limit: DefaultLimit, Sort: DefaultSort}
}

// WithDefaults fills zero values with the catalog defaults.
func (f Filters) WithDefaults() Filters {
	if f.Page == 0 {
		f.Page = DefaultPage
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Sort == "" {
		f.Sort = DefaultSort
	}
	f.Search = strings.TrimSpace(f.Search)
	f.Genre = strings.TrimSpace(f.Genre)
	return f
}

func splitSort(sort string) (column, direction string) {
	column, direction, found := strings.Cut(sort, ":")
	if !found {
		direction = AscSort
	}
	return strings.ToLower(column), strings.ToLower(direction)
}

func (f *Filters) SortColumn() string {
	column, _ := splitSort(f.Sort)
	return column
}

func (f *Filters) SortDirection() string {
	_, direction := splitSort(f.Sort)
	if direction == DescSort {
		return DescSort
	}
	return AscSort
}

// ValidSort accepts "<column>:<asc|desc>" for safelisted columns.
func ValidSort(sort string) bool {
	column, direction := splitSort(sort)
	if direction != AscSort && direction != DescSort {
		return false
	}
	for _, safe := range SortSafelist {
		if column == safe {
			return true
		}
	}
	return false
}

type listQuery struct {
	ProfileID string `schema:"profileId"`
	MaxAge    string `schema:"maxAge"`
	Page      int    `schema:"page"`
	Limit     int    `schema:"limit"`
	Search    string `schema:"search,omitempty"`
	Year      int    `schema:"year,omitempty"`
	Genre     string `schema:"genre,omitempty"`
	Sort      string `schema:"sort"`
}

var (
	encoder = schema.NewEncoder()
	decoder = newDecoder()
)

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// Query builds the backend list query scoped to a profile.
func (f Filters) Query(profileID, maxAge string) (url.Values, error) {
	f = f.WithDefaults()
	values := url.Values{}
	err := encoder.Encode(listQuery{
		ProfileID: profileID,
		MaxAge:    maxAge,
		Page:      f.Page,
		Limit:     f.Limit,
		Search:    f.Search,
		Year:      f.Year,
		Genre:     f.Genre,
		Sort:      f.Sort,
	}, values)
	if err != nil {
		return nil, err
	}
	return values, nil
}

// Parse reads filters from a request query, unknown keys are ignored.
func Parse(values url.Values) (Filters, error) {
	var f Filters
	if err := decoder.Decode(&f, values); err != nil {
		return Filters{}, err
	}
	return f.WithDefaults(), nil
}

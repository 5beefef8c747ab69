package collection

import (
	"sort"

	"golang.org/x/text/cases"
)

// SortOrder is the direction of a sort key.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// DefaultPageSize is applied when a screen does not declare one.
const DefaultPageSize = 20

// ColumnSpec declares a sortable column and the order a first click adopts.
// Recency-style columns declare descending, key-ish text and date columns
// ascending; the default is an explicit per-column declaration, never implied.
type ColumnSpec struct {
	Name         string
	DefaultOrder SortOrder
}

// Query is the page/sort/filter/search request shape shared by every list
// screen.
type Query struct {
	Page      int               `json:"page"`
	PageSize  int               `json:"pageSize"`
	Search    string            `json:"search,omitempty"`
	Filters   map[string]string `json:"filters,omitempty"`
	SortBy    string            `json:"sortBy"`
	SortOrder SortOrder         `json:"sortOrder"`
}

var searchFolder = cases.Fold()

// NormalizeSearch case-folds a search term so lookups match regardless of the
// user's input casing.
func NormalizeSearch(term string) string {
	return searchFolder.String(term)
}

// FilterKeys returns the filter keys in stable order.
func (q Query) FilterKeys() []string {
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (q Query) cloneFilters() map[string]string {
	if q.Filters == nil {
		return nil
	}
	filters := make(map[string]string, len(q.Filters))
	for k, v := range q.Filters {
		filters[k] = v
	}
	return filters
}

// Reducer owns a screen's query bookkeeping: page index, sort key and the
// transition rules between them. Screens supply only their column sort
// defaults and filter shape.
type Reducer struct {
	query      Query
	columns    map[string]ColumnSpec
	totalPages int
}

// NewReducer builds a reducer with the given sortable columns. The first
// column becomes the initial sort key using its declared default order.
func NewReducer(pageSize int, columns ...ColumnSpec) *Reducer {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	r := &Reducer{
		query:   Query{Page: 1, PageSize: pageSize},
		columns: make(map[string]ColumnSpec, len(columns)),
	}
	for i, col := range columns {
		r.columns[col.Name] = col
		if i == 0 {
			r.query.SortBy = col.Name
			r.query.SortOrder = col.DefaultOrder
		}
	}
	if r.query.SortOrder == "" {
		r.query.SortOrder = SortAsc
	}
	return r
}

// Query returns the current query value.
func (r *Reducer) Query() Query {
	q := r.query
	q.Filters = r.query.cloneFilters()
	return q
}

// Apply runs one transition event and returns the resulting query.
func (r *Reducer) Apply(ev Event) Query {
	ev.apply(r)
	return r.Query()
}

// Observe records the pagination metadata of the latest fetched page so page
// navigation can clamp to the real page range.
func (r *Reducer) Observe(totalPages int) {
	if totalPages < 0 {
		totalPages = 0
	}
	r.totalPages = totalPages
}

// Event is one user-visible mutation of the collection query state.
type Event interface {
	apply(*Reducer)
}

// SearchChanged replaces the search term and resets to page 1.
type SearchChanged struct {
	Term string
}

func (e SearchChanged) apply(r *Reducer) {
	r.query.Search = NormalizeSearch(e.Term)
	r.query.Page = 1
}

// FilterChanged sets or replaces one filter value and resets to page 1. An
// empty value removes the filter.
type FilterChanged struct {
	Key   string
	Value string
}

func (e FilterChanged) apply(r *Reducer) {
	if e.Key == "" {
		return
	}
	if e.Value == "" {
		delete(r.query.Filters, e.Key)
	} else {
		if r.query.Filters == nil {
			r.query.Filters = make(map[string]string)
		}
		r.query.Filters[e.Key] = e.Value
	}
	r.query.Page = 1
}

// SortClicked handles a sort-column click: clicking the active column toggles
// the order, clicking a new column adopts its declared default order. Either
// way the page resets to 1. Clicks on undeclared columns are ignored.
type SortClicked struct {
	Column string
}

func (e SortClicked) apply(r *Reducer) {
	spec, ok := r.columns[e.Column]
	if !ok {
		return
	}
	if r.query.SortBy == spec.Name {
		if r.query.SortOrder == SortAsc {
			r.query.SortOrder = SortDesc
		} else {
			r.query.SortOrder = SortAsc
		}
	} else {
		r.query.SortBy = spec.Name
		r.query.SortOrder = spec.DefaultOrder
	}
	r.query.Page = 1
}

// PageSizeChanged replaces the page size and resets to page 1.
type PageSizeChanged struct {
	Size int
}

func (e PageSizeChanged) apply(r *Reducer) {
	if e.Size <= 0 {
		return
	}
	r.query.PageSize = e.Size
	r.query.Page = 1
}

// PageRequested navigates to an absolute page, clamped to the last observed
// page range. Navigation past either boundary is a no-op at the boundary,
// never a wraparound.
type PageRequested struct {
	Page int
}

func (e PageRequested) apply(r *Reducer) {
	page := e.Page
	if page < 1 {
		page = 1
	}
	if r.totalPages > 0 && page > r.totalPages {
		page = r.totalPages
	}
	r.query.Page = page
}

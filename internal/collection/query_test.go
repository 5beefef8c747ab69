package collection

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestReducer() *Reducer {
	return NewReducer(10,
		ColumnSpec{Name: "createdAt", DefaultOrder: SortDesc},
		ColumnSpec{Name: "number", DefaultOrder: SortAsc},
		ColumnSpec{Name: "dueDate", DefaultOrder: SortAsc},
	)
}

func TestReducerInitialSortFromFirstColumn(t *testing.T) {
	q := newTestReducer().Query()
	require.Equal(t, 1, q.Page)
	require.Equal(t, 10, q.PageSize)
	require.Equal(t, "createdAt", q.SortBy)
	require.Equal(t, SortDesc, q.SortOrder)
}

func TestSearchEditResetsPage(t *testing.T) {
	r := newTestReducer()
	r.Observe(8)
	r.Apply(PageRequested{Page: 5})
	require.Equal(t, 5, r.Query().Page)

	q := r.Apply(SearchChanged{Term: "Steel"})
	require.Equal(t, 1, q.Page)
	require.Equal(t, "steel", q.Search, "search terms are case-folded")
}

func TestFilterChangeResetsPage(t *testing.T) {
	r := newTestReducer()
	r.Observe(4)
	r.Apply(PageRequested{Page: 3})

	q := r.Apply(FilterChanged{Key: "status", Value: "Draft"})
	require.Equal(t, 1, q.Page)
	require.Equal(t, "Draft", q.Filters["status"])

	r.Apply(PageRequested{Page: 2})
	q = r.Apply(FilterChanged{Key: "status", Value: ""})
	require.Equal(t, 1, q.Page)
	require.NotContains(t, q.Filters, "status")
}

func TestSortClickToggleAndDefault(t *testing.T) {
	r := newTestReducer()
	r.Observe(9)
	r.Apply(PageRequested{Page: 7})

	// Clicking the already-active recency column toggles desc -> asc and
	// resets the page.
	q := r.Apply(SortClicked{Column: "createdAt"})
	require.Equal(t, "createdAt", q.SortBy)
	require.Equal(t, SortAsc, q.SortOrder)
	require.Equal(t, 1, q.Page)

	q = r.Apply(SortClicked{Column: "createdAt"})
	require.Equal(t, SortDesc, q.SortOrder)

	// A new column adopts its declared default, not the previous order.
	q = r.Apply(SortClicked{Column: "number"})
	require.Equal(t, "number", q.SortBy)
	require.Equal(t, SortAsc, q.SortOrder)
	require.Equal(t, 1, q.Page)

	// Undeclared columns are ignored entirely.
	q = r.Apply(SortClicked{Column: "ghost"})
	require.Equal(t, "number", q.SortBy)
}

func TestPageSizeChangeResetsPage(t *testing.T) {
	r := newTestReducer()
	r.Observe(6)
	r.Apply(PageRequested{Page: 4})

	q := r.Apply(PageSizeChanged{Size: 50})
	require.Equal(t, 1, q.Page)
	require.Equal(t, 50, q.PageSize)

	q = r.Apply(PageSizeChanged{Size: 0})
	require.Equal(t, 50, q.PageSize, "non-positive sizes are ignored")
}

func TestPageNavigationClampsToRange(t *testing.T) {
	r := newTestReducer()
	r.Observe(3)

	require.Equal(t, 3, r.Apply(PageRequested{Page: 99}).Page)
	require.Equal(t, 1, r.Apply(PageRequested{Page: 0}).Page)
	require.Equal(t, 1, r.Apply(PageRequested{Page: -5}).Page)
	require.Equal(t, 2, r.Apply(PageRequested{Page: 2}).Page)
}

func TestPagedResultInvariants(t *testing.T) {
	page := NewPagedResult([]string{"a", "b", "c"}, 1, 3, 7)
	require.Equal(t, 3, page.TotalPages)
	require.False(t, page.HasPreviousPage)
	require.True(t, page.HasNextPage)

	last := NewPagedResult([]string{"g"}, 3, 3, 7)
	require.True(t, last.HasPreviousPage)
	require.False(t, last.HasNextPage, "hasNextPage is false on the last page")

	empty := NewPagedResult([]string(nil), 1, 10, 0)
	require.Equal(t, 0, page.TotalPages-3)
	require.False(t, empty.HasPreviousPage)
	require.False(t, empty.HasNextPage)

	overfull := NewPagedResult([]string{"a", "b", "c", "d"}, 1, 2, 4)
	require.LessOrEqual(t, len(overfull.Items), overfull.PageSize)
}

func TestMapPageKeepsMetadata(t *testing.T) {
	page := NewPagedResult([]int{1, 2, 3}, 2, 3, 9)
	mapped := MapPage(page, func(v int) int { return v * 10 })
	require.Equal(t, []int{10, 20, 30}, mapped.Items)
	require.Equal(t, page.TotalPages, mapped.TotalPages)
	require.Equal(t, page.HasPreviousPage, mapped.HasPreviousPage)
	require.Equal(t, page.HasNextPage, mapped.HasNextPage)
}

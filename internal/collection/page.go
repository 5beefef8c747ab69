package collection

import "math"

// PagedResult is the page-shaped response every list endpoint returns.
type PagedResult[T any] struct {
	Items           []T  `json:"items"`
	Page            int  `json:"page"`
	PageSize        int  `json:"pageSize"`
	TotalCount      int  `json:"totalCount"`
	TotalPages      int  `json:"totalPages"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	HasNextPage     bool `json:"hasNextPage"`
}

// NewPagedResult computes pagination metadata for one page of items.
func NewPagedResult[T any](items []T, page, pageSize, totalCount int) PagedResult[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	if len(items) > pageSize {
		items = items[:pageSize]
	}
	totalPages := int(math.Ceil(float64(totalCount) / float64(pageSize)))
	return PagedResult[T]{
		Items:           items,
		Page:            page,
		PageSize:        pageSize,
		TotalCount:      totalCount,
		TotalPages:      totalPages,
		HasPreviousPage: page > 1,
		HasNextPage:     page < totalPages,
	}
}

// MapPage converts a page of repository rows into a page of view items while
// keeping the pagination metadata intact.
func MapPage[T, U any](page PagedResult[T], fn func(T) U) PagedResult[U] {
	items := make([]U, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, fn(item))
	}
	return PagedResult[U]{
		Items:           items,
		Page:            page.Page,
		PageSize:        page.PageSize,
		TotalCount:      page.TotalCount,
		TotalPages:      page.TotalPages,
		HasPreviousPage: page.HasPreviousPage,
		HasNextPage:     page.HasNextPage,
	}
}

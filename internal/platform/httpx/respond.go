// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/collection"
)

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

// IDParam parses the chi {id} route parameter.
func IDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// CollectionQuery parses list endpoint parameters into a validated query.
// Columns whitelist the sortable fields, the first one acting as the default
// sort; filterKeys whitelist the screen's filter shape. Unknown sort columns
// and filters are ignored, page and pageSize are normalized. The page-reset
// and toggle bookkeeping lives client-side in collection.Reducer; the server
// just serves the page it is asked for.
func CollectionQuery(r *http.Request, columns []collection.ColumnSpec, filterKeys ...string) collection.Query {
	params := r.URL.Query()

	q := collection.Query{Page: 1, PageSize: collection.DefaultPageSize}
	if len(columns) > 0 {
		q.SortBy = columns[0].Name
		q.SortOrder = columns[0].DefaultOrder
	}
	if q.SortOrder == "" {
		q.SortOrder = collection.SortAsc
	}

	if page, err := strconv.Atoi(params.Get("page")); err == nil && page > 0 {
		q.Page = page
	}
	if size, err := strconv.Atoi(params.Get("pageSize")); err == nil && size > 0 {
		q.PageSize = size
	}
	if term := params.Get("search"); term != "" {
		q.Search = collection.NormalizeSearch(term)
	}
	for _, key := range filterKeys {
		if value := params.Get(key); value != "" {
			if q.Filters == nil {
				q.Filters = make(map[string]string)
			}
			q.Filters[key] = value
		}
	}
	if col := params.Get("sort"); col != "" {
		for _, spec := range columns {
			if spec.Name != col {
				continue
			}
			q.SortBy = spec.Name
			q.SortOrder = spec.DefaultOrder
			switch collection.SortOrder(params.Get("dir")) {
			case collection.SortAsc:
				q.SortOrder = collection.SortAsc
			case collection.SortDesc:
				q.SortOrder = collection.SortDesc
			}
			break
		}
	}
	return q
}

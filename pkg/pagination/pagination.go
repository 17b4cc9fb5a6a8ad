package pagination

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/JaimeStill/vantage/pkg/query"
)

// SortFields accepts either a sort string ("tile_name,-completed_at") or
// an array of SortField objects in JSON.
type SortFields []query.SortField

// UnmarshalJSON supports unmarshaling from a comma-separated string or array format.
func (s *SortFields) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = query.ParseSortFields(str)
		return nil
	}

	var fields []query.SortField
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*s = fields
	return nil
}

// PageRequest represents a client request for a page of data with optional search and sorting.
type PageRequest struct {
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Search   *string    `json:"search,omitempty"`
	Sort     SortFields `json:"sort,omitempty"`
}

// Normalize clamps Page to at least one and PageSize into the configured
// bounds. Zero bounds in cfg are ignored.
func (r *PageRequest) Normalize(cfg Config) {
	r.Page = max(r.Page, 1)
	if r.PageSize < 1 && cfg.DefaultPageSize > 0 {
		r.PageSize = cfg.DefaultPageSize
	}
	if cfg.MaxPageSize > 0 && r.PageSize > cfg.MaxPageSize {
		r.PageSize = cfg.MaxPageSize
	}
	r.PageSize = max(r.PageSize, 1)
}

// Offset calculates the number of records to skip based on page and page size.
func (r *PageRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// PageRequestFromQuery parses page, page_size, search, and sort from URL
// query values and normalizes the result. Unparseable numbers fall back
// to the defaults.
func PageRequestFromQuery(values url.Values, cfg Config) PageRequest {
	page, _ := strconv.Atoi(values.Get("page"))
	pageSize, _ := strconv.Atoi(values.Get("page_size"))

	var search *string
	if s := strings.TrimSpace(values.Get("search")); s != "" {
		search = &s
	}

	sort := query.ParseSortFields(values.Get("sort"))

	req := PageRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   search,
		Sort:     sort,
	}

	req.Normalize(cfg)
	return req
}

// PageResult holds a page of data along with pagination metadata.
type PageResult[T any] struct {
	Data        []T  `json:"data"`
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// NewPageResult creates a PageResult with derived page counts. An empty
// result still reports one page. A non-positive pageSize is treated as
// one item per page.
func NewPageResult[T any](data []T, total, page, pageSize int) PageResult[T] {
	pageSize = max(pageSize, 1)
	totalPages := max((total+pageSize-1)/pageSize, 1)

	if data == nil {
		data = []T{}
	}

	return PageResult[T]{
		Data:        data,
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

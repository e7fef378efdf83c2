package helpers

import (
	"net/http"
	"strconv"

	"rsvpdesk/internal/domain"
)

// Pagination query parameter defaults and limits.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// queryInt parses a positive integer query parameter, returning fallback for
// missing, malformed, or non-positive values.
func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// ParsePagination reads page and page_size from the query string and clamps
// page_size to MaxPageSize. Bad values silently fall back to defaults.
func ParsePagination(r *http.Request) domain.PaginationParams {
	pageSize := queryInt(r, "page_size", DefaultPageSize)
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return domain.PaginationParams{
		Page:     queryInt(r, "page", DefaultPage),
		PageSize: pageSize,
	}
}

// PaginationMeta is the pagination block included in paginated list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta builds PaginationMeta for the given page and total count.
// TotalPages rounds up; a zero page size yields zero pages.
func NewPaginationMeta(page, pageSize, total int) PaginationMeta {
	meta := PaginationMeta{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		meta.TotalPages = (total + pageSize - 1) / pageSize
	}
	return meta
}

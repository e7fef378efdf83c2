package domain

// PaginationParams carries offset-based pagination through list queries.
// Page is 1-based.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Limit returns the row limit for list queries.
func (p PaginationParams) Limit() int { return p.PageSize }

// Offset returns the 0-based row offset for the current page. Pages below 1
// are treated as the first page.
func (p PaginationParams) Offset() int {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * p.PageSize
}

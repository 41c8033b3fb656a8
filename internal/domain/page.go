package domain

// PaginationParams is a 1-indexed page request. Limit is capped at MaxPageLimit.
type PaginationParams struct {
	Page  int
	Limit int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// NewPaginationParams builds params from optional query values, falling back
// to page 1 and DefaultPageLimit.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: DefaultPageLimit}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if limit != nil && *limit >= 1 {
		p.Limit = min(*limit, MaxPageLimit)
	}
	return p
}

// Offset is the zero-based row offset of the page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

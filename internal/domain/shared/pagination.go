package shared

// Page size bounds for snapshot list reads
const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Filter selects one page of a snapshot listing. OrderBy names a column the
// repository whitelists; OrderDir is "asc" or "desc".
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// DefaultFilter is the first page, largest first
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: DefaultPageSize, OrderDir: "desc"}
}

// Normalized clamps Page to at least 1 and PageSize into [1, MaxPageSize]
func (f Filter) Normalized() Filter {
	f.Page = max(f.Page, 1)
	switch {
	case f.PageSize < 1:
		f.PageSize = DefaultPageSize
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}
	return f
}

// Offset is the number of rows before the page
func (f Filter) Offset() int {
	return max(f.Page-1, 0) * f.PageSize
}

// Paginated is one page of results with the total row count.
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated builds a page, deriving TotalPages from total and pageSize
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	p := Paginated[T]{Items: items, Total: total, Page: page, PageSize: pageSize}
	if pageSize > 0 {
		p.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return p
}

package repository

// Page represents a simple limit/offset window for listing operations.
// I keep it intentionally small; advanced filtering belongs to higher layers.
type Page struct {
	Limit  int
	Offset int
}

// PageResult carries a slice of items and the total count matching the query.
// I return the total so clients can compute pagination without an extra round trip.
type PageResult[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// Paginate windows an already materialized slice, e.g. the reconciled game list.
func Paginate[T any](items []T, p Page) PageResult[T] {
	total := len(items)
	offset := max(p.Offset, 0)
	if offset > total {
		offset = total
	}
	end := total
	if p.Limit > 0 && offset+p.Limit < total {
		end = offset + p.Limit
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return PageResult[T]{Items: out, Total: total}
}

package query

// Pagination describes cursor based pagination for list queries.
// After is the internal ID of the last row the caller has seen.
type Pagination struct {
	Limit *int
	After *uint
	Order string
}

// NewPagination builds a Pagination from optional limit/after/order values.
func NewPagination(limit *int, after *uint, order string) *Pagination {
	if order != "desc" {
		order = "asc"
	}
	return &Pagination{
		Limit: limit,
		After: after,
		Order: order,
	}
}

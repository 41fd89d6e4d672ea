package domain

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageRequest selects one zero-based page of a listing.
type PageRequest struct {
	Page int
	Size int
}

// Normalize clamps pagination to sane bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}

// Offset returns the row offset of the page.
func (p PageRequest) Offset() uint64 {
	n := p.Normalize()
	return uint64(n.Page * n.Size)
}

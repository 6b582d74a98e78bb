package pagination

// Package pagination carries page/limit windows and the result metadata the
// UI layer needs for paging controls.

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params represents a pagination request. Page is 1-based.
type Params struct {
	Page  int
	Limit int
}

// Meta contains pagination metadata for one result window.
type Meta struct {
	CurrentPage  int
	PerPage      int
	TotalPages   int
	TotalRecords int
	HasNext      bool
	HasPrevious  bool
}

// Validate clamps parameters to sane bounds, applying defaults when unset.
func (p *Params) Validate() {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// Offset returns the zero-based row offset for the window.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// CalculateMeta builds the metadata for a window over totalRecords rows.
func (p Params) CalculateMeta(totalRecords int) Meta {
	totalPages := (totalRecords + p.Limit - 1) / p.Limit
	if totalPages < 1 {
		totalPages = 1
	}

	return Meta{
		CurrentPage:  p.Page,
		PerPage:      p.Limit,
		TotalPages:   totalPages,
		TotalRecords: totalRecords,
		HasNext:      p.Page < totalPages,
		HasPrevious:  p.Page > 1,
	}
}

package entity

type SortDir string

const (
	SortAsc  SortDir = "ASC"
	SortDesc SortDir = "DESC"
)

// PageRequest describes one fetch against a remote paginated resource.
// Treat values as immutable per request: derive a copy via WithPage or Clone
// whenever any field changes instead of mutating a request in flight.
type PageRequest struct {
	Page      int
	Size      int
	SortField string
	SortDir   SortDir
	// Filters maps filter name to one or more values. Multi-valued filters
	// (status) are encoded as repeated query parameters.
	Filters map[string][]string
}

// Clone returns a deep copy so callers can derive new requests safely.
func (r PageRequest) Clone() PageRequest {
	out := r
	out.Filters = make(map[string][]string, len(r.Filters))
	for k, v := range r.Filters {
		vv := make([]string, len(v))
		copy(vv, v)
		out.Filters[k] = vv
	}
	return out
}

// WithPage derives a request targeting the given page.
func (r PageRequest) WithPage(page int) PageRequest {
	out := r.Clone()
	out.Page = page
	return out
}

// Sort renders the sort parameter the backend expects ("field,DIR").
func (r PageRequest) Sort() string {
	if r.SortField == "" {
		return ""
	}
	dir := r.SortDir
	if dir == "" {
		dir = SortAsc
	}
	return r.SortField + "," + string(dir)
}

// PageResult is the normalized page envelope. A bare-array backend response
// is folded into a single full page with TotalPages=1 at the decode boundary.
type PageResult[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

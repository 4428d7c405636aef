package products

import "strings"

// Sort options supported by the storefront listing.
const (
	SortNewest     = "newest"
	SortPriceAsc   = "price_asc"
	SortPriceDesc  = "price_desc"
	SortAuthorAsc  = "author_asc"
	SortAuthorDesc = "author_desc"
	SortCoverType  = "cover_type"
)

var validSorts = map[string]struct{}{
	SortNewest:     {},
	SortPriceAsc:   {},
	SortPriceDesc:  {},
	SortAuthorAsc:  {},
	SortAuthorDesc: {},
	SortCoverType:  {},
}

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	Search       string
	CategoryName string
	CoverTypeID  *uint
}

// ListInput captures the inputs needed to page/filter/sort the listing.
type ListInput struct {
	Filters         ListFilters
	Sort            string
	Page            int
	PageSize        int
	IncludeInactive bool
}

// normalizeSort maps blank or unknown sort values onto the default.
func normalizeSort(value string) (string, bool) {
	sort := strings.TrimSpace(strings.ToLower(value))
	if sort == "" {
		return SortNewest, true
	}
	if _, ok := validSorts[sort]; !ok {
		return "", false
	}
	return sort, true
}

package model

type SortKey string

const (
	SortNone      SortKey = ""
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortAreaAsc   SortKey = "area_asc"
	SortAreaDesc  SortKey = "area_desc"
)

func (k SortKey) Known() bool {
	switch k {
	case SortPriceAsc, SortPriceDesc, SortAreaAsc, SortAreaDesc:
		return true
	}
	return false
}

// ListingFilter holds the structural criteria the store evaluates itself.
// Every field is optional and they combine with AND.
type ListingFilter struct {
	City            string   `json:"city,omitempty"`
	MinGuests       *int     `json:"minGuests,omitempty"`
	MinPrice        *float64 `json:"minPrice,omitempty"`
	MaxPrice        *float64 `json:"maxPrice,omitempty"`
	IncludeInactive bool     `json:"-"`
}

type SearchQuery struct {
	Filter ListingFilter `json:"filter"`
	Range  *DateRange    `json:"range,omitempty"`
	Sort   SortKey       `json:"sort,omitempty"`
}

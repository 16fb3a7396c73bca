package market

import (
	"sort"

	"itemmarket-rest-api/internal/model"
)

// SortType selects the ordering of a listings page.
type SortType string

const (
	SortNewest    SortType = "newest"
	SortOldest    SortType = "oldest"
	SortPriceLow  SortType = "price_low"
	SortPriceHigh SortType = "price_high"
)

// ParseSortType maps a query value onto a SortType, defaulting to newest.
func ParseSortType(s string) SortType {
	switch SortType(s) {
	case SortOldest, SortPriceLow, SortPriceHigh:
		return SortType(s)
	default:
		return SortNewest
	}
}

// SortListings orders listings in place. Ties fall back to listing id so
// pages are stable across requests.
func SortListings(listings []*model.Listing, by SortType) {
	sort.Slice(listings, func(i, j int) bool {
		a, b := listings[i], listings[j]
		switch by {
		case SortOldest:
			if !a.CreateDateUTC.Equal(b.CreateDateUTC) {
				return a.CreateDateUTC.Before(b.CreateDateUTC)
			}
		case SortPriceLow:
			if c := a.Price.Cmp(b.Price); c != 0 {
				return c < 0
			}
		case SortPriceHigh:
			if c := a.Price.Cmp(b.Price); c != 0 {
				return c > 0
			}
		default: // newest
			if !a.CreateDateUTC.Equal(b.CreateDateUTC) {
				return a.CreateDateUTC.After(b.CreateDateUTC)
			}
		}
		return a.ListingID < b.ListingID
	})
}

// Paginate returns the 1-based page of the given size. Out-of-range pages
// return an empty slice.
func Paginate(listings []*model.Listing, page, pageSize int) []*model.Listing {
	if page < 1 || pageSize < 1 {
		return nil
	}
	start := (page - 1) * pageSize
	if start >= len(listings) {
		return nil
	}
	end := start + pageSize
	if end > len(listings) {
		end = len(listings)
	}
	return listings[start:end]
}

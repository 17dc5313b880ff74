package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"listings-service/models"
)

// SortOption names one supported offer ordering.
type SortOption string

const (
	SortPriceAsc     SortOption = "price_asc"
	SortPriceDesc    SortOption = "price_desc"
	SortPriceSqmAsc  SortOption = "price_per_sqm_asc"
	SortPriceSqmDesc SortOption = "price_per_sqm_desc"
	SortDateNewest   SortOption = "date_newest"
	SortAreaAsc      SortOption = "area_asc"
	SortAreaDesc     SortOption = "area_desc"

	// SortDefault keeps the store's relevance order untouched.
	SortDefault SortOption = "najtrafniejsze"
)

// Sentinel keys for listings missing the sorted attribute: they sort after
// every real value in ascending order.
var (
	maxPrice = decimal.RequireFromString("999999999999.99")
	maxArea  = decimal.RequireFromString("999999999.99")
)

// ConvertSortParams maps the API's sort_by/order query parameters to a
// SortOption. Date always sorts newest first regardless of order.
func ConvertSortParams(sortBy, order string) (SortOption, error) {
	if order != "asc" && order != "desc" {
		return "", fmt.Errorf("invalid order %q (want asc or desc)", order)
	}
	switch sortBy {
	case "price":
		return SortOption("price_" + order), nil
	case "price_per_sqm":
		return SortOption("price_per_sqm_" + order), nil
	case "area":
		return SortOption("area_" + order), nil
	case "date":
		return SortDateNewest, nil
	default:
		return "", fmt.Errorf("invalid sort_by %q (want price, price_per_sqm, date or area)", sortBy)
	}
}

// OfferSorter orders listing offers in memory with null-safe keys.
type OfferSorter struct{}

func NewOfferSorter() *OfferSorter {
	return &OfferSorter{}
}

// Sort returns a new slice ordered by the given option; the input is left
// untouched. Equal keys keep their relative order.
func (s *OfferSorter) Sort(offers []*models.Listing, opt SortOption) ([]*models.Listing, error) {
	sorted := make([]*models.Listing, len(offers))
	copy(sorted, offers)

	var key func(l *models.Listing) decimal.Decimal
	desc := false

	switch opt {
	case "", SortDefault:
		return sorted, nil
	case SortPriceAsc, SortPriceDesc:
		key = func(l *models.Listing) decimal.Decimal { return decKey(l.PriceTotalZl, maxPrice) }
		desc = opt == SortPriceDesc
	case SortPriceSqmAsc, SortPriceSqmDesc:
		key = priceSqmKey
		desc = opt == SortPriceSqmDesc
	case SortAreaAsc, SortAreaDesc:
		key = func(l *models.Listing) decimal.Decimal { return decKey(l.Area, maxArea) }
		desc = opt == SortAreaDesc
	case SortDateNewest:
		sort.SliceStable(sorted, func(i, j int) bool {
			return dateKey(sorted[i].DatePosted).After(dateKey(sorted[j].DatePosted))
		})
		return sorted, nil
	default:
		return nil, fmt.Errorf("invalid sort option %q", opt)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if desc {
			return key(sorted[i]).GreaterThan(key(sorted[j]))
		}
		return key(sorted[i]).LessThan(key(sorted[j]))
	})
	return sorted, nil
}

// priceSqmKey prefers the stored price per square meter and falls back to
// deriving it from the total price and area. Listings where neither is
// possible sort as missing.
func priceSqmKey(l *models.Listing) decimal.Decimal {
	if l.PriceSqmZl != nil {
		return *l.PriceSqmZl
	}
	if l.PriceTotalZl != nil && l.Area != nil && !l.Area.IsZero() {
		return l.PriceTotalZl.Div(*l.Area)
	}
	return maxPrice
}

func decKey(v *decimal.Decimal, missing decimal.Decimal) decimal.Decimal {
	if v == nil {
		return missing
	}
	return *v
}

// dateKey treats a missing posting date as the oldest possible, so it sorts
// last under newest-first.
func dateKey(v *time.Time) time.Time {
	if v == nil {
		return time.Time{}
	}
	return *v
}

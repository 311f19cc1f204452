// Package types holds the catalog data model shared by the provider, the
// search session, the composer and the archive.
package types

import (
	"fmt"
	"strings"
)

// Category is one of the fixed product categories a search can target.
type Category string

const (
	CategoryHardware Category = "PC-Hardware"
	CategoryCameras  Category = "Kameras"
)

// Categories lists every supported category in display order.
var Categories = []Category{CategoryHardware, CategoryCameras}

// ParseCategory resolves a user supplied category name (case-insensitive).
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q (valid: %v)", ErrUnknownCategory, s, Categories)
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Placeholder returns the example query shown in the search input.
func (c Category) Placeholder() string {
	switch c {
	case CategoryCameras:
		return "z.B. Sony Alpha 7 IV"
	default:
		return "z.B. GeForce RTX 4080"
	}
}

// Next cycles to the following category.
func (c Category) Next() Category {
	for i, known := range Categories {
		if c == known {
			return Categories[(i+1)%len(Categories)]
		}
	}
	return Categories[0]
}

// Offer is a single retailer price for a product.
type Offer struct {
	Retailer string  `json:"retailer"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Link     string  `json:"link"`
}

// Product is one search hit with its offers sorted by ascending price.
type Product struct {
	Name        string  `json:"productName"`
	Description string  `json:"description"`
	Offers      []Offer `json:"offers"`
}

// BestOffer returns the cheapest offer. ok is false when there are no offers.
func (p Product) BestOffer() (Offer, bool) {
	if len(p.Offers) == 0 {
		return Offer{}, false
	}
	return p.Offers[0], true
}

// PriceSpread is the difference between the most and least expensive offer.
func (p Product) PriceSpread() float64 {
	if len(p.Offers) < 2 {
		return 0
	}
	return p.Offers[len(p.Offers)-1].Price - p.Offers[0].Price
}

// OffersSorted reports whether the offers are in ascending price order.
func (p Product) OffersSorted() bool {
	for i := 1; i < len(p.Offers); i++ {
		if p.Offers[i-1].Price > p.Offers[i].Price {
			return false
		}
	}
	return true
}

// FormatPrice renders a price the way result cards show it.
func FormatPrice(price float64, currency string) string {
	return strings.TrimSpace(fmt.Sprintf("%.2f %s", price, currency))
}

package provider

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"pricelens/internal/types"
)

// wire types use pointers so a missing field is distinguishable from a zero value.
type wireOffer struct {
	Retailer *string  `json:"retailer"`
	Price    *float64 `json:"price"`
	Currency *string  `json:"currency"`
	Link     *string  `json:"link"`
}

type wireProduct struct {
	ProductName *string      `json:"productName"`
	Description *string      `json:"description"`
	Offers      *[]wireOffer `json:"offers"`
}

// decodeProducts validates the model output against the product schema and
// returns products with offers sorted by ascending price.
func decodeProducts(text string) ([]types.Product, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", types.ErrRequest)
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	var raw []wireProduct
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: response does not match schema: %v", types.ErrRequest, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after product array", types.ErrRequest)
	}

	products := make([]types.Product, 0, len(raw))
	for i, rp := range raw {
		p, err := rp.validate()
		if err != nil {
			return nil, fmt.Errorf("%w: product %d: %v", types.ErrRequest, i, err)
		}
		SortOffers(p.Offers)
		products = append(products, p)
	}
	return products, nil
}

func (rp wireProduct) validate() (types.Product, error) {
	if rp.ProductName == nil || strings.TrimSpace(*rp.ProductName) == "" {
		return types.Product{}, fmt.Errorf("missing productName")
	}
	if rp.Description == nil {
		return types.Product{}, fmt.Errorf("missing description")
	}
	if rp.Offers == nil || len(*rp.Offers) == 0 {
		return types.Product{}, fmt.Errorf("no offers")
	}

	p := types.Product{
		Name:        strings.TrimSpace(*rp.ProductName),
		Description: strings.TrimSpace(*rp.Description),
		Offers:      make([]types.Offer, 0, len(*rp.Offers)),
	}
	for j, ro := range *rp.Offers {
		switch {
		case ro.Retailer == nil || strings.TrimSpace(*ro.Retailer) == "":
			return types.Product{}, fmt.Errorf("offer %d: missing retailer", j)
		case ro.Price == nil:
			return types.Product{}, fmt.Errorf("offer %d: missing price", j)
		case math.IsNaN(*ro.Price) || math.IsInf(*ro.Price, 0) || *ro.Price < 0:
			return types.Product{}, fmt.Errorf("offer %d: invalid price %v", j, *ro.Price)
		case ro.Currency == nil:
			return types.Product{}, fmt.Errorf("offer %d: missing currency", j)
		case ro.Link == nil:
			return types.Product{}, fmt.Errorf("offer %d: missing link", j)
		}
		p.Offers = append(p.Offers, types.Offer{
			Retailer: strings.TrimSpace(*ro.Retailer),
			Price:    *ro.Price,
			Currency: strings.TrimSpace(*ro.Currency),
			Link:     strings.TrimSpace(*ro.Link),
		})
	}
	return p, nil
}

// SortOffers orders offers by ascending price, keeping ties in response order.
func SortOffers(offers []types.Offer) {
	slices.SortStableFunc(offers, func(a, b types.Offer) int {
		return cmp.Compare(a.Price, b.Price)
	})
}

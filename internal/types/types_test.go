package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"PC-Hardware", CategoryHardware, false},
		{"pc-hardware", CategoryHardware, false},
		{"  Kameras ", CategoryCameras, false},
		{"KAMERAS", CategoryCameras, false},
		{"Fernseher", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnknownCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestCategoryNextCycles(t *testing.T) {
	assert.Equal(t, CategoryCameras, CategoryHardware.Next())
	assert.Equal(t, CategoryHardware, CategoryCameras.Next())
	assert.Equal(t, CategoryHardware, Category("bogus").Next())
}

func TestProductHelpers(t *testing.T) {
	p := Product{
		Name: "RTX 4080",
		Offers: []Offer{
			{Retailer: "A", Price: 999.5, Currency: "€"},
			{Retailer: "B", Price: 1049, Currency: "€"},
			{Retailer: "C", Price: 1100, Currency: "€"},
		},
	}
	best, ok := p.BestOffer()
	require.True(t, ok)
	assert.Equal(t, "A", best.Retailer)
	assert.InDelta(t, 100.5, p.PriceSpread(), 1e-9)
	assert.True(t, p.OffersSorted())

	p.Offers[0].Price = 2000
	assert.False(t, p.OffersSorted())

	_, ok = Product{}.BestOffer()
	assert.False(t, ok)
	assert.Zero(t, Product{}.PriceSpread())
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "1049.00 €", FormatPrice(1049, "€"))
	assert.Equal(t, "0.99", FormatPrice(0.99, ""))
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "Bitte geben Sie einen Suchbegriff ein.", UserMessage(ErrEmptyQuery))

	wrapped := fmt.Errorf("provider: %w", fmt.Errorf("decode: %w", ErrRequest))
	assert.Equal(t, "Fehler bei der Produktsuche. Bitte versuchen Sie es später erneut.", UserMessage(wrapped))

	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
}

func TestArtifactShareText(t *testing.T) {
	a := Artifact{Name: "Preisvergleich-RTX_4080-1700000000000.pdf"}
	assert.Equal(t, "Preisvergleichs-PDF: Preisvergleich-RTX_4080-1700000000000.pdf", a.ShareText())
}

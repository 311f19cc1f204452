package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricelens/internal/types"
)

func sample() []types.Product {
	return []types.Product{
		{
			Name:        "ASUS TUF RTX 4080",
			Description: "Leise Kühlung | drei Lüfter.",
			Offers: []types.Offer{
				{Retailer: "TechShop DE", Price: 1149, Currency: "€", Link: "https://techshop.example/tuf"},
				{Retailer: "PC-Paradies", Price: 1199.9, Currency: "€", Link: "javascript:alert(1)"},
			},
		},
		{Name: "Ohne Angebote"},
	}
}

func TestMarkdownCards(t *testing.T) {
	out := Markdown("RTX 4080", sample())

	assert.Contains(t, out, "# Suchergebnisse: RTX 4080")
	assert.Contains(t, out, "## ASUS TUF RTX 4080")
	assert.Contains(t, out, "**Bester Preis: 1149.00 €** bei TechShop DE")
	assert.Contains(t, out, "Preisspanne: 50.90 €")
	assert.Contains(t, out, "Leise Kühlung \\| drei Lüfter.")
	assert.Contains(t, out, "[Zum Angebot](https://techshop.example/tuf)")
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, "_Keine Angebote._")

	// table rows appear in price order
	assert.Less(t, strings.Index(out, "1149.00"), strings.Index(out, "1199.90"))
}

func TestMarkdownKeepsTableRowsOnOneLine(t *testing.T) {
	products := []types.Product{{
		Name: "Canon EOS R6",
		Offers: []types.Offer{
			{Retailer: "Foto\nKoch", Price: 2199, Currency: "€\r\n", Link: "https://example.com/koch"},
		},
	}}
	out := Markdown("R6", products)

	assert.Contains(t, out, "| Foto Koch | 2199.00 € | [Zum Angebot](https://example.com/koch) |")
	assert.Contains(t, out, "bei Foto Koch")
	assert.NotContains(t, out, "Preisspanne")
}

func TestMarkdownEmpty(t *testing.T) {
	assert.Contains(t, Markdown("x", nil), "Keine Produkte gefunden.")
}

func TestHTMLPage(t *testing.T) {
	out, err := HTML("RTX <4080>", sample(), HTMLOptions{})
	require.NoError(t, err)

	assert.Contains(t, out, `<div id="results">`)
	assert.Contains(t, out, "background: #f9fafb")
	assert.Contains(t, out, "width: 672px")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<h2")
	assert.Contains(t, out, `href="https://techshop.example/tuf"`)
	assert.NotContains(t, out, "<4080>")
}

func TestHTMLOptions(t *testing.T) {
	out, err := HTML("q", sample(), HTMLOptions{Background: "#ffffff", Width: 400})
	require.NoError(t, err)
	assert.Contains(t, out, "background: #ffffff")
	assert.Contains(t, out, "width: 400px")
}

func TestTerminal(t *testing.T) {
	out, err := Terminal("RTX 4080", sample(), 120, "notty")
	require.NoError(t, err)
	assert.Contains(t, out, "ASUS TUF RTX 4080")
	assert.Contains(t, out, "TechShop DE")
}

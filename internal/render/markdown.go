// Package render produces the result view for a product list: markdown
// cards, a self-contained HTML page for capture, and terminal output.
package render

import (
	"fmt"
	"strings"

	"pricelens/internal/types"
)

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"<", "&lt;", ">", "&gt;", "|", `\|`, "#", `\#`,
	"\r\n", " ", "\n", " ", "\r", " ",
)

func escape(s string) string {
	return mdEscaper.Replace(strings.TrimSpace(s))
}

// Markdown renders one card per product: name, description, the best offer,
// the price spread and a table of all offers in price order.
func Markdown(query string, products []types.Product) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Suchergebnisse: %s\n\n", escape(query))
	if len(products) == 0 {
		sb.WriteString("Keine Produkte gefunden.\n")
		return sb.String()
	}

	for _, p := range products {
		fmt.Fprintf(&sb, "## %s\n\n", escape(p.Name))
		if p.Description != "" {
			fmt.Fprintf(&sb, "%s\n\n", escape(p.Description))
		}

		best, ok := p.BestOffer()
		if !ok {
			sb.WriteString("_Keine Angebote._\n\n")
			continue
		}
		fmt.Fprintf(&sb, "**Bester Preis: %s** bei %s\n\n",
			escape(types.FormatPrice(best.Price, best.Currency)), escape(best.Retailer))
		if spread := p.PriceSpread(); spread > 0 {
			fmt.Fprintf(&sb, "Preisspanne: %s\n\n", escape(types.FormatPrice(spread, best.Currency)))
		}

		sb.WriteString("| Händler | Preis | Angebot |\n|---|---:|---|\n")
		for _, o := range p.Offers {
			fmt.Fprintf(&sb, "| %s | %s | %s |\n",
				escape(o.Retailer), escape(types.FormatPrice(o.Price, o.Currency)), link(o.Link))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// link renders an offer link, dropping anything that is not http(s).
func link(u string) string {
	u = strings.TrimSpace(u)
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return "-"
	}
	u = strings.NewReplacer("(", "%28", ")", "%29", " ", "%20", "|", "%7C").Replace(u)
	return fmt.Sprintf("[Zum Angebot](%s)", u)
}

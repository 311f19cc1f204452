package render

import (
	"fmt"

	"github.com/charmbracelet/glamour"

	"pricelens/internal/types"
)

// Terminal renders the product cards for a terminal of the given width.
// style is a glamour standard style name; empty selects one automatically.
func Terminal(query string, products []types.Product, width int, style string) (string, error) {
	if width <= 0 {
		width = 80
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("glamour renderer: %w", err)
	}
	return r.Render(Markdown(query, products))
}

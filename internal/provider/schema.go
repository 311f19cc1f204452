package provider

import "google.golang.org/genai"

// productListSchema constrains the model to emit the product array the
// adapter decodes. Every field is required.
func productListSchema() *genai.Schema {
	offer := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"retailer": {
				Type:        genai.TypeString,
				Description: "Name des Online-Händlers (z.B. 'TechShop DE', 'KameraWelt', 'PC-Paradies').",
			},
			"price": {
				Type:        genai.TypeNumber,
				Description: "Preis des Produkts in Euro.",
			},
			"currency": {
				Type:        genai.TypeString,
				Description: "Währungssymbol, sollte immer '€' sein.",
			},
			"link": {
				Type:        genai.TypeString,
				Description: "Eine fiktive, aber glaubwürdige URL zum Produktangebot.",
			},
		},
		Required:         []string{"retailer", "price", "currency", "link"},
		PropertyOrdering: []string{"retailer", "price", "currency", "link"},
	}

	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"productName": {
					Type:        genai.TypeString,
					Description: "Vollständiger Name des Produkts.",
				},
				"description": {
					Type:        genai.TypeString,
					Description: "Eine kurze, prägnante technische Beschreibung des Produkts (max. 2-3 Sätze).",
				},
				"offers": {
					Type:        genai.TypeArray,
					Description: "Eine Liste von Angeboten von verschiedenen Händlern.",
					Items:       offer,
				},
			},
			Required:         []string{"productName", "description", "offers"},
			PropertyOrdering: []string{"productName", "description", "offers"},
		},
	}
}

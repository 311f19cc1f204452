package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"pricelens/internal/types"
)

type fakeModels struct {
	text   string
	err    error
	calls  int
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: f.text}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     90,
			CandidatesTokenCount: 410,
		},
	}, nil
}

type recordedUsage struct {
	model, category string
	input, output   int
}

type fakeRecorder struct{ calls []recordedUsage }

func (r *fakeRecorder) Track(model, category string, input, output int) {
	r.calls = append(r.calls, recordedUsage{model, category, input, output})
}

const fourProducts = `[
 {"productName":"ASUS TUF RTX 4080","description":"Leise.","offers":[
   {"retailer":"PC-Paradies","price":1199.9,"currency":"€","link":"https://pc-paradies.example/tuf"},
   {"retailer":"TechShop DE","price":1149,"currency":"€","link":"https://techshop.example/tuf"},
   {"retailer":"HardwareHaus","price":1175.5,"currency":"€","link":"https://hwh.example/tuf"}]},
 {"productName":"MSI Gaming X RTX 4080","description":"Schnell.","offers":[
   {"retailer":"TechShop DE","price":1229,"currency":"€","link":"https://techshop.example/msi"}]},
 {"productName":"Gigabyte Eagle RTX 4080","description":"Kompakt.","offers":[
   {"retailer":"A","price":1100,"currency":"€","link":"https://a.example"},
   {"retailer":"B","price":1090,"currency":"€","link":"https://b.example"}]},
 {"productName":"Zotac AMP RTX 4080","description":"Günstig.","offers":[
   {"retailer":"A","price":1050,"currency":"€","link":"https://a.example/z"},
   {"retailer":"B","price":1050,"currency":"€","link":"https://b.example/z"},
   {"retailer":"C","price":999,"currency":"€","link":"https://c.example/z"}]}
]`

func TestSearchReturnsSortedProducts(t *testing.T) {
	fake := &fakeModels{text: fourProducts}
	a := NewWithClient(fake, Config{Temperature: 0.7})

	products, err := a.Search(context.Background(), types.CategoryHardware, "RTX 4080")
	require.NoError(t, err)
	require.Len(t, products, 4)

	for _, p := range products {
		require.NotEmpty(t, p.Offers, p.Name)
		assert.True(t, p.OffersSorted(), "offers of %s not sorted", p.Name)
	}

	want := []types.Offer{
		{Retailer: "TechShop DE", Price: 1149, Currency: "€", Link: "https://techshop.example/tuf"},
		{Retailer: "HardwareHaus", Price: 1175.5, Currency: "€", Link: "https://hwh.example/tuf"},
		{Retailer: "PC-Paradies", Price: 1199.9, Currency: "€", Link: "https://pc-paradies.example/tuf"},
	}
	if diff := cmp.Diff(want, products[0].Offers); diff != "" {
		t.Errorf("offers mismatch (-want +got):\n%s", diff)
	}

	// equal prices keep response order
	assert.Equal(t, []string{"C", "A", "B"}, []string{
		products[3].Offers[0].Retailer, products[3].Offers[1].Retailer, products[3].Offers[2].Retailer,
	})
}

func TestSearchRequestShape(t *testing.T) {
	fake := &fakeModels{text: fourProducts}
	a := NewWithClient(fake, Config{Model: "gemini-test", Temperature: 0.7})

	_, err := a.Search(context.Background(), types.CategoryCameras, "  Sony Alpha  ")
	require.NoError(t, err)

	assert.Equal(t, "gemini-test", fake.model)
	assert.Contains(t, fake.prompt, `Kategorie "Kameras"`)
	assert.Contains(t, fake.prompt, `Suchanfrage "Sony Alpha"`)
	require.NotNil(t, fake.config)
	assert.Equal(t, "application/json", fake.config.ResponseMIMEType)
	require.NotNil(t, fake.config.Temperature)
	assert.InDelta(t, 0.7, *fake.config.Temperature, 1e-6)

	schema := fake.config.ResponseSchema
	require.NotNil(t, schema)
	assert.Equal(t, genai.TypeArray, schema.Type)
	assert.ElementsMatch(t, []string{"productName", "description", "offers"}, schema.Items.Required)
	assert.ElementsMatch(t, []string{"retailer", "price", "currency", "link"},
		schema.Items.Properties["offers"].Items.Required)
}

func TestSearchDoesNotCache(t *testing.T) {
	fake := &fakeModels{text: fourProducts}
	a := NewWithClient(fake, Config{})
	for i := 0; i < 3; i++ {
		_, err := a.Search(context.Background(), types.CategoryHardware, "RTX 4080")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, fake.calls)
}

func TestSearchValidatesInput(t *testing.T) {
	fake := &fakeModels{text: fourProducts}
	a := NewWithClient(fake, Config{})

	_, err := a.Search(context.Background(), types.CategoryHardware, "   ")
	assert.ErrorIs(t, err, types.ErrEmptyQuery)

	_, err = a.Search(context.Background(), types.Category("Autos"), "Golf")
	assert.ErrorIs(t, err, types.ErrUnknownCategory)

	assert.Zero(t, fake.calls)
}

func TestSearchTransportError(t *testing.T) {
	fake := &fakeModels{err: errors.New("connection reset")}
	a := NewWithClient(fake, Config{})

	products, err := a.Search(context.Background(), types.CategoryHardware, "RTX 4080")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrRequest)
	assert.Nil(t, products)
}

func TestSearchRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"not json", "Hier sind Ihre Produkte"},
		{"object instead of array", `{"productName":"x"}`},
		{"missing offers", `[{"productName":"x","description":"d"}]`},
		{"empty offers", `[{"productName":"x","description":"d","offers":[]}]`},
		{"missing price", `[{"productName":"x","description":"d","offers":[{"retailer":"r","currency":"€","link":"l"}]}]`},
		{"negative price", `[{"productName":"x","description":"d","offers":[{"retailer":"r","price":-1,"currency":"€","link":"l"}]}]`},
		{"price as string", `[{"productName":"x","description":"d","offers":[{"retailer":"r","price":"9","currency":"€","link":"l"}]}]`},
		{"unknown field", `[{"productName":"x","description":"d","rating":5,"offers":[{"retailer":"r","price":1,"currency":"€","link":"l"}]}]`},
		{"trailing data", `[] []`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewWithClient(&fakeModels{text: tt.body}, Config{})
			products, err := a.Search(context.Background(), types.CategoryHardware, "RTX 4080")
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrRequest)
			assert.Nil(t, products)
		})
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Config{APIKey: " "})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestSortOffersProperty(t *testing.T) {
	offers := []types.Offer{{Price: 5}, {Price: 0}, {Price: 3.5}, {Price: 3.5}, {Price: 100}, {Price: 1}}
	SortOffers(offers)
	for i := 0; i+1 < len(offers); i++ {
		assert.LessOrEqual(t, offers[i].Price, offers[i+1].Price)
	}
}

func TestSearchRecordsUsage(t *testing.T) {
	rec := &fakeRecorder{}
	a := NewWithClient(&fakeModels{text: fourProducts}, Config{Model: "gemini-2.5-flash"})
	a.SetRecorder(rec)

	_, err := a.Search(context.Background(), types.CategoryHardware, "RTX 4080")
	require.NoError(t, err)
	assert.Equal(t, []recordedUsage{{"gemini-2.5-flash", "PC-Hardware", 90, 410}}, rec.calls)

	// Transport failures record nothing.
	a = NewWithClient(&fakeModels{err: errors.New("unavailable")}, Config{})
	a.SetRecorder(rec)
	_, err = a.Search(context.Background(), types.CategoryHardware, "RTX 4080")
	require.Error(t, err)
	assert.Len(t, rec.calls, 1)
}

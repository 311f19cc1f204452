// Package provider adapts a search intent into a structured-output request
// against the Gemini API and validates the product list it returns.
package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"pricelens/internal/logging"
	"pricelens/internal/types"
)

// ModelClient is the subset of *genai.Models the adapter needs.
type ModelClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config configures the adapter.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Recorder receives token usage of completed requests. *usage.Tracker
// implements it.
type Recorder interface {
	Track(model, category string, input, output int)
}

// Adapter fetches fabricated product comparisons for a category and query.
// Every call goes to the remote service; nothing is cached.
type Adapter struct {
	models      ModelClient
	model       string
	temperature float32
	timeout     time.Duration
	recorder    Recorder
}

// New creates an adapter backed by the genai SDK. It fails with
// types.ErrConfiguration when no API key is available.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: API key is required", types.ErrConfiguration)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create GenAI client: %v", types.ErrConfiguration, err)
	}
	return NewWithClient(client.Models, cfg), nil
}

// NewWithClient creates an adapter around an existing model client.
func NewWithClient(models ModelClient, cfg Config) *Adapter {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Adapter{
		models:      models,
		model:       model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}
}

// SetRecorder installs a usage recorder.
func (a *Adapter) SetRecorder(r Recorder) { a.recorder = r }

// Model returns the configured model name.
func (a *Adapter) Model() string { return a.model }

// Search returns 3-5 products matching query in category, each with offers
// sorted by ascending price. Any transport or schema failure is reported as
// types.ErrRequest with no partial results.
func (a *Adapter) Search(ctx context.Context, category types.Category, query string) ([]types.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, types.ErrEmptyQuery
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownCategory, category)
	}

	if a.timeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.timeout)
			defer cancel()
		}
	}

	start := time.Now()
	logging.APIDebug("GenerateContent: model=%s category=%s query=%q", a.model, category, query)

	resp, err := a.models.GenerateContent(ctx, a.model, genai.Text(buildPrompt(category, query)), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(a.temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   productListSchema(),
	})
	if err != nil {
		logging.APIError("GenerateContent failed after %v: %v", time.Since(start), err)
		return nil, fmt.Errorf("%w: %v", types.ErrRequest, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates returned", types.ErrRequest)
	}
	if a.recorder != nil && resp.UsageMetadata != nil {
		a.recorder.Track(a.model, string(category),
			int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount))
	}

	products, err := decodeProducts(resp.Text())
	if err != nil {
		logging.APIError("invalid product payload: %v", err)
		return nil, err
	}
	if n := len(products); n < 3 || n > 5 {
		logging.APIWarn("model returned %d products, expected 3-5", n)
	}

	logging.API("search completed in %v: category=%s products=%d", time.Since(start), category, len(products))
	return products, nil
}

func buildPrompt(category types.Category, query string) string {
	return fmt.Sprintf(`Fungere als Preisvergleichs-API. Gib eine Liste von 3 bis 5 fiktiven Produkten für die Kategorie "%s" zurück, die zur Suchanfrage "%s" passen. Erfinde realistische Produktnamen, Beschreibungen und Preise in Euro von verschiedenen fiktiven deutschen Online-Händlern. Die Antwort muss ausschließlich ein JSON-Array sein, das dem bereitgestellten Schema entspricht.`, category, query)
}

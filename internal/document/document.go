// Package document turns a captured result image into a single-page A4 PDF
// and encodes it as a self-contained data URI.
package document

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"
)

// MediaType of composed documents.
const MediaType = "application/pdf"

var (
	// ErrInvalidImage is returned when the capture is not a decodable image.
	ErrInvalidImage = errors.New("invalid image")
	// ErrInvalidDocument is returned for payloads that are not a single-page PDF.
	ErrInvalidDocument = errors.New("invalid document")
)

// Options for Compose.
type Options struct {
	Title   string
	Creator string
}

// Compose embeds img as one portrait A4 page. The image spans the page width
// and keeps its aspect ratio; anything taller than the page is clipped.
func Compose(img []byte, opts Options) ([]byte, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("%w: zero-sized image", ErrInvalidImage)
	}

	imageType := "PNG"
	if format == "jpeg" {
		imageType = "JPG"
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if opts.Creator != "" {
		pdf.SetCreator(opts.Creator, true)
	}
	pdf.AddPage()

	pageWidth, _ := pdf.GetPageSize()
	height := float64(cfg.Height) * pageWidth / float64(cfg.Width)

	imgOpts := fpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader("results", imgOpts, bytes.NewReader(img))
	pdf.ImageOptions("results", 0, 0, pageWidth, height, false, imgOpts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return out.Bytes(), nil
}

var pageObject = regexp.MustCompile(`/Type\s*/Page\b`)

// PageCount counts page objects in an uncompressed-xref PDF such as the ones
// Compose produces.
func PageCount(pdf []byte) int {
	return len(pageObject.FindAllIndex(pdf, -1))
}

// Validate checks that data is a complete PDF with exactly one page.
func Validate(data []byte) error {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return fmt.Errorf("%w: missing PDF header", ErrInvalidDocument)
	}
	if !bytes.Contains(data[max(0, len(data)-64):], []byte("%%EOF")) {
		return fmt.Errorf("%w: missing EOF marker", ErrInvalidDocument)
	}
	if n := PageCount(data); n != 1 {
		return fmt.Errorf("%w: %d pages", ErrInvalidDocument, n)
	}
	return nil
}

const dataURIPrefix = "data:" + MediaType + ";filename=generated.pdf;base64,"

// EncodeDataURI wraps a PDF into a data URI.
func EncodeDataURI(pdf []byte) string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString(pdf)
}

// DecodeDataURI extracts the bytes of a base64 data URI.
func DecodeDataURI(uri string) ([]byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, fmt.Errorf("%w: not a data URI", ErrInvalidDocument)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: data URI without payload", ErrInvalidDocument)
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: data URI is not base64", ErrInvalidDocument)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return data, nil
}

package composer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricelens/internal/archive"
	"pricelens/internal/document"
	"pricelens/internal/platform"
	"pricelens/internal/types"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 120; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testStore(t *testing.T) *archive.Store {
	t.Helper()
	kv, err := archive.NewSQLiteKV(":memory:")
	require.NoError(t, err)
	s, err := archive.Open(context.Background(), kv, archive.DefaultKey)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var products = []types.Product{{
	Name:        "NVIDIA GeForce RTX 4080",
	Description: "Grafikkarte mit 16 GB GDDR6X.",
	Offers: []types.Offer{
		{Retailer: "Alternate", Price: 1099, Currency: "EUR", Link: "https://example.com/a"},
		{Retailer: "Mindfactory", Price: 1149.9, Currency: "EUR", Link: "https://example.com/b"},
	},
}}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestExportPrependsValidArtifact(t *testing.T) {
	store := testStore(t)
	fake := &platform.Fake{Image: testPNG(t)}
	now := time.Date(2025, 3, 7, 9, 5, 3, 0, time.Local)
	c := New(fake, store, WithClock(fixedClock(now)))

	require.NoError(t, store.Append(context.Background(), types.Artifact{ID: "old", Name: "old.pdf"}))

	res, err := c.Export(context.Background(), "RTX  4080 Super", products)
	require.NoError(t, err)

	a := res.Artifact
	assert.Equal(t, "Preisvergleich-RTX_4080_Super-"+strconv.FormatInt(now.UnixMilli(), 10)+".pdf", a.Name)
	assert.Equal(t, "07.03.2025, 09:05:03", a.Date)
	assert.Len(t, a.ID, 36)

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, a, list[0])
	assert.Equal(t, "old", list[1].ID)

	pdf, err := document.DecodeDataURI(a.Data)
	require.NoError(t, err)
	require.NoError(t, document.Validate(pdf))

	assert.Equal(t, a.Name, res.DownloadPath)
	assert.Equal(t, pdf, fake.Downloads[a.Name])

	require.Len(t, fake.Captured, 1)
	assert.Contains(t, fake.Captured[0], `id="results"`)
	assert.Contains(t, fake.Captured[0], "Alternate")
}

func TestExportNamesAreUnique(t *testing.T) {
	store := testStore(t)
	fake := &platform.Fake{Image: testPNG(t)}
	now := time.UnixMilli(1700000000000)
	c := New(fake, store, WithClock(fixedClock(now)))

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		res, err := c.Export(context.Background(), "Sony A7", products)
		require.NoError(t, err)
		assert.False(t, seen[res.Artifact.Name], res.Artifact.Name)
		seen[res.Artifact.Name] = true
		assert.False(t, seen[res.Artifact.ID])
		seen[res.Artifact.ID] = true
	}
	assert.True(t, seen["Preisvergleich-Sony_A7-1700000000002.pdf"])
	assert.Equal(t, 3, store.Len())
}

func TestExportEmptyProducts(t *testing.T) {
	store := testStore(t)
	fake := &platform.Fake{Image: testPNG(t)}
	c := New(fake, store)

	_, err := c.Export(context.Background(), "nichts", nil)
	assert.ErrorIs(t, err, types.ErrComposition)
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, fake.Captured)
	assert.Zero(t, fake.DownloadCount())
}

func TestExportCaptureFailureLeavesStoreUnchanged(t *testing.T) {
	store := testStore(t)
	fake := &platform.Fake{CaptureErr: errors.New("browser crashed")}
	c := New(fake, store)

	_, err := c.Export(context.Background(), "RTX 4080", products)
	assert.ErrorIs(t, err, types.ErrComposition)
	assert.Equal(t, "PDF konnte nicht erstellt werden.", types.UserMessage(err))
	assert.Equal(t, 0, store.Len())
	assert.Zero(t, fake.DownloadCount())
}

func TestExportComposeFailure(t *testing.T) {
	store := testStore(t)
	fake := &platform.Fake{Image: []byte("not an image")}
	c := New(fake, store)

	_, err := c.Export(context.Background(), "RTX 4080", products)
	assert.ErrorIs(t, err, types.ErrComposition)
	assert.Equal(t, 0, store.Len())
}

func TestExportDownloadFailureKeepsArtifact(t *testing.T) {
	store := testStore(t)
	fake := &platform.Fake{Image: testPNG(t), DownloadErr: errors.New("read-only")}
	c := New(fake, store)

	res, err := c.Export(context.Background(), "RTX 4080", products)
	require.NoError(t, err)
	assert.Empty(t, res.DownloadPath)
	assert.Equal(t, 1, store.Len())
}

func TestFileNameSanitizesSeparators(t *testing.T) {
	c := New(&platform.Fake{}, nil)
	name := c.fileName(" a/b\\c\td ", time.UnixMilli(5))
	assert.Equal(t, "Preisvergleich-_a_b_c_d_-5.pdf", name)
	assert.False(t, strings.ContainsAny(name, "/\\ "))
}

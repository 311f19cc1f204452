package downloads

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pricelens/internal/archive"
	"pricelens/internal/document"
	"pricelens/internal/platform"
	"pricelens/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func pdfFixture(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 60))))
	pdf, err := document.Compose(buf.Bytes(), document.Options{})
	require.NoError(t, err)
	return pdf
}

func setup(t *testing.T, fake *platform.Fake, names ...string) (*Manager, *archive.Store, []byte) {
	t.Helper()
	ctx := context.Background()
	kv, err := archive.NewSQLiteKV(":memory:")
	require.NoError(t, err)
	store, err := archive.Open(ctx, kv, archive.DefaultKey)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	pdf := pdfFixture(t)
	// Appended in reverse so the list order matches names.
	for i := len(names) - 1; i >= 0; i-- {
		require.NoError(t, store.Append(ctx, types.Artifact{
			ID:   names[i],
			Name: names[i] + ".pdf",
			Date: "01.01.2025, 10:00:00",
			Data: document.EncodeDataURI(pdf),
		}))
	}
	return New(store, fake, 2), store, pdf
}

func TestListAndCount(t *testing.T) {
	m, _, _ := setup(t, &platform.Fake{}, "c", "b", "a")
	assert.Equal(t, 3, m.Count())
	assert.Len(t, m.List(), m.Count())
	assert.Equal(t, "c", m.List()[0].ID)
}

func TestDownload(t *testing.T) {
	fake := &platform.Fake{}
	m, _, pdf := setup(t, fake, "a")

	path, err := m.Download("a")
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", path)
	assert.Equal(t, pdf, fake.Downloads["a.pdf"])

	_, err = m.Download("missing")
	assert.ErrorIs(t, err, types.ErrArtifactNotFound)
}

func TestDownloadAll(t *testing.T) {
	fake := &platform.Fake{}
	m, _, _ := setup(t, fake, "e", "d", "c", "b", "a")

	paths, err := m.DownloadAll(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"e.pdf", "d.pdf", "c.pdf", "b.pdf", "a.pdf"}, paths); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 5, fake.DownloadCount())
}

func TestDownloadAllFailure(t *testing.T) {
	fake := &platform.Fake{DownloadErr: errors.New("disk full")}
	m, _, _ := setup(t, fake, "b", "a")

	_, err := m.DownloadAll(context.Background())
	assert.Error(t, err)
}

func TestShareUnsupported(t *testing.T) {
	fake := &platform.Fake{}
	m, store, _ := setup(t, fake, "a")
	before := store.List()

	assert.False(t, m.CanShare())
	err := m.Share(context.Background(), "a")
	assert.ErrorIs(t, err, types.ErrShareUnsupported)
	assert.Equal(t, before, store.List())
}

func TestShare(t *testing.T) {
	fake := &platform.Fake{Sharing: true}
	m, store, pdf := setup(t, fake, "a")
	before := store.List()

	require.NoError(t, m.Share(context.Background(), "a"))
	require.Len(t, fake.Shared, 1)
	assert.Equal(t, platform.File{Name: "a.pdf", MediaType: "application/pdf", Data: pdf}, fake.Shared[0])
	assert.Equal(t, before, store.List())
}

func TestShareFailed(t *testing.T) {
	fake := &platform.Fake{Sharing: true, ShareErr: errors.New("cancelled")}
	m, store, _ := setup(t, fake, "a")
	before := store.List()

	err := m.Share(context.Background(), "a")
	assert.ErrorIs(t, err, types.ErrShareFailed)
	assert.Equal(t, "PDF konnte nicht geteilt werden.", types.UserMessage(err))
	assert.Equal(t, before, store.List())
}

func TestShareCorruptPayload(t *testing.T) {
	fake := &platform.Fake{Sharing: true}
	m, store, _ := setup(t, fake)
	require.NoError(t, store.Append(context.Background(), types.Artifact{ID: "x", Name: "x.pdf", Data: "garbage"}))

	err := m.Share(context.Background(), "x")
	assert.ErrorIs(t, err, types.ErrShareFailed)
	assert.Empty(t, fake.Shared)
}

func TestDeletePreservesOrder(t *testing.T) {
	m, _, _ := setup(t, &platform.Fake{}, "d", "c", "b", "a")
	ctx := context.Background()

	require.NoError(t, m.Delete(ctx, "c"))
	require.NoError(t, m.Delete(ctx, "unknown"))

	var got []string
	for _, a := range m.List() {
		got = append(got, a.ID)
	}
	assert.Equal(t, []string{"d", "b", "a"}, got)
	assert.Equal(t, 3, m.Count())
}

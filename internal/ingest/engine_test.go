package ingest

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dropd/internal/config"
	serr "dropd/internal/errors"
	"dropd/internal/payload"
	"dropd/pkg/testutils"
	"dropd/pkg/types"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	cfg := config.NewTestConfig()
	dest := t.TempDir()
	cfg.Directories.Default = dest

	e, err := New(cfg)
	require.NoError(t, err)
	return e, dest
}

func collectResults(t *testing.T, e *Engine, n int) []DropResult {
	t.Helper()
	results := make([]DropResult, 0, n)
	timeout := time.After(5 * time.Second)
	for len(results) < n {
		select {
		case r := <-e.Results():
			results = append(results, r)
		case <-timeout:
			t.Fatalf("timeout: got %d of %d drop results", len(results), n)
		}
	}
	return results
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	sort.Strings(names)
	return names
}

func TestAcceptFileDrop(t *testing.T) {
	e, dest := newTestEngine(t)
	defer e.Close()

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "report.pdf")
	require.NoError(t, os.WriteFile(src, []byte("pdf bytes"), 0644))

	ok := e.Accept([]types.PayloadProvider{payload.NewFileProvider(src)})
	assert.True(t, ok)

	results := collectResults(t, e, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, filepath.Join(dest, "report.pdf"), results[0].Path)

	data, err := os.ReadFile(results[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))

	// The source is untouched; drops copy, they never move.
	_, err = os.Stat(src)
	assert.NoError(t, err)
}

func TestAcceptIsOptimistic(t *testing.T) {
	e, _ := newTestEngine(t)
	defer e.Close()

	// Nothing usable: no drop starts.
	assert.False(t, e.Accept(nil))
	assert.False(t, e.Accept([]types.PayloadProvider{&testutils.ScriptedProvider{}}))

	// One empty and one usable provider: accepted, even though the usable
	// one will fail later in the pipeline.
	ok := e.Accept([]types.PayloadProvider{
		&testutils.ScriptedProvider{},
		&testutils.ScriptedProvider{Identifiers: []string{"public.text"}},
	})
	assert.True(t, ok, "accept answers before the pipeline runs")

	results := collectResults(t, e, 1)
	assert.Error(t, results[0].Err)
}

func TestCollisionNumberingAcrossDrops(t *testing.T) {
	e, dest := newTestEngine(t)
	defer e.Close()

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "photo.png")
	require.NoError(t, os.WriteFile(src, []byte{0x89}, 0644))

	for i := 0; i < 3; i++ {
		require.True(t, e.Accept([]types.PayloadProvider{payload.NewFileProvider(src)}))
		results := collectResults(t, e, 1)
		require.NoError(t, results[0].Err)
	}

	assert.Equal(t, []string{"photo (1).png", "photo (2).png", "photo.png"}, listNames(t, dest))
}

func TestAcceptTextDrop(t *testing.T) {
	e, dest := newTestEngine(t)
	defer e.Close()

	ok := e.Accept([]types.PayloadProvider{payload.NewTextProvider("meeting notes", "")})
	require.True(t, ok)

	results := collectResults(t, e, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, filepath.Join(dest, "dropped_file.txt"), results[0].Path)

	data, err := os.ReadFile(results[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "meeting notes", string(data))
}

func TestAcceptBytesDrop(t *testing.T) {
	e, dest := newTestEngine(t)
	defer e.Close()

	ok := e.Accept([]types.PayloadProvider{
		payload.NewBytesProvider([]byte{0x89, 0x50}, "image/png", ""),
	})
	require.True(t, ok)

	results := collectResults(t, e, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, filepath.Join(dest, "dropped_image.png"), results[0].Path)
}

func TestAcceptBytesSniffsUnknownIdentifier(t *testing.T) {
	e, _ := newTestEngine(t)
	defer e.Close()

	pngMagic := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 64)...)
	ok := e.Accept([]types.PayloadProvider{
		payload.NewBytesProvider(pngMagic, "x-vendor-blob", ""),
	})
	require.True(t, ok)

	results := collectResults(t, e, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, ".png", filepath.Ext(results[0].Path),
		"unrecognized identifiers fall back to content sniffing")
}

func TestAcceptRemoteDrop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="cat.gif"`)
		w.Write([]byte("GIF89a"))
	}))
	defer server.Close()

	e, dest := newTestEngine(t)
	defer e.Close()

	// Pre-existing name forces the collision loop on the fetched name.
	require.NoError(t, os.WriteFile(filepath.Join(dest, "cat.gif"), []byte("old"), 0644))

	ok := e.Accept([]types.PayloadProvider{payload.NewURLProvider(server.URL + "/x")})
	require.True(t, ok)

	results := collectResults(t, e, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, filepath.Join(dest, "cat (1).gif"), results[0].Path)

	data, err := os.ReadFile(results[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "GIF89a", string(data))
}

func TestAcceptRejectedSchemeWritesNothing(t *testing.T) {
	e, dest := newTestEngine(t)
	defer e.Close()

	ok := e.Accept([]types.PayloadProvider{payload.NewURLProvider("ftp://example.com/x")})
	assert.True(t, ok, "accept is optimistic; the scheme check happens later")

	results := collectResults(t, e, 1)
	require.Error(t, results[0].Err)
	assert.True(t, serr.IsNetworkFetchFailed(results[0].Err))
	assert.Empty(t, results[0].Path)
	assert.Empty(t, listNames(t, dest), "a failed fetch must not leave a file behind")
}

func TestTemporarySourceCleanedUp(t *testing.T) {
	e, dest := newTestEngine(t)
	defer e.Close()

	tmp, err := os.CreateTemp(t.TempDir(), "staged-*.txt")
	require.NoError(t, err)
	_, err = tmp.WriteString("staged content")
	require.NoError(t, err)
	require.NoError(t, tmp.Close())

	provider := &testutils.ScriptedProvider{
		Identifiers: []string{"public.text"},
		Name:        "note.txt",
		TempPaths:   map[string]string{"public.text": tmp.Name()},
	}

	require.True(t, e.Accept([]types.PayloadProvider{provider}))
	results := collectResults(t, e, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, filepath.Join(dest, "note.txt"), results[0].Path)

	_, err = os.Stat(tmp.Name())
	assert.True(t, os.IsNotExist(err), "the temporary source is consumed by the drop")
}

func TestSuggestedNameCannotEscapeDestination(t *testing.T) {
	e, dest := newTestEngine(t)
	defer e.Close()

	provider := &testutils.ScriptedProvider{
		Identifiers: []string{"public.text"},
		Name:        "../../evil.txt",
		Items: map[string]types.RuntimeValue{
			"public.text": types.TextValue{Text: "payload"},
		},
	}

	require.True(t, e.Accept([]types.PayloadProvider{provider}))
	results := collectResults(t, e, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, filepath.Join(dest, "evil.txt"), results[0].Path)
}

func TestExhaustedDropReportsError(t *testing.T) {
	e, dest := newTestEngine(t)
	defer e.Close()

	provider := &testutils.ScriptedProvider{Identifiers: []string{"public.heic", "image/png"}}
	require.True(t, e.Accept([]types.PayloadProvider{provider}))

	results := collectResults(t, e, 1)
	require.Error(t, results[0].Err)
	assert.True(t, serr.IsNegotiationExhausted(results[0].Err))
	assert.Empty(t, listNames(t, dest))
}

func TestConcurrentDropsAllLand(t *testing.T) {
	e, dest := newTestEngine(t)
	defer e.Close()

	providers := make([]types.PayloadProvider, 8)
	for i := range providers {
		providers[i] = payload.NewTextProvider("item", "")
	}
	require.True(t, e.Accept(providers))

	results := collectResults(t, e, len(providers))
	for _, r := range results {
		require.NoError(t, r.Err)
	}
	assert.Len(t, listNames(t, dest), len(providers))
}

func TestAcceptIntoSubdirectory(t *testing.T) {
	e, dest := newTestEngine(t)
	defer e.Close()

	sub := filepath.Join(dest, "inbox")
	require.NoError(t, os.Mkdir(sub, 0755))

	require.True(t, e.AcceptInto(sub, []types.PayloadProvider{payload.NewTextProvider("x", "memo.txt")}))
	results := collectResults(t, e, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, filepath.Join(sub, "memo.txt"), results[0].Path)
}

func TestCloseRejectsFurtherDrops(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Close()

	assert.False(t, e.Accept([]types.PayloadProvider{payload.NewTextProvider("x", "")}))

	_, open := <-e.Results()
	assert.False(t, open, "results channel closes with the engine")

	// Closing twice is harmless.
	e.Close()
}

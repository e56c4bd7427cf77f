package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"dropd/internal/config"
	"dropd/internal/errors"
	"dropd/internal/fetch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher() *fetch.Fetcher {
	return fetch.NewWithConfig(config.NewTestConfig())
}

func TestFetchFilenameFromURLSegment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/gif")
		w.Write([]byte("GIF89a-data"))
	}))
	defer server.Close()

	data, name, err := newTestFetcher().Fetch(context.Background(), server.URL+"/files/cat.gif")
	require.NoError(t, err)
	assert.Equal(t, []byte("GIF89a-data"), data)
	assert.Equal(t, "cat.gif", name)
}

func TestFetchFilenameFromContentDisposition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="cat.gif"`)
		w.Write([]byte("gif-bytes"))
	}))
	defer server.Close()

	// The URL path has no usable segment, so the header wins
	data, name, err := newTestFetcher().Fetch(context.Background(), server.URL+"/x")
	require.NoError(t, err)
	assert.Equal(t, []byte("gif-bytes"), data)
	assert.Equal(t, "cat.gif", name)
}

func TestFetchFilenameRFC5987(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''na%C3%AFve.png")
		w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	_, name, err := newTestFetcher().Fetch(context.Background(), server.URL+"/download")
	require.NoError(t, err)
	assert.Equal(t, "naïve.png", name)
}

func TestFetchFilenameFromContentType(t *testing.T) {
	t.Run("known content type", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("png-bytes"))
		}))
		defer server.Close()

		_, name, err := newTestFetcher().Fetch(context.Background(), server.URL+"/download")
		require.NoError(t, err)
		assert.Equal(t, "downloaded_file.png", name)
	})

	t.Run("unknown content type gets no extension", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/x-mystery")
			w.Write([]byte("data"))
		}))
		defer server.Close()

		_, name, err := newTestFetcher().Fetch(context.Background(), server.URL+"/download")
		require.NoError(t, err)
		assert.Equal(t, "downloaded_file", name)
	})
}

func TestFetchRejectsNonHTTPSchemes(t *testing.T) {
	for _, rawURL := range []string{
		"ftp://example.com/x",
		"file:///etc/passwd",
		"gopher://example.com/1",
	} {
		data, name, err := newTestFetcher().Fetch(context.Background(), rawURL)
		require.Error(t, err, "scheme of %s must be rejected", rawURL)
		assert.True(t, errors.IsNetworkFetchFailed(err))
		assert.True(t, errors.IsUnsupportedScheme(err))
		assert.Nil(t, data)
		assert.Empty(t, name)
	}
}

func TestFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	data, _, err := newTestFetcher().Fetch(context.Background(), server.URL+"/missing.png")
	require.Error(t, err)
	assert.True(t, errors.IsNetworkFetchFailed(err))
	assert.False(t, errors.IsUnsupportedScheme(err))
	assert.Nil(t, data)
}

func TestFetchHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("never read"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already cancelled

	_, _, err := newTestFetcher().Fetch(ctx, server.URL+"/a.txt")
	require.Error(t, err)
	assert.True(t, errors.IsNetworkFetchFailed(err))
}

func TestFetchSendsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	cfg := config.NewTestConfig()
	cfg.Network.UserAgent = "dropd-test-agent"
	_, _, err := fetch.NewWithConfig(cfg).Fetch(context.Background(), server.URL+"/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "dropd-test-agent", gotUA)
}

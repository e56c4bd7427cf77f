// Package fetch retrieves remote content over HTTP(S) and infers a
// destination filename from the URL and the response headers. Any scheme
// other than http or https is rejected before a connection is attempted.
package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"dropd/internal/config"
	serr "dropd/internal/errors"
	log "dropd/internal/log"
)

// GenericName is the filename used when nothing better can be inferred.
const GenericName = "downloaded_file"

// contentTypeExts maps the response content types the fetcher knows into
// extensions for the generic fallback name.
var contentTypeExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Fetcher downloads remote content referenced by dropped URLs.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New creates a fetcher with the default deadline.
func New() *Fetcher {
	return NewWithConfig(config.New())
}

// NewWithConfig creates a fetcher honoring the configured network timeout
// and User-Agent. A zero timeout leaves transfers unbounded.
func NewWithConfig(cfg *config.Config) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.NetworkTimeout()},
		userAgent: cfg.Network.UserAgent,
	}
}

// Fetch retrieves rawURL and returns the body along with an inferred
// filename. The filename is never empty: inference falls back from the URL's
// last path segment, to the Content-Disposition header, to a generic name
// with an extension taken from the Content-Type. On any failure nothing is
// written anywhere and the returned bytes are nil.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", serr.NewFetchError("invalid url", rawURL, serr.NetworkFetchFailed, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, "", serr.NewFetchError("unsupported url scheme", rawURL, serr.UnsupportedScheme, nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", serr.NewFetchError("cannot build request", rawURL, serr.NetworkFetchFailed, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", serr.NewFetchError("download failed", rawURL, serr.NetworkFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", serr.NewFetchError("server returned "+resp.Status, rawURL, serr.NetworkFetchFailed, nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", serr.NewFetchError("reading response body failed", rawURL, serr.NetworkFetchFailed, err)
	}

	name := inferFilename(u, resp.Header)
	log.LogWithFields(
		log.F("url", rawURL),
		log.F("bytes", len(data)),
		log.F("filename", name),
		log.F("elapsed", time.Since(start).Round(time.Millisecond).String()),
	).Info("Remote content fetched")

	return data, name, nil
}

// inferFilename picks the output filename from the URL path, the
// Content-Disposition header, or the Content-Type, in that order.
func inferFilename(u *url.URL, header http.Header) string {
	// (a) last URL path segment, when it looks like a filename
	if segment := path.Base(u.Path); strings.Contains(segment, ".") && segment != "." && segment != ".." {
		return segment
	}

	// (b) Content-Disposition filename token
	if name := dispositionFilename(header.Get("Content-Disposition")); name != "" {
		return name
	}

	// (c) generic name, extension from the Content-Type when known
	ct := header.Get("Content-Type")
	if semi := strings.IndexByte(ct, ';'); semi >= 0 {
		ct = ct[:semi]
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	return GenericName + contentTypeExts[ct]
}

// dispositionFilename extracts a filename from a Content-Disposition header,
// preferring the RFC 5987 filename* form over the plain token.
func dispositionFilename(cd string) string {
	if cd == "" {
		return ""
	}
	lcd := strings.ToLower(cd)
	if idx := strings.Index(lcd, "filename*="); idx >= 0 {
		v := cd[idx+len("filename*="):]
		if strings.HasPrefix(strings.ToLower(v), "utf-8''") {
			v = v[len("utf-8''"):]
		}
		if semi := strings.IndexByte(v, ';'); semi >= 0 {
			v = v[:semi]
		}
		name, _ := url.QueryUnescape(strings.Trim(v, "\"' "))
		return name
	}
	if idx := strings.Index(lcd, "filename="); idx >= 0 {
		v := cd[idx+len("filename="):]
		if semi := strings.IndexByte(v, ';'); semi >= 0 {
			v = v[:semi]
		}
		return strings.Trim(v, "\"' ")
	}
	return ""
}

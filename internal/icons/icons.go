package icons

import (
	"image"
	"path/filepath"
	"strings"

	"dropd/internal/config"
	serr "dropd/internal/errors"
	"dropd/pkg/types"
)

// extGlyphs maps common extensions onto display glyphs for the browser.
var extGlyphs = map[string]string{
	".png":  "🖼",
	".jpg":  "🖼",
	".jpeg": "🖼",
	".gif":  "🖼",
	".bmp":  "🖼",
	".tiff": "🖼",
	".webp": "🖼",
	".heic": "🖼",
	".txt":  "📄",
	".md":   "📄",
	".pdf":  "📕",
	".zip":  "📦",
	".gz":   "📦",
	".tar":  "📦",
	".mp3":  "🎵",
	".flac": "🎵",
	".wav":  "🎵",
	".mp4":  "🎬",
	".mkv":  "🎬",
	".mov":  "🎬",
}

const (
	dirGlyph     = "📁"
	genericGlyph = "📄"
)

// Provider implements types.IconProvider: cheap glyphs for every entry,
// with real thumbnail renders for image files when enabled.
type Provider struct {
	thumbs *Thumbnailer
}

// NewProvider builds an icon provider; thumbnail rendering is attached
// only when configuration asks for it.
func NewProvider(cfg *config.Config) *Provider {
	p := &Provider{}
	if cfg.Icons.Thumbnails {
		p.thumbs = NewThumbnailer(cfg)
	}
	return p
}

// Icon returns the display glyph for an entry.
func (p *Provider) Icon(entry types.DirectoryEntry) string {
	if entry.IsDir {
		return dirGlyph
	}
	if glyph, ok := extGlyphs[strings.ToLower(filepath.Ext(entry.Name))]; ok {
		return glyph
	}
	return genericGlyph
}

// Thumbnail renders a preview for the image at path. When rendering is
// disabled or fails, callers fall back to the glyph from Icon.
func (p *Provider) Thumbnail(path string, size int) (image.Image, error) {
	if p.thumbs == nil {
		return nil, serr.NewKind("thumbnail rendering disabled", serr.Unknown)
	}
	return p.thumbs.Thumbnail(path, size)
}

var _ types.IconProvider = (*Provider)(nil)

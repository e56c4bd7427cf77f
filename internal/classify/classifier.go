// Package classify maps content type identifiers to a coarse category and a
// filename extension. The built-in table covers the well-known image formats;
// everything else goes through a MIME lookup and falls back to generic binary
// handling.
package classify

import (
	"mime"
	"net/http"
	"sort"
	"strings"

	"dropd/internal/config"
	serr "dropd/internal/errors"
	log "dropd/internal/log"
	"dropd/pkg/types"

	"github.com/gobwas/glob"
)

// imageTable maps well-known image identifiers to their extension. Keys are
// lowercase; both MIME names and the corresponding platform type identifiers
// are listed.
var imageTable = map[string]string{
	"image/png":            ".png",
	"public.png":           ".png",
	"png":                  ".png",
	"image/jpeg":           ".jpg",
	"image/jpg":            ".jpg",
	"public.jpeg":          ".jpg",
	"jpeg":                 ".jpg",
	"jpg":                  ".jpg",
	"image/gif":            ".gif",
	"com.compuserve.gif":   ".gif",
	"gif":                  ".gif",
	"image/tiff":           ".tiff",
	"public.tiff":          ".tiff",
	"tiff":                 ".tiff",
	"image/webp":           ".webp",
	"org.webmproject.webp": ".webp",
	"webp":                 ".webp",
	"image/heic":           ".heic",
	"public.heic":          ".heic",
	"heic":                 ".heic",
}

// preferredExts pins extensions for common MIME types where the system MIME
// database offers several, or none at all. Octet-stream is pinned to no
// extension: unknown binary content must not inherit whatever the local
// mime.types maps it to.
var preferredExts = map[string]string{
	"text/plain":               ".txt",
	"text/html":                ".html",
	"text/markdown":            ".md",
	"application/pdf":          ".pdf",
	"application/json":         ".json",
	"application/zip":          ".zip",
	"application/octet-stream": "",
}

type compiledRule struct {
	pattern   glob.Glob
	category  types.Category
	extension string
}

// Engine classifies type identifiers. User-configured rules are checked
// ahead of the built-in table.
type Engine struct {
	config *config.Config
	rules  []compiledRule
}

// New creates a classification engine with no user rules.
func New() *Engine {
	return &Engine{}
}

// NewWithConfig creates a classification engine and compiles the user rules
// from cfg. Rules that fail to compile are skipped with a warning; LoadConfig
// validation normally rejects them earlier.
func NewWithConfig(cfg *config.Config) *Engine {
	engine := New()
	engine.SetConfig(cfg)
	return engine
}

// SetConfig replaces the engine's configuration and recompiles user rules.
func (e *Engine) SetConfig(cfg *config.Config) {
	e.config = cfg
	e.rules = e.rules[:0]
	if cfg == nil {
		return
	}
	for _, rule := range cfg.Classify.Rules {
		g, err := glob.Compile(rule.Pattern)
		if err != nil {
			log.LogWithFields(log.F("pattern", rule.Pattern)).Warnf("skipping unparseable classify rule: %v", err)
			continue
		}
		category := types.Category(rule.Category)
		if category == "" {
			category = types.CategoryGeneric
		}
		e.rules = append(e.rules, compiledRule{
			pattern:   g,
			category:  category,
			extension: rule.Extension,
		})
	}
}

// Classify maps a type identifier to its category and extension. Unrecognized
// identifiers default to generic binary handling: the returned TypeInfo is
// always usable, and the error (kind ClassificationUnknown) only reports that
// the default was taken.
func (e *Engine) Classify(identifier string) (types.TypeInfo, error) {
	id := strings.ToLower(strings.TrimSpace(identifier))
	if id == "" {
		return types.TypeInfo{Category: types.CategoryGeneric}, serr.ErrClassificationUnknown
	}

	// User rules win over the built-in table.
	for _, rule := range e.rules {
		if !rule.pattern.Match(id) {
			continue
		}
		info := types.TypeInfo{Category: rule.category, Extension: rule.extension}
		if info.Extension == "" {
			info.Extension = builtinExtension(id)
		}
		return info, nil
	}

	if ext, ok := imageTable[id]; ok {
		return types.TypeInfo{Category: types.CategoryImage, Extension: ext}, nil
	}

	// MIME-shaped identifiers: strip parameters, classify by prefix, look up
	// an extension.
	if strings.Contains(id, "/") {
		mt := id
		if parsed, _, err := mime.ParseMediaType(id); err == nil {
			mt = parsed
		}
		category := types.CategoryGeneric
		if strings.HasPrefix(mt, "image/") {
			category = types.CategoryImage
		}
		return types.TypeInfo{Category: category, Extension: mimeExtension(mt)}, nil
	}

	log.LogWithFields(log.F("identifier", identifier)).Debug("unrecognized type identifier, using generic handling")
	return types.TypeInfo{Category: types.CategoryGeneric}, serr.ErrClassificationUnknown
}

// SniffData classifies in-memory bytes by their leading magic, for content
// whose declared identifier was unrecognized.
func (e *Engine) SniffData(data []byte) types.TypeInfo {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	contentType := http.DetectContentType(head)
	info, _ := e.Classify(contentType)
	return info
}

func builtinExtension(id string) string {
	if ext, ok := imageTable[id]; ok {
		return ext
	}
	if strings.Contains(id, "/") {
		return mimeExtension(id)
	}
	return ""
}

func mimeExtension(mt string) string {
	if ext, ok := preferredExts[mt]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(mt)
	if err != nil || len(exts) == 0 {
		return ""
	}
	sort.Strings(exts)
	return exts[0]
}

// Package naming computes collision-free destination paths inside a target
// directory. Preferred names from drag sources are untrusted: path separator
// components are stripped before any filesystem check.
package naming

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	serr "dropd/internal/errors"
	"dropd/pkg/types"
)

// maxRenameAttempts bounds the collision counter.
const maxRenameAttempts = 1000

// Sanitize reduces an untrusted preferred name to a bare filename. Anything
// up to the last path separator (either flavor) is dropped, and names that
// are only directory references collapse to "".
func Sanitize(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	switch name {
	case ".", "..":
		return ""
	}
	return name
}

// DefaultBase synthesizes a base name for content that arrived without one.
func DefaultBase(category types.Category) string {
	if category == types.CategoryImage {
		return "dropped_image"
	}
	return "dropped_file"
}

// buildBase combines the sanitized preferred name, the category default, and
// the extension hint into the first candidate filename.
func buildBase(preferred string, category types.Category, extHint string) string {
	base := Sanitize(preferred)
	if base == "" {
		base = DefaultBase(category)
	}
	if filepath.Ext(base) == "" && extHint != "" {
		base += extHint
	}
	return base
}

// Name computes a collision-free path for the preferred name inside dir.
// On collision the candidate is rewritten as "<base> (<n>)<ext>" for n
// counting up from 1, re-checking existence each time. The returned path is
// free at check time only; writers that need the check and the create to be
// one step use CreateExclusive.
func Name(dir, preferred string, category types.Category, extHint string) (string, error) {
	first := filepath.Join(dir, buildBase(preferred, category, extHint))
	ext := filepath.Ext(first)
	stem := strings.TrimSuffix(first, ext)

	for counter := 0; counter <= maxRenameAttempts; counter++ {
		candidate := first
		if counter > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, counter, ext)
		}
		_, err := os.Stat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", serr.NewFileError("cannot check destination", candidate, serr.FileAccessDenied, err)
		}
	}

	return "", serr.NewFileError("no free name after renaming attempts", first, serr.FileCreateFailed, nil)
}

// CreateExclusive creates and opens the first free candidate path with
// O_CREATE|O_EXCL, so the existence check and the create cannot race. A
// candidate that gains a file between iterations simply advances the counter.
// The caller owns the returned file handle.
func CreateExclusive(dir, preferred string, category types.Category, extHint string) (string, *os.File, error) {
	first := filepath.Join(dir, buildBase(preferred, category, extHint))
	ext := filepath.Ext(first)
	stem := strings.TrimSuffix(first, ext)

	for counter := 0; counter <= maxRenameAttempts; counter++ {
		candidate := first
		if counter > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, counter, ext)
		}
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return candidate, f, nil
		}
		if !serr.Is(err, fs.ErrExist) {
			return "", nil, serr.NewFileError("cannot create destination file", candidate, serr.WriteFailed, err)
		}
	}

	return "", nil, serr.NewFileError("no free name after renaming attempts", first, serr.FileCreateFailed, nil)
}

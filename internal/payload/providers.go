package payload

import (
	"context"
	"io"
	"os"
	"path/filepath"

	serr "dropd/internal/errors"
	"dropd/pkg/types"
)

// FileProvider offers a file that already exists on disk. It is the
// provider behind local file arguments and file drags.
type FileProvider struct {
	path    string
	staging string
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// NewStagedFileProvider keeps temporary copies under staging instead of
// the system temp directory.
func NewStagedFileProvider(path, staging string) *FileProvider {
	return &FileProvider{path: path, staging: staging}
}

func (p *FileProvider) RegisteredTypeIdentifiers() []string {
	return []string{types.TypeFileReference}
}

func (p *FileProvider) SuggestedName() string {
	return filepath.Base(p.path)
}

// LoadInPlace hands out the original path after checking it is readable.
func (p *FileProvider) LoadInPlace(ctx context.Context, identifier string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := os.Stat(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", serr.NewFileError("source file missing", p.path, serr.FileNotFound, err)
		}
		return "", serr.NewFileError("checking source file", p.path, serr.FileAccessDenied, err)
	}
	if info.IsDir() {
		return "", serr.NewFileError("source is a directory", p.path, serr.InvalidPath, nil)
	}
	return p.path, nil
}

// LoadTemporary copies the file into the staging directory (the system
// temp directory when none is set) so the caller gets a path it may
// consume destructively.
func (p *FileProvider) LoadTemporary(ctx context.Context, identifier string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, err := os.Open(p.path)
	if err != nil {
		return "", serr.NewFileError("opening source file", p.path, serr.FileAccessDenied, err)
	}
	defer src.Close()

	if p.staging != "" {
		if err := os.MkdirAll(p.staging, 0755); err != nil {
			return "", serr.NewFileError("creating staging directory", p.staging, serr.FileCreateFailed, err)
		}
	}
	tmp, err := os.CreateTemp(p.staging, "dropd-*"+filepath.Ext(p.path))
	if err != nil {
		return "", serr.WrapKind(err, "creating temporary copy", serr.FileCreateFailed)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", serr.NewFileError("copying to temporary file", tmp.Name(), serr.WriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", serr.NewFileError("closing temporary file", tmp.Name(), serr.WriteFailed, err)
	}
	return tmp.Name(), nil
}

func (p *FileProvider) LoadItem(ctx context.Context, identifier string) (types.RuntimeValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(p.path)
	if err != nil {
		return nil, serr.NewResolveError("resolving file path", identifier, serr.RepresentationLoadFailed, err)
	}
	return types.URLValue{URL: "file://" + abs}, nil
}

// URLProvider offers a remote URL. Only the item strategy works; there is
// no local file until the fetcher downloads one.
type URLProvider struct {
	url string
}

func NewURLProvider(url string) *URLProvider {
	return &URLProvider{url: url}
}

func (p *URLProvider) RegisteredTypeIdentifiers() []string {
	return []string{types.TypeURL}
}

func (p *URLProvider) SuggestedName() string {
	return ""
}

func (p *URLProvider) LoadInPlace(ctx context.Context, identifier string) (string, error) {
	return "", serr.NewResolveError("URL payload is not file-backed", identifier, serr.RepresentationLoadFailed, nil)
}

func (p *URLProvider) LoadTemporary(ctx context.Context, identifier string) (string, error) {
	return "", serr.NewResolveError("URL payload is not file-backed", identifier, serr.RepresentationLoadFailed, nil)
}

func (p *URLProvider) LoadItem(ctx context.Context, identifier string) (types.RuntimeValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return types.URLValue{URL: p.url}, nil
}

// TextProvider offers a plain string, for pasted or piped text.
type TextProvider struct {
	text string
	name string
}

func NewTextProvider(text, name string) *TextProvider {
	return &TextProvider{text: text, name: name}
}

func (p *TextProvider) RegisteredTypeIdentifiers() []string {
	return []string{types.TypeText}
}

func (p *TextProvider) SuggestedName() string {
	return p.name
}

func (p *TextProvider) LoadInPlace(ctx context.Context, identifier string) (string, error) {
	return "", serr.NewResolveError("text payload is not file-backed", identifier, serr.RepresentationLoadFailed, nil)
}

func (p *TextProvider) LoadTemporary(ctx context.Context, identifier string) (string, error) {
	return "", serr.NewResolveError("text payload is not file-backed", identifier, serr.RepresentationLoadFailed, nil)
}

func (p *TextProvider) LoadItem(ctx context.Context, identifier string) (types.RuntimeValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return types.TextValue{Text: p.text}, nil
}

// BytesProvider offers an in-memory buffer under a declared type
// identifier, for stdin pipes and clipboard-style payloads.
type BytesProvider struct {
	data       []byte
	identifier string
	name       string
}

func NewBytesProvider(data []byte, identifier, name string) *BytesProvider {
	return &BytesProvider{data: data, identifier: identifier, name: name}
}

func (p *BytesProvider) RegisteredTypeIdentifiers() []string {
	if p.identifier == "" {
		return []string{types.TypeRawBytes}
	}
	return []string{p.identifier}
}

func (p *BytesProvider) SuggestedName() string {
	return p.name
}

func (p *BytesProvider) LoadInPlace(ctx context.Context, identifier string) (string, error) {
	return "", serr.NewResolveError("byte payload is not file-backed", identifier, serr.RepresentationLoadFailed, nil)
}

func (p *BytesProvider) LoadTemporary(ctx context.Context, identifier string) (string, error) {
	return "", serr.NewResolveError("byte payload is not file-backed", identifier, serr.RepresentationLoadFailed, nil)
}

func (p *BytesProvider) LoadItem(ctx context.Context, identifier string) (types.RuntimeValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return types.DataValue{Data: p.data, Identifier: p.identifier}, nil
}

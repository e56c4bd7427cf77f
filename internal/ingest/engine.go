package ingest

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"dropd/internal/classify"
	"dropd/internal/config"
	serr "dropd/internal/errors"
	"dropd/internal/fetch"
	"dropd/internal/log"
	"dropd/internal/naming"
	"dropd/internal/payload"
	"dropd/pkg/types"
)

// DropResult reports how one drop's pipeline run ended. Path is the
// written artifact on success and empty on failure.
type DropResult struct {
	ID   string
	Path string
	Err  error
}

// Engine runs the drop pipeline: negotiate each provider, resolve the
// winning representation, classify it, pick a collision-free name, and
// write exactly one artifact into the destination directory. Every drop
// runs on its own goroutine; drops never share locks and may interleave
// freely.
type Engine struct {
	cfg        *config.Config
	chain      *payload.Chain
	classifier *classify.Engine
	fetcher    *fetch.Fetcher
	dest       string

	results chan DropResult
	wg      sync.WaitGroup

	mutex  sync.Mutex
	closed bool
}

// New builds an engine from configuration and makes sure the default
// destination directory exists.
func New(cfg *config.Config) (*Engine, error) {
	dest := cfg.DestinationDir()
	if err := os.MkdirAll(dest, 0755); err != nil {
		return nil, serr.NewFileError("creating destination directory", dest, serr.FileCreateFailed, err)
	}

	return &Engine{
		cfg:        cfg,
		chain:      payload.NewChainWithConfig(cfg),
		classifier: classify.NewWithConfig(cfg),
		fetcher:    fetch.NewWithConfig(cfg),
		dest:       dest,
		results:    make(chan DropResult, 16),
	}, nil
}

// Results delivers one DropResult per accepted drop. Callers must drain
// the channel; it is closed by Close once every in-flight drop finished.
func (e *Engine) Results() <-chan DropResult {
	return e.results
}

// Destination returns the engine's default target directory.
func (e *Engine) Destination() string {
	return e.dest
}

// Accept ingests into the default destination directory.
func (e *Engine) Accept(providers []types.PayloadProvider) bool {
	return e.AcceptInto(e.dest, providers)
}

// AcceptInto starts the pipeline for every provider that negotiates a
// usable identifier set and reports optimistically: true means at least
// one drop was started, not that any write will succeed. Failures past
// this point surface only through Results, the directory listing, and
// the log.
func (e *Engine) AcceptInto(dir string, providers []types.PayloadProvider) bool {
	e.mutex.Lock()
	if e.closed {
		e.mutex.Unlock()
		log.Warn("Drop rejected, engine already closed")
		return false
	}

	accepted := 0
	for _, provider := range providers {
		desc := payload.Negotiate(provider)
		if desc == nil {
			continue
		}
		accepted++
		e.wg.Add(1)
		go e.run(uuid.NewString(), dir, desc)
	}
	e.mutex.Unlock()

	log.LogWithFields(
		log.F("providers", len(providers)),
		log.F("accepted", accepted),
		log.F("directory", dir),
	).Info("Drop received")

	return accepted > 0
}

// Close waits for in-flight drops and then closes the results channel.
// The engine accepts nothing afterwards.
func (e *Engine) Close() {
	e.mutex.Lock()
	if e.closed {
		e.mutex.Unlock()
		return
	}
	e.closed = true
	e.mutex.Unlock()

	e.wg.Wait()
	close(e.results)
}

// run is one drop's whole lifetime.
func (e *Engine) run(dropID, dir string, desc *payload.Descriptor) {
	defer e.wg.Done()

	content, err := e.chain.Resolve(context.Background(), desc)
	if err != nil {
		// The drop is abandoned; the only trace is this log line and
		// the result.
		log.LogWithError(err).With(log.F("drop", dropID)).Warn("Drop resolved nothing")
		e.results <- DropResult{ID: dropID, Err: err}
		return
	}

	path, err := e.materialize(context.Background(), dir, desc.SuggestedName, content)
	if err != nil {
		log.LogWithError(err).With(log.F("drop", dropID)).Error("Drop failed")
		e.results <- DropResult{ID: dropID, Err: err}
		return
	}

	log.LogWithFields(log.F("drop", dropID), log.F("path", path)).Info("Drop written")
	e.results <- DropResult{ID: dropID, Path: path}
}

// materialize writes one piece of resolved content into dir and returns
// the final path. The MaterializedContent set is closed; the trailing
// return only covers a nil value.
func (e *Engine) materialize(ctx context.Context, dir, suggested string, content types.MaterializedContent) (string, error) {
	switch c := content.(type) {
	case types.FileOnDisk:
		return e.placeFile(dir, suggested, c)
	case types.ByteContent:
		return e.placeBytes(dir, suggested, c)
	case types.TextContent:
		return e.placeText(dir, suggested, c)
	case types.RemoteReference:
		return e.placeRemote(ctx, dir, suggested, c)
	}
	return "", serr.NewKind("drop resolved to nothing", serr.WriteFailed)
}

// placeFile copies a resolved file into the destination. Temporary
// sources are deleted whether or not the copy lands.
func (e *Engine) placeFile(dir, suggested string, c types.FileOnDisk) (string, error) {
	if c.Temporary {
		defer func() {
			if err := os.Remove(c.Path); err != nil && !os.IsNotExist(err) {
				log.LogWithFields(log.F("path", c.Path), log.F("error", err)).Warn("Could not remove temporary file")
			}
		}()
	}

	src, err := os.Open(c.Path)
	if err != nil {
		return "", serr.NewFileError("opening resolved file", c.Path, serr.FileAccessDenied, err)
	}
	defer src.Close()

	preferred := suggested
	if preferred == "" {
		preferred = filepath.Base(c.Path)
	}

	dest, out, err := naming.CreateExclusive(dir, preferred, types.CategoryGeneric, filepath.Ext(c.Path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dest)
		return "", serr.NewFileError("copying dropped file", dest, serr.WriteFailed, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return "", serr.NewFileError("closing dropped file", dest, serr.WriteFailed, err)
	}
	return dest, nil
}

// placeBytes classifies a buffer to pick its extension, sniffing the
// content when the identifier alone says nothing, then writes it out.
func (e *Engine) placeBytes(dir, suggested string, c types.ByteContent) (string, error) {
	info, cerr := e.classifier.Classify(c.Identifier)
	if cerr != nil && len(c.Data) > 0 {
		info = e.classifier.SniffData(c.Data)
	}
	return writeBytes(dir, suggested, info.Category, info.Extension, c.Data)
}

func (e *Engine) placeText(dir, suggested string, c types.TextContent) (string, error) {
	return writeBytes(dir, suggested, types.CategoryGeneric, e.cfg.Ingest.TextExtension, []byte(c.Text))
}

// placeRemote downloads the reference and writes the body under the
// fetcher's inferred name. A failed fetch writes nothing at all.
func (e *Engine) placeRemote(ctx context.Context, dir, suggested string, c types.RemoteReference) (string, error) {
	data, name, err := e.fetcher.Fetch(ctx, c.URL)
	if err != nil {
		return "", err
	}
	if name == "" {
		name = suggested
	}
	return writeBytes(dir, name, types.CategoryGeneric, "", data)
}

// writeBytes creates the destination exclusively and fills it, removing
// the file again if the write cannot complete.
func writeBytes(dir, preferred string, category types.Category, extHint string, data []byte) (string, error) {
	path, f, err := naming.CreateExclusive(dir, preferred, category, extHint)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", serr.NewFileError("writing dropped content", path, serr.WriteFailed, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", serr.NewFileError("closing dropped content", path, serr.WriteFailed, err)
	}
	return path, nil
}

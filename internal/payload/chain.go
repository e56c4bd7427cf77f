package payload

import (
	"bytes"
	"context"
	"image/png"
	"net/url"
	"strings"
	"time"

	"dropd/internal/config"
	serr "dropd/internal/errors"
	"dropd/internal/log"
	"dropd/pkg/types"
)

// Chain resolves a negotiated descriptor into materialized content. For
// each identifier it tries the provider's load strategies in a fixed
// order: a file already in place, a temporary file, then an in-memory
// item value. The walk is strictly forward; a failed identifier is never
// revisited.
type Chain struct {
	timeout time.Duration // per load call, 0 means unbounded
}

// NewChain returns a chain with no per-call deadline.
func NewChain() *Chain {
	return &Chain{}
}

// NewChainWithConfig returns a chain using the configured resolve timeout.
func NewChainWithConfig(cfg *config.Config) *Chain {
	return &Chain{timeout: cfg.ResolveTimeout()}
}

// Resolve walks the descriptor's identifiers until one load strategy
// produces content. Individual strategy failures are logged and absorbed;
// only when every identifier is exhausted does an error escape, and it
// always carries the NegotiationExhausted kind.
func (c *Chain) Resolve(ctx context.Context, desc *Descriptor) (types.MaterializedContent, error) {
	if desc == nil || len(desc.Identifiers) == 0 {
		return nil, serr.ErrNegotiationExhausted
	}

	for _, id := range desc.Identifiers {
		if err := ctx.Err(); err != nil {
			return nil, serr.WrapKind(err, "resolution cancelled", serr.RepresentationLoadFailed)
		}

		if content, ok := c.tryIdentifier(ctx, desc, id); ok {
			return content, nil
		}
	}

	return nil, serr.ErrNegotiationExhausted
}

// tryIdentifier runs the three load strategies for a single identifier.
func (c *Chain) tryIdentifier(ctx context.Context, desc *Descriptor, id string) (types.MaterializedContent, bool) {
	lctx, cancel := c.loadContext(ctx)
	path, err := desc.Provider.LoadInPlace(lctx, id)
	cancel()
	if err == nil && path != "" {
		return types.FileOnDisk{Path: path}, true
	}
	c.logMiss(id, "in_place", err)

	lctx, cancel = c.loadContext(ctx)
	path, err = desc.Provider.LoadTemporary(lctx, id)
	cancel()
	if err == nil && path != "" {
		return types.FileOnDisk{Path: path, Temporary: true}, true
	}
	c.logMiss(id, "temporary", err)

	lctx, cancel = c.loadContext(ctx)
	value, err := desc.Provider.LoadItem(lctx, id)
	cancel()
	if err == nil && value != nil {
		content, merr := materializeValue(value, id)
		if merr == nil {
			return content, true
		}
		err = merr
	}
	c.logMiss(id, "item", err)

	return nil, false
}

func (c *Chain) loadContext(parent context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(parent, c.timeout)
	}
	return context.WithCancel(parent)
}

func (c *Chain) logMiss(id, strategy string, err error) {
	log.LogWithFields(
		log.F("identifier", id),
		log.F("strategy", strategy),
		log.F("error", err),
	).Debug("Load strategy failed, trying next")
}

// materializeValue maps an item value onto the content it represents.
// The RuntimeValue set is closed, so every variant is handled here; the
// trailing return only covers a nil value slipping through.
func materializeValue(value types.RuntimeValue, identifier string) (types.MaterializedContent, error) {
	switch v := value.(type) {
	case types.URLValue:
		return routeURL(v.URL, identifier)
	case types.TextValue:
		return routeText(v.Text), nil
	case types.DataValue:
		id := v.Identifier
		if id == "" {
			id = identifier
		}
		return types.ByteContent{Data: v.Data, Identifier: id}, nil
	case types.ImageValue:
		var buf bytes.Buffer
		if err := png.Encode(&buf, v.Image); err != nil {
			return nil, serr.NewResolveError("encoding image", identifier, serr.RepresentationLoadFailed, err)
		}
		return types.ByteContent{Data: buf.Bytes(), Identifier: "image/png"}, nil
	}
	return nil, serr.NewResolveError("item produced no value", identifier, serr.RepresentationLoadFailed, nil)
}

// routeURL splits URL values by locality: file URLs and bare absolute
// paths point at the local disk, everything else is a remote reference
// for the fetcher to deal with.
func routeURL(raw, identifier string) (types.MaterializedContent, error) {
	if raw == "" {
		return nil, serr.NewResolveError("empty URL value", identifier, serr.RepresentationLoadFailed, nil)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, serr.NewResolveError("parsing URL value", identifier, serr.RepresentationLoadFailed, err)
	}
	switch {
	case u.Scheme == "file":
		return types.FileOnDisk{Path: u.Path}, nil
	case u.Scheme == "" && strings.HasPrefix(raw, "/"):
		return types.FileOnDisk{Path: raw}, nil
	}
	return types.RemoteReference{URL: raw}, nil
}

// routeText treats a string with a URL scheme as the URL it spells and
// anything else as plain text to be written out. Whitespace disqualifies
// a candidate outright; url.Parse tolerates spaces in the opaque part,
// which would turn ordinary prose containing a colon into a URL.
func routeText(text string) types.MaterializedContent {
	trimmed := strings.TrimSpace(text)
	if !strings.ContainsAny(trimmed, " \t\n") {
		if u, err := url.Parse(trimmed); err == nil && u.Scheme != "" {
			if content, rerr := routeURL(trimmed, ""); rerr == nil {
				return content
			}
		}
	}
	return types.TextContent{Text: text}
}

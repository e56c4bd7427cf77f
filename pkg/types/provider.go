package types

import (
	"context"
	"image"
)

// PayloadProvider is the engine's view of one dragged item. Implementations
// adapt whatever the drag source hands over (a pasteboard item, a CLI
// argument, a test fixture) to the representations the ingestion pipeline
// negotiates over.
type PayloadProvider interface {
	// RegisteredTypeIdentifiers lists the type identifiers this item can be
	// loaded as, in the provider's own preference order.
	RegisteredTypeIdentifiers() []string

	// SuggestedName returns the source's preferred filename for the item,
	// or "" when the source offers none.
	SuggestedName() string

	// LoadInPlace returns a path to the item's backing file without copying
	// it. The file belongs to the source and must not be modified.
	LoadInPlace(ctx context.Context, identifier string) (string, error)

	// LoadTemporary materializes the representation into a temporary file
	// owned by the caller and returns its path.
	LoadTemporary(ctx context.Context, identifier string) (string, error)

	// LoadItem loads the representation as an in-memory runtime value.
	LoadItem(ctx context.Context, identifier string) (RuntimeValue, error)
}

// RuntimeValue is the in-memory form of a loaded representation. It is a
// closed set: URLValue, TextValue, DataValue, and ImageValue. Consumers
// dispatch with a type switch over exactly those variants.
type RuntimeValue interface {
	runtimeValue()
}

// URLValue is a remote location the item points at.
type URLValue struct {
	URL string
}

// TextValue is plain text content.
type TextValue struct {
	Text string
}

// DataValue is raw bytes loaded under a specific type identifier.
type DataValue struct {
	Data       []byte
	Identifier string // identifier the bytes were loaded as
}

// ImageValue is a decoded image. The resolution chain encodes it to PNG
// bytes before anything touches the disk.
type ImageValue struct {
	Image image.Image
}

func (URLValue) runtimeValue()   {}
func (TextValue) runtimeValue()  {}
func (DataValue) runtimeValue()  {}
func (ImageValue) runtimeValue() {}

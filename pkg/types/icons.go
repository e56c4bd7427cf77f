package types

import "image"

// IconProvider supplies the visuals a listing consumer renders next to each
// entry. Icon is cheap and synchronous; Thumbnail may decode and scale the
// file and is expected to be called off the UI path.
type IconProvider interface {
	// Icon returns a short glyph for the entry.
	Icon(entry DirectoryEntry) string

	// Thumbnail returns a scaled preview of an image file, at most size
	// pixels on the longer edge.
	Thumbnail(path string, size int) (image.Image, error)
}

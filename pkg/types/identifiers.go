package types

// Generic type identifiers negotiated between drag sources and the engine.
// Concrete format identifiers (say "public.png") come from the source and
// pass through untouched.
const (
	TypeFileReference = "file-reference" // item is backed by a file on disk
	TypeItem          = "item"           // load the item as a runtime value
	TypeRawBytes      = "raw-bytes"      // load the item as raw bytes
	TypeURL           = "url"            // item is a remote location
	TypeText          = "text"           // item is plain text
)

// Category is the coarse classification of a type identifier.
type Category string

const (
	// CategoryImage marks identifiers whose content decodes as an image.
	CategoryImage Category = "image"
	// CategoryGeneric marks every other content identifier.
	CategoryGeneric Category = "generic"
)

// TypeInfo is what the classifier knows about one type identifier.
type TypeInfo struct {
	Category  Category // coarse category for downstream handling
	Extension string   // preferred filename extension, with leading dot
}

// ClassifyRule is a user-configured classification override.
// It is used within the application's configuration.
type ClassifyRule struct {
	Pattern   string `yaml:"pattern"`   // Glob matched against type identifiers (e.g. "image/*", "public.*").
	Category  string `yaml:"category"`  // Category to assign: "image" or "generic".
	Extension string `yaml:"extension"` // Filename extension to assign, with leading dot (e.g. ".webp").
}

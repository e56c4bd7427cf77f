package types

// MaterializedContent is the single artifact a drop resolves to before it is
// written into the destination directory. It is a closed set: FileOnDisk,
// ByteContent, TextContent, and RemoteReference. The ingestion pipeline
// dispatches with a type switch over exactly those variants; there is no
// catch-all arm.
type MaterializedContent interface {
	materializedContent()
}

// FileOnDisk is content that already exists as a file.
type FileOnDisk struct {
	Path      string
	Temporary bool // staged copy owned by the engine, removed after ingestion
}

// ByteContent is in-memory bytes loaded under a type identifier.
type ByteContent struct {
	Data       []byte
	Identifier string // identifier the bytes were loaded as
}

// TextContent is plain text destined for a text file.
type TextContent struct {
	Text string
}

// RemoteReference is a URL that still has to be fetched.
type RemoteReference struct {
	URL string
}

func (FileOnDisk) materializedContent()      {}
func (ByteContent) materializedContent()     {}
func (TextContent) materializedContent()     {}
func (RemoteReference) materializedContent() {}

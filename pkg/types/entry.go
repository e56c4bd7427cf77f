package types

import (
	"path/filepath"
	"time"
)

// DirectoryEntry is one row of a directory listing.
type DirectoryEntry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	IsDir   bool      `json:"is_dir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Extension returns the entry's filename extension, lowercased elsewhere by
// callers that need case-insensitive matching.
func (e DirectoryEntry) Extension() string {
	if e.IsDir {
		return ""
	}
	return filepath.Ext(e.Name)
}

package index

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	serr "dropd/internal/errors"
	"dropd/internal/log"
	"dropd/pkg/types"
)

// Snapshot is one published view of the index: the listing, the directory
// it came from, and whether a newer listing is on its way.
type Snapshot struct {
	Directory string
	Entries   []types.DirectoryEntry
	Loading   bool
}

// Index holds the live listing of the directory being browsed. Reloads
// run on their own goroutine; the published snapshot is swapped wholesale
// when one finishes, and observers are notified after every swap.
type Index struct {
	mutex    sync.RWMutex
	dir      string
	entries  []types.DirectoryEntry
	loading  bool
	gen      uint64
	onUpdate func(Snapshot)
}

func New() *Index {
	return &Index{}
}

// SetOnUpdate registers the observer called after every published state
// change. The callback runs outside the index lock; it receives its own
// copy of the listing.
func (i *Index) SetOnUpdate(fn func(Snapshot)) {
	i.mutex.Lock()
	i.onUpdate = fn
	i.mutex.Unlock()
}

// Snapshot returns the current published state.
func (i *Index) Snapshot() Snapshot {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return Snapshot{
		Directory: i.dir,
		Entries:   copyEntries(i.entries),
		Loading:   i.loading,
	}
}

// Reload rebuilds the listing for dir in the background. The previous
// listing stays visible while the reload is in flight. A reload that is
// overtaken by a newer one publishes nothing, so switching directories
// can never resurrect a stale listing.
func (i *Index) Reload(dir string) {
	i.mutex.Lock()
	i.gen++
	gen := i.gen
	i.dir = dir
	i.loading = true
	fn := i.onUpdate
	snap := Snapshot{Directory: dir, Entries: copyEntries(i.entries), Loading: true}
	i.mutex.Unlock()

	notify(fn, snap)

	go func() {
		entries, err := List(dir)

		i.mutex.Lock()
		if gen != i.gen {
			i.mutex.Unlock()
			return
		}
		if err != nil {
			// A directory that cannot be read shows as empty, never as
			// stuck loading.
			i.entries = nil
			i.loading = false
			log.LogWithError(err).Error("Directory reload failed")
		} else {
			i.entries = entries
			i.loading = false
		}
		fn := i.onUpdate
		snap := Snapshot{Directory: dir, Entries: copyEntries(i.entries), Loading: false}
		i.mutex.Unlock()

		notify(fn, snap)
	}()
}

func notify(fn func(Snapshot), snap Snapshot) {
	if fn != nil {
		fn(snap)
	}
}

func copyEntries(entries []types.DirectoryEntry) []types.DirectoryEntry {
	if entries == nil {
		return nil
	}
	out := make([]types.DirectoryEntry, len(entries))
	copy(out, entries)
	return out
}

// List reads dir and returns its entries sorted for display: directories
// before files, then case-insensitive ascending by name within each group.
func List(dir string) ([]types.DirectoryEntry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, serr.NewFileError("listing directory", dir, serr.FileNotFound, err)
		}
		return nil, serr.NewFileError("listing directory", dir, serr.FileAccessDenied, err)
	}

	entries := make([]types.DirectoryEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			// The file vanished between ReadDir and Info; skip it.
			continue
		}
		entries = append(entries, types.DirectoryEntry{
			Name:    de.Name(),
			Path:    filepath.Join(dir, de.Name()),
			IsDir:   de.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	SortEntries(entries)
	return entries, nil
}

// SortEntries orders a listing in place: directories first, then
// case-insensitive lexicographic ascending within each group.
func SortEntries(entries []types.DirectoryEntry) {
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].IsDir != entries[b].IsDir {
			return entries[a].IsDir
		}
		na, nb := strings.ToLower(entries[a].Name), strings.ToLower(entries[b].Name)
		if na != nb {
			return na < nb
		}
		return entries[a].Name < entries[b].Name
	})
}

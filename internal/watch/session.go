package watch

import (
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"dropd/internal/config"
	serr "dropd/internal/errors"
	"dropd/internal/log"
)

// Session owns the engine's single directory watch. Exactly one directory
// is observed at a time: pointing the session at a new directory tears the
// previous OS handle down synchronously before the new one opens, so two
// directories are never watched at once. The session itself is reusable
// across Watch/Stop cycles; only the handle is replaced.
type Session struct {
	debounce time.Duration

	// reload carries the directory that needs re-listing. Buffered one
	// deep: a pending trigger already covers any further changes.
	reload chan string

	mutex    sync.Mutex
	fsw      *fsnotify.Watcher
	dir      string
	stopChan chan struct{}
	done     chan struct{}
	watching bool
}

// New creates an idle session with no debouncing.
func New() *Session {
	return &Session{reload: make(chan string, 1)}
}

// NewWithConfig creates an idle session using the configured debounce
// interval.
func NewWithConfig(cfg *config.Config) *Session {
	return &Session{
		debounce: cfg.DebounceInterval(),
		reload:   make(chan string, 1),
	}
}

// Reloads delivers one value per coalesced burst of directory changes.
// The value is the directory that changed. The channel stays open for the
// session's whole lifetime, across Watch/Stop cycles.
func (s *Session) Reloads() <-chan string {
	return s.reload
}

// Watch points the session at dir. Any previously watched directory is
// torn down first; after Watch returns, events from the old directory can
// no longer trigger a reload.
func (s *Session) Watch(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return serr.NewFileError("accessing watch directory", dir, serr.WatchFailed, err)
	}
	if !info.IsDir() {
		return serr.NewFileError("watch target is not a directory", dir, serr.InvalidPath, nil)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.teardownLocked()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return serr.WrapKind(err, "creating watch handle", serr.WatchFailed)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return serr.NewFileError("adding directory to watch", dir, serr.WatchFailed, err)
	}

	s.fsw = fsw
	s.dir = dir
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	s.watching = true

	go s.loop(fsw, dir, s.stopChan, s.done)

	log.LogWithFields(log.F("directory", dir)).Info("Watching directory")
	return nil
}

// Stop returns the session to idle. Safe to call repeatedly and while
// already idle.
func (s *Session) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.teardownLocked()
}

// IsWatching reports whether a directory is currently being observed.
func (s *Session) IsWatching() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.watching
}

// Directory returns the currently watched directory, or "" when idle.
func (s *Session) Directory() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.dir
}

// teardownLocked closes the current handle and waits for its event loop
// to exit. Callers must hold the mutex.
func (s *Session) teardownLocked() {
	if !s.watching {
		return
	}

	close(s.stopChan)
	if err := s.fsw.Close(); err != nil {
		log.LogWithFields(log.F("error", err)).Error("Error closing watch handle")
	}
	// Wait for the loop so no stale event can fire after teardown.
	<-s.done

	log.LogWithFields(log.F("directory", s.dir)).Info("Stopped watching directory")

	s.fsw = nil
	s.dir = ""
	s.watching = false
}

// loop turns raw filesystem events into coalesced reload triggers. The
// first relevant event arms the debounce timer; events arriving while it
// is armed are covered by the pending trigger.
func (s *Session) loop(fsw *fsnotify.Watcher, dir string, stop, done chan struct{}) {
	defer close(done)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !changesListing(event.Op) {
				continue
			}
			log.LogWithFields(
				log.F("file", event.Name),
				log.F("op", event.Op.String()),
			).Debug("Directory changed")

			if s.debounce <= 0 {
				s.trigger(dir)
				continue
			}
			if fire == nil {
				timer = time.NewTimer(s.debounce)
				fire = timer.C
			}

		case <-fire:
			s.trigger(dir)
			timer = nil
			fire = nil

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			log.LogWithFields(log.F("error", err)).Error("Watch handle error")

		case <-stop:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// trigger queues a reload without blocking; a full channel means one is
// already pending and the burst is coalesced into it.
func (s *Session) trigger(dir string) {
	select {
	case s.reload <- dir:
	default:
	}
}

// changesListing filters for events that can alter what a directory
// listing shows. Permission-only changes are ignored.
func changesListing(op fsnotify.Op) bool {
	return op.Has(fsnotify.Create) ||
		op.Has(fsnotify.Write) ||
		op.Has(fsnotify.Remove) ||
		op.Has(fsnotify.Rename)
}

package macro

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/vigna-ne/ne/pkg/status"
)

// Cache loads named macro files, searching the current directory, then the
// user prefs directory, then the global prefs directory, and keys loaded
// macros by basename so a later Load skips re-reading the file. An
// fsnotify watcher on the three directories invalidates a cached entry
// when its file changes on disk.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Macro
	dirs    []string
	watcher *fsnotify.Watcher
}

// NewCache starts watching cwd, userPrefsDir, and globalPrefsDir (any of
// which may be "" to skip it). The caller must Close the cache when done.
func NewCache(cwd, userPrefsDir, globalPrefsDir string) (*Cache, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	c := &Cache{
		entries: make(map[string]*Macro),
		dirs:    []string{cwd, userPrefsDir, globalPrefsDir},
		watcher: w,
	}
	for _, d := range c.dirs {
		if d == "" {
			continue
		}
		_ = w.Add(d) // a missing search directory just never fires events
	}
	go c.watchLoop()
	return c, nil
}

func (c *Cache) watchLoop() {
	for {
		select {
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Create|fsnotify.Rename) != 0 {
				c.invalidate(filepath.Base(ev.Name))
			}
		case _, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (c *Cache) invalidate(basename string) {
	c.mu.Lock()
	delete(c.entries, basename)
	c.mu.Unlock()
}

// Close stops the watcher.
func (c *Cache) Close() error { return c.watcher.Close() }

// Load returns the cached macro for name, reading and parsing it from the
// first directory (in search order) that has a matching file.
func (c *Cache) Load(name string) (*Macro, status.Status) {
	base := filepath.Base(name)

	c.mu.Lock()
	if m, ok := c.entries[base]; ok {
		c.mu.Unlock()
		return m, status.OK
	}
	c.mu.Unlock()

	for _, dir := range c.dirs {
		if dir == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		m := ParseText(base, string(data))
		c.mu.Lock()
		c.entries[base] = m
		c.mu.Unlock()
		return m, status.OK
	}
	return nil, status.CANT_OPEN_MACRO
}

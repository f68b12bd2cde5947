package confdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/sdr-catalog/internal/logging"
)

// ErrNoSuchEntry is returned by positional context operations when the
// position does not refer to an existing record.
var ErrNoSuchEntry = errors.New("confdb: no entry at position")

// Config describes where a Store finds and persists its contexts.
type Config struct {
	// UserDir is the writable directory. Flush writes here; it is also the
	// first directory searched when loading a context.
	UserDir string

	// SystemDirs are read-only directories searched, in order, after
	// UserDir.
	SystemDirs []string

	Logger logging.Logger
}

// Store resolves named contexts against a directory search path. Contexts
// are loaded lazily and cached; mutations stay in memory until Flush.
type Store struct {
	mu       sync.Mutex
	userDir  string
	sysDirs  []string
	contexts map[string]*Context
	log      logging.Logger
}

// Open prepares a store, creating the user directory if needed.
func Open(cfg Config) (*Store, error) {
	if cfg.UserDir == "" {
		return nil, errors.New("confdb: user directory not set")
	}
	if err := os.MkdirAll(cfg.UserDir, 0o755); err != nil {
		return nil, fmt.Errorf("confdb: create user dir: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Noop()
	}
	return &Store{
		userDir:  cfg.UserDir,
		sysDirs:  cfg.SystemDirs,
		contexts: make(map[string]*Context),
		log:      log,
	}, nil
}

// Context returns the named context, loading it from the first directory on
// the search path that has a file for it. A context with no backing file is
// valid and starts empty.
func (s *Store) Context(name string) (*Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.contexts[name]; ok {
		return c, nil
	}

	c := &Context{name: name, save: true}
	for _, dir := range append([]string{s.userDir}, s.sysDirs...) {
		path := filepath.Join(dir, name+".yaml")
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("confdb: read context %q: %w", name, err)
		}
		if err := yaml.Unmarshal(data, &c.records); err != nil {
			return nil, fmt.Errorf("confdb: parse context %q: %w", name, err)
		}
		break
	}
	s.contexts[name] = c
	return c, nil
}

// Flush persists every save-enabled context to the user directory.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, c := range s.contexts {
		if !c.Save() {
			continue
		}
		data, err := yaml.Marshal(c.snapshot())
		if err == nil {
			err = os.WriteFile(filepath.Join(s.userDir, c.name+".yaml"), data, 0o644)
		}
		if err != nil {
			s.log.Warn(context.Background(), "context flush failed",
				logging.String("context", c.name),
				logging.Any("error", err))
			if firstErr == nil {
				firstErr = fmt.Errorf("confdb: flush context %q: %w", c.name, err)
			}
		}
	}
	return firstErr
}

// Context is a named, ordered, persistent sequence of records.
type Context struct {
	mu      sync.Mutex
	name    string
	records []Object
	save    bool
}

// Name returns the context's name.
func (c *Context) Name() string { return c.name }

// SetSave controls whether Flush persists this context at all.
func (c *Context) SetSave(save bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.save = save
}

// Save reports whether the context participates in Flush.
func (c *Context) Save() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save
}

// List returns a snapshot of the context's records.
func (c *Context) List() []Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Len returns the number of records.
func (c *Context) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// At returns the record at pos.
func (c *Context) At(pos int) (Object, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pos < 0 || pos >= len(c.records) {
		return Object{}, false
	}
	return c.records[pos].Clone(), true
}

// Clear drops every record.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = nil
}

// Append adds a record at the end and returns its position.
func (c *Context) Append(o Object) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, o.Clone())
	return len(c.records) - 1
}

// Put overwrites the record at pos. It fails with ErrNoSuchEntry when the
// position does not exist; callers fall back to Append.
func (c *Context) Put(o Object, pos int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pos < 0 || pos >= len(c.records) {
		return fmt.Errorf("%w: %d in context %q", ErrNoSuchEntry, pos, c.name)
	}
	c.records[pos] = o.Clone()
	return nil
}

// Remove deletes the record at pos, shifting later records down.
func (c *Context) Remove(pos int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pos < 0 || pos >= len(c.records) {
		return fmt.Errorf("%w: %d in context %q", ErrNoSuchEntry, pos, c.name)
	}
	c.records = append(c.records[:pos], c.records[pos+1:]...)
	return nil
}

func (c *Context) snapshot() []Object {
	out := make([]Object, len(c.records))
	for i, r := range c.records {
		out[i] = r.Clone()
	}
	return out
}

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"exposuretrack/model"
)

// DefaultFileName is the document name inside the data directory.
const DefaultFileName = "tasks.json"

const defaultRotatingBackups = 10

// ErrCorruptDocument marks a task document that exists but cannot be used.
var ErrCorruptDocument = errors.New("corrupt task document")

// Gateway persists the whole task collection as one JSON array.
type Gateway struct {
	fs   afero.Fs
	path string
	keep int
	log  *slog.Logger
	now  func() time.Time

	readOnly bool
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithFs swaps the filesystem, e.g. afero.NewMemMapFs() in tests.
func WithFs(fsys afero.Fs) Option {
	return func(g *Gateway) { g.fs = fsys }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.log = l
		}
	}
}

// WithBackups sets how many rotating backups are kept. Zero disables them.
func WithBackups(n int) Option {
	return func(g *Gateway) {
		if n >= 0 {
			g.keep = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// WithReadOnly leaves a corrupt document in place on Load instead of
// moving it aside. Used by commands that run without the process lock.
func WithReadOnly() Option {
	return func(g *Gateway) { g.readOnly = true }
}

// New returns a gateway for the document at path, on the OS filesystem by default.
func New(path string, opts ...Option) *Gateway {
	g := &Gateway{
		fs:   afero.NewOsFs(),
		path: path,
		keep: defaultRotatingBackups,
		log:  slog.Default(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Path returns the document location.
func (g *Gateway) Path() string {
	return g.path
}

// Load returns the persisted collection. A missing, unreadable or corrupt
// document yields the seed set instead; a corrupt file is moved aside first.
func (g *Gateway) Load() []model.Task {
	tasks, err := g.Read()
	if err == nil {
		return tasks
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		g.log.Info("no task document, starting with demo tasks", "path", g.path)
	case errors.Is(err, ErrCorruptDocument) && g.readOnly:
		g.log.Warn("task document is corrupt, showing demo tasks", "path", g.path, "error", err)
	case errors.Is(err, ErrCorruptDocument):
		moved, moveErr := g.moveCorruptFile()
		if moveErr != nil {
			g.log.Error("failed to move corrupt task document", "path", g.path, "error", moveErr)
		}
		g.log.Warn("task document is corrupt, starting with demo tasks", "path", g.path, "moved_to", moved, "error", err)
	default:
		g.log.Error("failed to read task document, starting with demo tasks", "path", g.path, "error", err)
	}
	return SeedTasks(g.now())
}

// Read loads the document without any fallback.
func (g *Gateway) Read() ([]model.Task, error) {
	data, err := afero.ReadFile(g.fs, g.path)
	if err != nil {
		return nil, err
	}
	return decodeTasks(data)
}

// Save writes the collection and only logs failures. The in-memory state
// stays authoritative until the next successful write.
func (g *Gateway) Save(tasks []model.Task) {
	if err := g.Write(tasks); err != nil {
		g.log.Error("failed to save tasks", "path", g.path, "count", len(tasks), "error", err)
		return
	}
	g.log.Debug("tasks saved", "path", g.path, "count", len(tasks))
}

// Write replaces the document using a temporary file and an atomic rename.
// The previous document is copied to <path>.bak and to a rotating
// timestamped backup first.
func (g *Gateway) Write(tasks []model.Task) error {
	if err := g.ensureDir(); err != nil {
		return err
	}
	if err := g.backup(); err != nil {
		return fmt.Errorf("backup: %w", err)
	}

	tmp, err := afero.TempFile(g.fs, filepath.Dir(g.path), filepath.Base(g.path)+".tmp-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = g.fs.Remove(tmpName)
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(model.CloneTasks(tasks)); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return g.fs.Rename(tmpName, g.path)
}

func decodeTasks(data []byte) ([]model.Task, error) {
	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	seen := make(map[string]bool, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		if strings.TrimSpace(t.ID) == "" {
			return nil, fmt.Errorf("%w: task %d has no id", ErrCorruptDocument, i)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrCorruptDocument, t.ID)
		}
		seen[t.ID] = true
		if !t.Category.Valid() || !t.Status.Valid() {
			return nil, fmt.Errorf("%w: task %s has no category or status", ErrCorruptDocument, t.ID)
		}
		if t.Instructions == nil {
			t.Instructions = []string{}
		}
		if t.Completions == nil {
			t.Completions = []time.Time{}
		}
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (g *Gateway) ensureDir() error {
	return g.fs.MkdirAll(filepath.Dir(g.path), 0o755)
}

func (g *Gateway) backup() error {
	data, err := afero.ReadFile(g.fs, g.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	if err := afero.WriteFile(g.fs, g.path+".bak", data, 0o644); err != nil {
		return err
	}
	if g.keep == 0 {
		return nil
	}

	timestamp := g.now().UTC().Format("20060102-150405.000000000")
	rotatingPath := fmt.Sprintf("%s.bak.%s", g.path, timestamp)
	if err := afero.WriteFile(g.fs, rotatingPath, data, 0o644); err != nil {
		return err
	}

	return g.pruneRotatingBackups()
}

func (g *Gateway) pruneRotatingBackups() error {
	files, err := afero.Glob(g.fs, g.path+".bak.*")
	if err != nil {
		return err
	}
	if len(files) <= g.keep {
		return nil
	}

	sort.Strings(files)
	for _, old := range files[:len(files)-g.keep] {
		if err := g.fs.Remove(old); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (g *Gateway) moveCorruptFile() (string, error) {
	if _, err := g.fs.Stat(g.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	base := filepath.Base(g.path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	timestamp := g.now().UTC().Format("20060102-150405")
	corruptPath := filepath.Join(filepath.Dir(g.path), fmt.Sprintf("%s.corrupt-%s%s", name, timestamp, ext))
	if err := g.fs.Rename(g.path, corruptPath); err != nil {
		return "", err
	}
	return corruptPath, nil
}

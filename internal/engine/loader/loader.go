// Package loader resolves a model identifier to local files and loads the
// classifier. Every failure is reported as ErrModelUnavailable.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/crimson-sun/clinote/internal/engine/textclass"
	"github.com/crimson-sun/clinote/internal/hub"
	"github.com/crimson-sun/clinote/internal/model"
)

// ErrModelUnavailable wraps every failure to resolve or load a model.
var ErrModelUnavailable = errors.New("model unavailable")

// Config controls where models come from.
type Config struct {
	Endpoint string        // hub base URL
	Token    string        // hub Bearer token
	Revision string        // branch, tag or commit; empty = default branch
	CacheDir string        // root of the download cache
	Offline  bool          // never contact the hub
	Patterns []string      // files to fetch; nil = DefaultPatterns
	Timeout  time.Duration // per-request hub timeout; 0 = client default
	Progress io.Writer     // download progress bar; nil = none
}

// Resolver turns identifiers into local ModelFiles.
type Resolver struct {
	cfg Config
	hub *hub.Client
}

// NewResolver creates a Resolver. The hub client is built from cfg.
func NewResolver(cfg Config) *Resolver {
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = DefaultPatterns
	}
	opts := []hub.Option{hub.WithToken(cfg.Token)}
	if cfg.Timeout > 0 {
		opts = append(opts, hub.WithTimeout(cfg.Timeout))
	}
	if cfg.Progress != nil {
		opts = append(opts, hub.WithProgress(cfg.Progress))
	}
	return &Resolver{cfg: cfg, hub: hub.New(cfg.Endpoint, opts...)}
}

// ManifestPath is the bbolt manifest inside the cache directory.
func (r *Resolver) ManifestPath() string {
	return filepath.Join(r.cfg.CacheDir, "manifest.db")
}

// Resolve finds the files for id: a local directory is used as is, then the
// cache manifest is consulted, then the hub is asked.
func (r *Resolver) Resolve(ctx context.Context, id string) (model.ModelFiles, error) {
	if info, err := os.Stat(id); err == nil && info.IsDir() {
		files, err := r.resolveDir(id)
		if err != nil {
			return model.ModelFiles{}, unavailable(id, err)
		}
		return files, nil
	}

	if err := hub.ValidateID(id); err != nil {
		return model.ModelFiles{}, unavailable(id, err)
	}
	if r.cfg.CacheDir == "" {
		return model.ModelFiles{}, unavailable(id, errors.New("no cache directory configured"))
	}

	m, err := hub.OpenManifest(r.ManifestPath())
	if err != nil {
		return model.ModelFiles{}, unavailable(id, err)
	}
	defer m.Close()

	if files, ok := r.fromCache(m, id); ok {
		slog.Debug("model cache hit", "model", id, "revision", files.Revision)
		return files, nil
	}
	if r.cfg.Offline {
		return model.ModelFiles{}, unavailable(id, errors.New("not cached and offline mode is on"))
	}

	files, err := r.fetch(ctx, m, id)
	if err != nil {
		return model.ModelFiles{}, unavailable(id, err)
	}
	return files, nil
}

func (r *Resolver) resolveDir(dir string) (model.ModelFiles, error) {
	names, err := localFiles(dir, r.cfg.Patterns)
	if err != nil {
		return model.ModelFiles{}, err
	}
	selected, err := selectFiles(names, r.cfg.Patterns)
	if err != nil {
		return model.ModelFiles{}, fmt.Errorf("%s: %w", dir, err)
	}
	files := assign(dir, selected)
	files.ID = dir
	return files, nil
}

// fromCache returns a manifest entry whose files are all still on disk.
// A pinned revision must match the cached commit or the ref it was fetched
// under.
func (r *Resolver) fromCache(m *hub.Manifest, id string) (model.ModelFiles, bool) {
	e, ok, err := m.Get(id)
	if err != nil {
		slog.Warn("model cache manifest unreadable", "model", id, "error", err)
		return model.ModelFiles{}, false
	}
	if !ok || !e.Complete() {
		return model.ModelFiles{}, false
	}
	if !e.Matches(r.cfg.Revision) {
		return model.ModelFiles{}, false
	}
	files := assign(e.Dir, e.Files)
	files.ID, files.Revision = id, e.Revision
	return files, true
}

func (r *Resolver) fetch(ctx context.Context, m *hub.Manifest, id string) (model.ModelFiles, error) {
	info, err := r.hub.Repo(ctx, id, r.cfg.Revision)
	if hub.IsNotFound(err) {
		return model.ModelFiles{}, fmt.Errorf("unknown model id or revision on %s (private models need a hub token): %w", r.hub.Endpoint(), err)
	}
	if err != nil {
		return model.ModelFiles{}, err
	}
	selected, err := selectFiles(info.Files(), r.cfg.Patterns)
	if err != nil {
		return model.ModelFiles{}, fmt.Errorf("%s: %w", id, err)
	}

	rev := info.SHA
	if rev == "" {
		rev = "main"
	}
	dir := filepath.Join(r.cfg.CacheDir, "models", strings.ReplaceAll(id, "/", "--"), rev)

	slog.Info("fetching model", "model", id, "revision", rev, "files", len(selected), "endpoint", r.hub.Endpoint())
	for _, name := range selected {
		dest := filepath.Join(dir, filepath.FromSlash(name))
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		if err := r.hub.Download(ctx, id, rev, name, dest); err != nil {
			return model.ModelFiles{}, err
		}
	}

	if err := m.Put(hub.Entry{
		ID:        id,
		Revision:  rev,
		Ref:       r.cfg.Revision,
		Dir:       dir,
		Files:     selected,
		FetchedAt: time.Now().UTC(),
	}); err != nil {
		return model.ModelFiles{}, err
	}

	files := assign(dir, selected)
	files.ID, files.Revision = id, rev
	return files, nil
}

// Cached lists the models recorded in the cache manifest.
func (r *Resolver) Cached() ([]hub.Entry, error) {
	if _, err := os.Stat(r.ManifestPath()); os.IsNotExist(err) {
		return nil, nil
	}
	m, err := hub.OpenManifest(r.ManifestPath())
	if err != nil {
		return nil, err
	}
	defer m.Close()
	return m.List()
}

// Load resolves id and builds the ONNX classifier from the resolved files.
func (r *Resolver) Load(ctx context.Context, id string, opts textclass.Options) (*textclass.ONNXClassifier, model.ModelFiles, error) {
	files, err := r.Resolve(ctx, id)
	if err != nil {
		return nil, model.ModelFiles{}, err
	}
	cls, err := textclass.New(files, opts)
	if err != nil {
		return nil, model.ModelFiles{}, unavailable(id, err)
	}
	slog.Info("model loaded", "model", id, "revision", files.Revision, "labels", len(cls.Labels()), "max_seq_len", cls.MaxSeqLen())
	return cls, files, nil
}

func unavailable(id string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrModelUnavailable, id, err)
}

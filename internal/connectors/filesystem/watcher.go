// Package filesystem uploads files dropped into a local folder into a dataset.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
	"github.com/custodia-labs/sercha-datasets/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is uploaded.
// Editors and copy tools often write a file in several steps.
const DefaultDebounce = 500 * time.Millisecond

// Uploader ingests the records of one file into a dataset.
// driving.DatapointService satisfies it.
type Uploader interface {
	Upload(ctx context.Context, projectID, datasetID, filename string, content []byte) (*domain.IngestResult, error)
}

// ResultFunc receives the outcome of every uploaded file.
type ResultFunc func(path string, result *domain.IngestResult, err error)

// Change is a file ready to upload.
type Change struct {
	Path    string
	Content []byte
}

// Watcher uploads new and rewritten files of a folder into one dataset.
type Watcher struct {
	projectID string
	datasetID string
	rootPath  string
	uploader  Uploader
	supports  func(filename string) bool
	onResult  ResultFunc
	debounce  time.Duration
}

// New creates a watcher for rootPath. supports filters the files that
// are uploaded; nil accepts every file.
func New(projectID, datasetID, rootPath string, uploader Uploader, supports func(string) bool) *Watcher {
	if supports == nil {
		supports = func(string) bool { return true }
	}
	return &Watcher{
		projectID: projectID,
		datasetID: datasetID,
		rootPath:  rootPath,
		uploader:  uploader,
		supports:  supports,
		onResult:  func(string, *domain.IngestResult, error) {},
		debounce:  DefaultDebounce,
	}
}

// OnResult registers a callback for upload outcomes.
func (w *Watcher) OnResult(fn ResultFunc) *Watcher {
	if fn != nil {
		w.onResult = fn
	}
	return w
}

// WithDebounce overrides the quiet period before an upload.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// Scan uploads every supported file already present under the root,
// in lexical order. It returns the number of files uploaded successfully.
func (w *Watcher) Scan(ctx context.Context) (int, error) {
	var paths []string
	err := filepath.WalkDir(w.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != w.rootPath && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && w.supports(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scanning %s: %w", w.rootPath, err)
	}
	sort.Strings(paths)

	uploaded := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return uploaded, err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			w.onResult(path, nil, err)
			continue
		}
		if w.upload(ctx, Change{Path: path, Content: content}) {
			uploaded++
		}
	}
	return uploaded, nil
}

// Watch uploads files as they are created or rewritten until ctx is done.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.rootPath); err != nil {
		return fmt.Errorf("watching %s: %w", w.rootPath, err)
	}
	logger.Info("Watching %s for dataset %s", w.rootPath, w.datasetID)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				pending[event.Name] = time.Now()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)

		case now := <-ticker.C:
			for _, path := range due(pending, now, w.debounce) {
				delete(pending, path)
				if change := w.handleFsEvent(fsnotify.Event{Name: path, Op: fsnotify.Write}); change != nil {
					w.upload(ctx, *change)
				}
			}
		}
	}
}

// relevant reports whether an event may produce an upload.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	name := filepath.Base(event.Name)
	return !isHidden(name) && w.supports(name)
}

// handleFsEvent turns a filesystem event into a file to upload.
// Removals, renames, directories, hidden and unsupported files yield nil.
func (w *Watcher) handleFsEvent(event fsnotify.Event) *Change {
	if !w.relevant(event) {
		return nil
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return nil
	}
	content, err := os.ReadFile(event.Name)
	if err != nil || len(content) == 0 {
		return nil
	}
	return &Change{Path: event.Name, Content: content}
}

func (w *Watcher) upload(ctx context.Context, change Change) bool {
	result, err := w.uploader.Upload(ctx, w.projectID, w.datasetID, filepath.Base(change.Path), change.Content)
	var batchErr *domain.BatchError
	switch {
	case err == nil:
		logger.Debug("Uploaded %s: %d datapoints", change.Path, len(result.Datapoints))
	case errors.As(err, &batchErr):
		logger.Warn("Uploaded %s but indexing stopped: %v", change.Path, err)
	default:
		logger.Warn("Upload of %s failed: %v", change.Path, err)
	}
	w.onResult(change.Path, result, err)
	return err == nil
}

// due returns the pending paths that have been quiet for at least d.
func due(pending map[string]time.Time, now time.Time, d time.Duration) []string {
	var out []string
	for path, seen := range pending {
		if now.Sub(seen) >= d {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

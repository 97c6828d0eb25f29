package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-datasets/internal/core/domain"
)

type upload struct {
	projectID, datasetID, filename string
	content                        string
}

type fakeUploader struct {
	mu      sync.Mutex
	uploads []upload
	failOn  string
}

func (f *fakeUploader) Upload(
	_ context.Context, projectID, datasetID, filename string, content []byte,
) (*domain.IngestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, upload{projectID, datasetID, filename, string(content)})
	if filename == f.failOn {
		return nil, domain.ErrUnsupportedType
	}
	return &domain.IngestResult{Datapoints: []domain.Datapoint{{ID: "x"}}}, nil
}

func (f *fakeUploader) filenames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.uploads))
	for i, u := range f.uploads {
		out[i] = u.filename
	}
	return out
}

func jsonOnly(name string) bool {
	return strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".jsonl")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcher_HandleFsEvent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "rows.json"), `[{"data":1}]`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "skip")
	writeFile(t, filepath.Join(dir, ".hidden.json"), `[]`)
	writeFile(t, filepath.Join(dir, "empty.json"), "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	w := New("proj", "ds", dir, &fakeUploader{}, jsonOnly)

	tests := []struct {
		name   string
		file   string
		op     fsnotify.Op
		upload bool
	}{
		{"create supported file", "rows.json", fsnotify.Create, true},
		{"write supported file", "rows.json", fsnotify.Write, true},
		{"write with chmod", "rows.json", fsnotify.Write | fsnotify.Chmod, true},
		{"chmod only", "rows.json", fsnotify.Chmod, false},
		{"remove", "gone.json", fsnotify.Remove, false},
		{"rename", "rows.json", fsnotify.Rename, false},
		{"unsupported extension", "notes.txt", fsnotify.Create, false},
		{"hidden file", ".hidden.json", fsnotify.Create, false},
		{"empty file", "empty.json", fsnotify.Write, false},
		{"directory", "sub.json", fsnotify.Create, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			change := w.handleFsEvent(fsnotify.Event{Name: path, Op: tt.op})
			if !tt.upload {
				assert.Nil(t, change)
				return
			}
			require.NotNil(t, change)
			assert.Equal(t, path, change.Path)
			assert.Equal(t, `[{"data":1}]`, string(change.Content))
		})
	}
}

func TestWatcher_Scan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.jsonl"), `{"data":"b"}`)
	writeFile(t, filepath.Join(dir, "a.json"), `[{"data":"a"}]`)
	writeFile(t, filepath.Join(dir, "readme.md"), "# skip")
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	writeFile(t, filepath.Join(dir, ".git", "c.json"), `[]`)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	writeFile(t, filepath.Join(dir, "nested", "d.json"), `[{"data":"d"}]`)

	uploader := &fakeUploader{failOn: "b.jsonl"}
	var failed []string
	w := New("proj", "ds", dir, uploader, jsonOnly).OnResult(func(path string, _ *domain.IngestResult, err error) {
		if err != nil {
			failed = append(failed, filepath.Base(path))
		}
	})

	n, err := w.Scan(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a.json", "b.jsonl", "d.json"}, uploader.filenames())
	assert.Equal(t, []string{"b.jsonl"}, failed)
	assert.Equal(t, "proj", uploader.uploads[0].projectID)
	assert.Equal(t, "ds", uploader.uploads[0].datasetID)
}

func TestWatcher_ScanMissingDir(t *testing.T) {
	w := New("proj", "ds", filepath.Join(t.TempDir(), "missing"), &fakeUploader{}, nil)

	_, err := w.Scan(context.Background())

	assert.Error(t, err)
}

func TestWatcher_ScanCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `[]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := New("proj", "ds", dir, &fakeUploader{}, nil).Scan(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}

func TestWatcher_WatchUploadsNewFiles(t *testing.T) {
	dir := t.TempDir()
	uploader := &fakeUploader{}
	w := New("proj", "ds", dir, uploader, jsonOnly).WithDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "new.json"), `[{"data":"n"}]`)
	writeFile(t, filepath.Join(dir, "ignored.txt"), "x")

	require.Eventually(t, func() bool {
		return len(uploader.filenames()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"new.json"}, uploader.filenames())

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatcher_WatchMissingDir(t *testing.T) {
	w := New("proj", "ds", filepath.Join(t.TempDir(), "missing"), &fakeUploader{}, nil)

	err := w.Watch(context.Background())

	assert.Error(t, err)
}

func TestDue(t *testing.T) {
	now := time.Now()
	pending := map[string]time.Time{
		"b": now.Add(-time.Second),
		"a": now.Add(-time.Second),
		"c": now,
	}

	assert.Equal(t, []string{"a", "b"}, due(pending, now, 500*time.Millisecond))
}

package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestSource_Type(t *testing.T) {
	assert.Equal(t, domain.BackendFilesystem, New(t.TempDir()).Type())
}

func TestSource_List(t *testing.T) {
	ctx := context.Background()

	t.Run("missing root is empty", func(t *testing.T) {
		objects, err := New(filepath.Join(t.TempDir(), "nope")).List(ctx)
		require.NoError(t, err)
		assert.Empty(t, objects)
	})

	t.Run("empty root is empty", func(t *testing.T) {
		objects, err := New(t.TempDir()).List(ctx)
		require.NoError(t, err)
		assert.Empty(t, objects)
	})

	t.Run("root that is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "f.txt")
		writeFile(t, file, "x", time.Now())
		_, err := New(file).List(ctx)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("lists nested regular files", func(t *testing.T) {
		root := t.TempDir()
		mtime := time.Unix(1700000000, 500_000_000)
		writeFile(t, filepath.Join(root, "hello.txt"), "Hello World!", mtime)
		writeFile(t, filepath.Join(root, "docs", "guide.md"), "# Guide", mtime.Add(time.Second))
		writeFile(t, filepath.Join(root, ".hidden", "secret.md"), "x", mtime)
		writeFile(t, filepath.Join(root, ".DS_Store"), "x", mtime)

		objects, err := New(root).List(ctx)
		require.NoError(t, err)
		require.Len(t, objects, 2)

		sort.Slice(objects, func(i, j int) bool { return objects[i].RelPath < objects[j].RelPath })
		assert.Equal(t, "docs/guide.md", objects[0].RelPath)
		assert.Equal(t, filepath.Join(root, "docs", "guide.md"), objects[0].Locator)
		assert.InDelta(t, 1700000001.5, objects[0].ModTime, 1e-6)
		assert.Equal(t, "hello.txt", objects[1].RelPath)
		assert.InDelta(t, 1700000000.5, objects[1].ModTime, 1e-6)
	})

	t.Run("skips symlinks", func(t *testing.T) {
		root := t.TempDir()
		target := filepath.Join(root, "real.txt")
		writeFile(t, target, "x", time.Now())
		if err := os.Symlink(target, filepath.Join(root, "link.txt")); err != nil {
			t.Skipf("symlinks unsupported: %v", err)
		}

		objects, err := New(root).List(ctx)
		require.NoError(t, err)
		require.Len(t, objects, 1)
		assert.Equal(t, "real.txt", objects[0].RelPath)
	})

	t.Run("entries removed mid-walk are omitted", func(t *testing.T) {
		root := t.TempDir()
		mtime := time.Now()
		writeFile(t, filepath.Join(root, "a", "x.txt"), "x", mtime)
		writeFile(t, filepath.Join(root, "b", "y.txt"), "y", mtime)
		writeFile(t, filepath.Join(root, "c.txt"), "c", mtime)
		writeFile(t, filepath.Join(root, "keep.txt"), "k", mtime)

		src := New(root)
		src.visit = func(path string) {
			if path == filepath.Join(root, "a") {
				require.NoError(t, os.RemoveAll(filepath.Join(root, "b")))
				require.NoError(t, os.Remove(filepath.Join(root, "c.txt")))
			}
		}

		objects, err := src.List(ctx)
		require.NoError(t, err)

		var rels []string
		for _, o := range objects {
			rels = append(rels, o.RelPath)
		}
		sort.Strings(rels)
		assert.Equal(t, []string{"a/x.txt", "keep.txt"}, rels)
	})

	t.Run("unreadable subdirectory is skipped", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("permissions are not enforced for root")
		}
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "locked", "x.txt"), "x", time.Now())
		writeFile(t, filepath.Join(root, "open.txt"), "o", time.Now())
		locked := filepath.Join(root, "locked")
		require.NoError(t, os.Chmod(locked, 0o000))
		t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

		objects, err := New(root).List(ctx)
		require.NoError(t, err)
		require.Len(t, objects, 1)
		assert.Equal(t, "open.txt", objects[0].RelPath)
	})

	t.Run("cancelled context", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.txt"), "x", time.Now())
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := New(root).List(cctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSource_Read(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	writeFile(t, path, "contents", time.Now())
	src := New(root)

	data, err := src.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "contents", string(data))

	_, err = src.Read(ctx, filepath.Join(root, "missing.txt"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = src.Read(ctx, filepath.Join(root, "..", "outside.txt"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNotifier_Watch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))

	n, err := NewNotifier(root)
	require.NoError(t, err)
	defer n.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hints := n.Watch(ctx)

	writeFile(t, filepath.Join(root, "sub", "new.md"), "# New", time.Now())

	select {
	case _, ok := <-hints:
		assert.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("no hint after file creation")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-hints:
			return !ok
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNotifier_Relevant(t *testing.T) {
	n := &Notifier{root: "/r"}
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write", fsnotify.Event{Name: "/r/a.md", Op: fsnotify.Write}, true},
		{"chmod", fsnotify.Event{Name: "/r/a.md", Op: fsnotify.Chmod}, false},
		{"hidden", fsnotify.Event{Name: "/r/.a.swp", Op: fsnotify.Write}, false},
		{"remove", fsnotify.Event{Name: "/r/a.md", Op: fsnotify.Remove}, true},
		{"rename", fsnotify.Event{Name: "/r/a.md", Op: fsnotify.Rename}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.relevant(tt.event))
		})
	}
}

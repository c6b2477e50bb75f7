package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsMissingDirectory(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestNewWatchesDuplicateDirectoryOnce(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir, dir + string(filepath.Separator)})
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, []string{dir}, w.Dirs())
}

func TestRunDeliversFilteredDebouncedEvents(t *testing.T) {
	xsdDir := t.TempDir()
	xmlDir := t.TempDir()

	w, err := New([]string{xsdDir, xmlDir}, WithDebounce(50*time.Millisecond), WithExtensions(".xsd", ".xml"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(ev Event) error {
			events <- ev
			return nil
		})
	}()

	require.NoError(t, os.WriteFile(filepath.Join(xmlDir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(xsdDir, "base.xsd"), []byte("<a/>"), 0o644))

	select {
	case ev := <-events:
		require.NotEmpty(t, ev.Paths)
		for _, p := range ev.Paths {
			assert.Equal(t, ".xsd", filepath.Ext(p))
		}
		assert.True(t, ev.Has(".XSD"))
		assert.False(t, ev.Has(".xml"))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestAddWatchesImportedSubdirectory(t *testing.T) {
	xsdDir := t.TempDir()
	subDir := filepath.Join(xsdDir, "sub")
	require.NoError(t, os.Mkdir(subDir, 0o755))

	w, err := New([]string{xsdDir}, WithDebounce(50*time.Millisecond), WithExtensions(".xsd"))
	require.NoError(t, err)
	require.NoError(t, w.Add(subDir))
	require.NoError(t, w.Add(subDir))
	assert.Equal(t, []string{xsdDir, subDir}, w.Dirs())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 4)
	go w.Run(ctx, func(ev Event) error {
		events <- ev
		return nil
	})

	common := filepath.Join(subDir, "common.xsd")
	require.NoError(t, os.WriteFile(common, []byte("<a/>"), 0o644))

	select {
	case ev := <-events:
		assert.Contains(t, ev.Paths, common)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event in subdirectory")
	}
}

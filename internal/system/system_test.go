package system

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.html")
	fresh := filepath.Join(dir, "fresh.HTML")
	require.NoError(t, os.WriteFile(old, nil, 0o644))
	require.NoError(t, os.WriteFile(fresh, nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	got, err := FindLatest(dir, ".html", ".htm")
	require.NoError(t, err)
	assert.Equal(t, fresh, got)

	_, err = FindLatest(dir, ".yaml")
	assert.Error(t, err)
}

func TestImagePoolReusesBySize(t *testing.T) {
	p := NewImagePool()
	rect := image.Rect(0, 0, 8, 4)
	img := p.Get(rect)
	assert.Equal(t, rect, img.Rect)
	p.Put(img)
	p.Put(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	p.Put(nil)

	again := p.Get(rect)
	assert.Equal(t, rect, again.Rect)
}

func TestTakeSample(t *testing.T) {
	s := TakeSample()
	assert.Positive(t, s.Goroutines)
	assert.Positive(t, s.HeapBytes)
}

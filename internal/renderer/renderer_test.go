package renderer

import (
	"context"
	"image/png"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/scrollmotion/internal/dom"
)

const page = `<html><body data-width="400">
<section id="hero" data-top="0" data-height="200">
  <h1 data-top="20" data-height="40">Hello</h1>
</section>
<section id="about" data-top="300" data-height="200"><p>About</p></section>
</body></html>`

func loadPage(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(page)
	require.NoError(t, err)
	return doc
}

func TestCaptureKeepsChangedProps(t *testing.T) {
	doc := loadPage(t)
	h1, err := doc.First("h1")
	require.NoError(t, err)
	require.NoError(t, h1.Apply(dom.Props{"opacity": 0.5, "y": 0}))

	f := Capture(doc, 3, 100*time.Millisecond, 50, 400, 300)
	assert.Equal(t, 3, f.Index)
	assert.InDelta(t, 0.1, f.Seconds, 1e-9)
	assert.Zero(t, doc.LayoutReads())

	var found bool
	for _, b := range f.Boxes {
		if b.Tag == "h1" {
			found = true
			assert.Equal(t, dom.Props{"opacity": 0.5}, b.Props)
		}
		assert.NotEqual(t, "p", b.Tag, "zero-height elements are skipped")
	}
	assert.True(t, found)
}

func TestScreenRectAppliesTransformAndScroll(t *testing.T) {
	b := Box{Rect: dom.Rect{Top: 100, Left: 0, Width: 200, Height: 100}, Props: dom.Props{"y": 20, "scale": 0.5}}
	r, ok := screenRect(b, 50)
	require.True(t, ok)
	assert.Equal(t, 50, r.Min.X)
	assert.Equal(t, 150, r.Max.X)
	assert.Equal(t, 95, r.Min.Y)
	assert.Equal(t, 145, r.Max.Y)

	b.Props = dom.Props{"clip": 0}
	_, ok = screenRect(b, 0)
	assert.False(t, ok)
}

func TestDrawSkipsInvisible(t *testing.T) {
	doc := loadPage(t)
	f := Capture(doc, 0, 0, 0, 400, 300)
	visible := Render(f)

	for _, el := range doc.Elements() {
		el.Set("opacity", 0)
	}
	blank := Render(Capture(doc, 0, 0, 0, 400, 300))

	assert.Equal(t, background, blank.RGBAAt(30, 30))
	assert.NotEqual(t, background, visible.RGBAAt(30, 30))
}

func TestWriteFrames(t *testing.T) {
	doc := loadPage(t)
	var frames []Frame
	for i := 0; i < 5; i++ {
		frames = append(frames, Capture(doc, i*2, time.Duration(i)*time.Second, float64(i*40), 400, 300))
	}

	w := NewWriter(t.TempDir(), 3)
	paths, err := w.WriteFrames(context.Background(), frames)
	require.NoError(t, err)
	require.Len(t, paths, 5)
	assert.Contains(t, paths[4], "frame_00004.png")

	f, err := os.Open(paths[2])
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
}

func TestWriteFramesCancelled(t *testing.T) {
	doc := loadPage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewWriter(t.TempDir(), 1).WriteFrames(ctx, []Frame{Capture(doc, 0, 0, 0, 40, 30)})
	assert.ErrorIs(t, err, context.Canceled)
}

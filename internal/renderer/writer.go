package renderer

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/scrollmotion/internal/system"
)

// FramePattern names snapshot files; ffmpeg reads the same pattern.
const FramePattern = "frame_%05d.png"

// Writer paints frames to PNG files with a bounded number of workers.
type Writer struct {
	Dir     string
	Workers int
	Pool    *system.ImagePool
	encoder png.Encoder
}

// NewWriter creates a writer into dir.
func NewWriter(dir string, workers int) *Writer {
	if workers <= 0 {
		workers = 1
	}
	return &Writer{
		Dir:     dir,
		Workers: workers,
		Pool:    system.NewImagePool(),
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
	}
}

// WriteFrames paints every frame in parallel and returns the written
// paths in frame order. Files are numbered by position in frames, not by
// Frame.Index, so the sequence has no gaps. The first error cancels the
// remaining work.
func (w *Writer) WriteFrames(ctx context.Context, frames []Frame) ([]string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}

	paths := make([]string, len(frames))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.Workers)

	for i, f := range frames {
		path := filepath.Join(w.Dir, fmt.Sprintf(FramePattern, i))
		paths[i] = path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return w.writeOne(path, f)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// Render paints f into a fresh image.
func Render(f Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	Draw(img, f)
	return img
}

func (w *Writer) writeOne(path string, f Frame) error {
	img := w.Pool.Get(image.Rect(0, 0, f.Width, f.Height))
	defer w.Pool.Put(img)
	Draw(img, f)

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	buf := bufio.NewWriter(out)
	if err := w.encoder.Encode(buf, img); err != nil {
		out.Close()
		return fmt.Errorf("encode frame %d: %w", f.Index, err)
	}
	if err := buf.Flush(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

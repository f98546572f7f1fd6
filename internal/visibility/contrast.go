// Package visibility audits rendered snapshots: after a session every
// section should show something, whatever its animations did. Content is
// found by edge density (Sobel gradient, dilation, connected regions), so
// a region painted flat is reported blank.
package visibility

import (
	"fmt"
	"image"
	"math"
	"sort"

	"golang.org/x/image/draw"
)

// Region is a named area of a snapshot, usually one section's box.
type Region struct {
	Name string
	Rect image.Rectangle
}

// Finding is the audit result for one region.
type Finding struct {
	Region  string          `yaml:"region"`
	Rect    image.Rectangle `yaml:"-"`
	Blocks  int             `yaml:"blocks"`
	Covered float64         `yaml:"covered"`
	Blank   bool            `yaml:"blank"`
}

// ContrastDetector finds content blocks with edge detection.
type ContrastDetector struct {
	MinBlockArea  int     // Minimum block area in pixels
	EdgeThreshold float64 // Gradient magnitude threshold
}

// NewContrastDetector creates a detector with default settings.
func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:  500,
		EdgeThreshold: 30.0,
	}
}

// Detect returns the bounding boxes of content blocks in img.
func (d *ContrastDetector) Detect(img image.Image) []image.Rectangle {
	edges := sobelEdges(luminance(img), d.EdgeThreshold)
	edges.rect = img.Bounds()

	var blocks []image.Rectangle
	for _, rect := range dilate(edges, 5, 2).regions() {
		if rect.Dx()*rect.Dy() >= d.MinBlockArea {
			blocks = append(blocks, rect)
		}
	}
	return blocks
}

// Audit checks each region of img for content. A region is blank when no
// detected block overlaps it. Regions outside the image are reported
// blank with zero coverage.
func (d *ContrastDetector) Audit(img image.Image, regions []Region) []Finding {
	blocks := d.Detect(img)
	out := make([]Finding, 0, len(regions))
	for _, r := range regions {
		f := Finding{Region: r.Name, Rect: r.Rect}
		clip := r.Rect.Intersect(img.Bounds())
		if area := clip.Dx() * clip.Dy(); area > 0 {
			covered := 0
			for _, b := range blocks {
				overlap := b.Intersect(clip)
				if overlap.Empty() {
					continue
				}
				f.Blocks++
				covered += overlap.Dx() * overlap.Dy()
			}
			f.Covered = math.Min(1, float64(covered)/float64(area))
		}
		f.Blank = f.Blocks == 0
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rect.Min.Y < out[j].Rect.Min.Y })
	return out
}

// Blank returns an error naming every blank region, or nil.
func Blank(findings []Finding) error {
	var names []string
	for _, f := range findings {
		if f.Blank {
			names = append(names, f.Region)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return fmt.Errorf("visibility: blank sections %v", names)
}

// mask is a binary image; rect is the area of the source image it covers.
type mask struct {
	rect image.Rectangle
	w, h int
	on   []bool
}

func newMask(r image.Rectangle) *mask {
	return &mask{rect: r, w: r.Dx(), h: r.Dy(), on: make([]bool, r.Dx()*r.Dy())}
}

// luminance returns img as 8-bit gray, moved to the origin.
func luminance(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// sobelEdges marks pixels whose gradient magnitude exceeds threshold. The
// one-pixel border is never marked.
func sobelEdges(gray *image.Gray, threshold float64) *mask {
	r := gray.Bounds()
	m := newMask(r)
	px := func(x, y int) float64 { return float64(gray.Pix[y*gray.Stride+x]) }
	limit := threshold * threshold
	for y := 1; y < m.h-1; y++ {
		for x := 1; x < m.w-1; x++ {
			tl, t, tr := px(x-1, y-1), px(x, y-1), px(x+1, y-1)
			l, rr := px(x-1, y), px(x+1, y)
			bl, b, br := px(x-1, y+1), px(x, y+1), px(x+1, y+1)
			gx := (tr + 2*rr + br) - (tl + 2*l + bl)
			gy := (bl + 2*b + br) - (tl + 2*t + tr)
			m.on[y*m.w+x] = gx*gx+gy*gy > limit
		}
	}
	return m
}

// dilate grows marked pixels by a square kernel, iterations times. Pixels
// within half a kernel of the border are left unmarked.
func dilate(m *mask, kernel, iterations int) *mask {
	half := kernel / 2
	cur := m
	for range iterations {
		next := newMask(m.rect)
		for y := half; y < m.h-half; y++ {
			for x := half; x < m.w-half; x++ {
				next.on[y*m.w+x] = cur.any(x-half, y-half, x+half, y+half)
			}
		}
		cur = next
	}
	return cur
}

func (m *mask) any(x0, y0, x1, y1 int) bool {
	for y := y0; y <= y1; y++ {
		row := m.on[y*m.w : (y+1)*m.w]
		for x := x0; x <= x1; x++ {
			if row[x] {
				return true
			}
		}
	}
	return false
}

// regions returns the bounding box of every 4-connected marked area, in
// the coordinates of the original image.
func (m *mask) regions() []image.Rectangle {
	seen := make([]bool, len(m.on))
	var out []image.Rectangle
	var stack []int
	for start, on := range m.on {
		if !on || seen[start] {
			continue
		}
		box := image.Rect(start%m.w, start/m.w, start%m.w+1, start/m.w+1)
		seen[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%m.w, i/m.w
			box = box.Union(image.Rect(x, y, x+1, y+1))
			for _, n := range [4]int{i - 1, i + 1, i - m.w, i + m.w} {
				switch {
				case n < 0 || n >= len(m.on):
					continue
				case n == i-1 && x == 0, n == i+1 && x == m.w-1:
					continue
				}
				if m.on[n] && !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
		}
		out = append(out, box.Add(m.rect.Min))
	}
	return out
}

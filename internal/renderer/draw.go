package renderer

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	background = color.RGBA{R: 0xfa, G: 0xfa, B: 0xf7, A: 0xff}
	ink        = color.RGBA{R: 0x1c, G: 0x1c, B: 0x1c, A: 0xff}
	palette    = []color.RGBA{
		{R: 0x3b, G: 0x6e, B: 0xa8, A: 0xff},
		{R: 0xd9, G: 0x7b, B: 0x29, A: 0xff},
		{R: 0x4e, G: 0x9a, B: 0x6a, A: 0xff},
		{R: 0xb3, G: 0x4a, B: 0x6b, A: 0xff},
		{R: 0x7a, G: 0x62, B: 0xb8, A: 0xff},
		{R: 0x8a, G: 0x8a, B: 0x80, A: 0xff},
	}
)

// Draw paints f into dst, which must be f.Width x f.Height. Boxes are
// painted in document order so children cover their parents. Rotation
// and skew are not drawn; translation, scale, clip and opacity are.
func Draw(dst *image.RGBA, f Frame) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	for _, b := range f.Boxes {
		r, ok := screenRect(b, f.ScrollY)
		if !ok {
			continue
		}
		r = r.Intersect(dst.Bounds())
		if r.Empty() {
			continue
		}
		alpha := clamp01(b.prop("opacity"))
		if alpha == 0 {
			continue
		}
		fill := shade(tint(b.Tag), alpha*0.35)
		draw.Draw(dst, r, image.NewUniform(fill), image.Point{}, draw.Over)
		outline(dst, r, shade(tint(b.Tag), alpha))
		label(dst, r, b, alpha)
	}
}

// screenRect applies the box's transform and the scroll offset.
func screenRect(b Box, scrollY float64) (image.Rectangle, bool) {
	w := b.Rect.Width * b.prop("scale") * b.prop("scaleX")
	h := b.Rect.Height * b.prop("scale") * b.prop("scaleY")
	h *= clamp01(b.prop("clip") / 100)
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}

	cx := b.Rect.Left + b.Rect.Width/2 + b.prop("x") + b.prop("xPercent")*b.Rect.Width/100
	cy := b.Rect.Top + b.Rect.Height/2 + b.prop("y") + b.prop("yPercent")*b.Rect.Height/100 - scrollY

	// Clip reveals from the top edge down.
	top := cy - b.Rect.Height*b.prop("scale")*b.prop("scaleY")/2
	return image.Rect(
		int(math.Round(cx-w/2)), int(math.Round(top)),
		int(math.Round(cx+w/2)), int(math.Round(top+h)),
	), true
}

func outline(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	src := image.NewUniform(c)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), src, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), src, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), src, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), src, image.Point{}, draw.Over)
}

func label(dst *image.RGBA, r image.Rectangle, b Box, alpha float64) {
	face := basicfont.Face7x13
	if r.Dy() < face.Height+4 {
		return
	}
	text := b.Text
	if v, ok := b.Props["count"]; ok {
		text = fmt.Sprintf("%.0f", v)
	}
	if text == "" {
		text = b.Label
	}
	maxRunes := (r.Dx() - 8) / face.Advance
	if maxRunes <= 0 {
		return
	}
	if runes := []rune(text); len(runes) > maxRunes {
		text = string(runes[:maxRunes])
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(shade(ink, alpha)),
		Face: face,
		Dot:  fixed.P(r.Min.X+4, r.Min.Y+4+face.Ascent),
	}
	d.DrawString(text)
}

// tint picks a stable colour per tag.
func tint(tag string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(tag))
	return palette[h.Sum32()%uint32(len(palette))]
}

// shade premultiplies c by alpha.
func shade(c color.RGBA, alpha float64) color.RGBA {
	a := clamp01(alpha)
	return color.RGBA{
		R: uint8(float64(c.R) * a),
		G: uint8(float64(c.G) * a),
		B: uint8(float64(c.B) * a),
		A: uint8(float64(c.A) * a),
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

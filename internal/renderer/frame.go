// Package renderer captures the animated document as frames and paints
// them into PNG snapshots.
package renderer

import (
	"time"

	"github.com/ivlev/scrollmotion/internal/dom"
)

// Box is one element as it appears in a frame.
type Box struct {
	Label string    `yaml:"element"`
	Tag   string    `yaml:"-"`
	Text  string    `yaml:"-"`
	Rect  dom.Rect  `yaml:"-"`
	Props dom.Props `yaml:"props,omitempty"`
}

// Frame is the visible state of the document at one instant.
type Frame struct {
	Index   int           `yaml:"index"`
	Time    time.Duration `yaml:"-"`
	Seconds float64       `yaml:"t"`
	ScrollY float64       `yaml:"scroll_y"`
	Width   int           `yaml:"-"`
	Height  int           `yaml:"-"`
	Boxes   []Box         `yaml:"elements,omitempty"`
}

// skipped tags never paint.
var skipped = map[string]bool{"html": true, "head": true, "body": true, "script": true, "style": true, "title": true, "meta": true, "link": true}

// Capture records every paintable element of doc. Props hold only values
// that differ from rest, so idle elements stay small in reports. Layout
// is read without touching the document's layout-read counter.
func Capture(doc *dom.Document, index int, now time.Duration, scrollY float64, width, height int) Frame {
	f := Frame{
		Index:   index,
		Time:    now,
		Seconds: now.Seconds(),
		ScrollY: scrollY,
		Width:   width,
		Height:  height,
	}
	for _, el := range doc.Elements() {
		if skipped[el.Tag()] {
			continue
		}
		r := el.Layout()
		if r.Height <= 0 || r.Width <= 0 {
			continue
		}
		props := el.Props()
		for k, v := range props {
			if v == dom.RestValue(k) {
				delete(props, k)
			}
		}
		if len(props) == 0 {
			props = nil
		}
		f.Boxes = append(f.Boxes, Box{
			Label: el.Describe(),
			Tag:   el.Tag(),
			Text:  el.Text(),
			Rect:  r,
			Props: props,
		})
	}
	return f
}

// prop reads a property with its rest value as default.
func (b Box) prop(name string) float64 {
	if v, ok := b.Props[name]; ok {
		return v
	}
	return dom.RestValue(name)
}

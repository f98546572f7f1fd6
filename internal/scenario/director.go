package scenario

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ivlev/scrollmotion/internal/dom"
)

// Director scaffolds a scenario from a document: one section per page
// block with effect presets picked from its content, and a script that
// scrolls through the blocks in reading order.
type Director struct {
	ViewportWidth  float64
	ViewportHeight float64
	MinDwell       float64 // Minimum time per section (seconds)
	MaxDwell       float64 // Maximum time per section (seconds)
}

// NewDirector creates a new Director with default settings
func NewDirector(viewportWidth, viewportHeight float64) *Director {
	return &Director{
		ViewportWidth:  viewportWidth,
		ViewportHeight: viewportHeight,
		MinDwell:       1.0,
		MaxDwell:       3.0,
	}
}

// blockSelector picks the elements treated as page sections.
const blockSelector = "header, section, footer, [data-section]"

// GenerateScenario creates a scenario for the document at input
func (d *Director) GenerateScenario(doc *dom.Document, input string, totalDuration float64) (*Scenario, error) {
	blocks, err := doc.Query(blockSelector)
	if err != nil {
		return nil, err
	}
	blocks = outermost(blocks)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no sections detected")
	}

	sorted := d.sortBlocks(blocks)
	dwellTime := d.calculateDwellTime(totalDuration, len(sorted))

	sc := &Scenario{
		Version:  "1.0",
		Document: input,
		Viewport: Viewport{Width: d.ViewportWidth, Height: d.ViewportHeight},
	}
	used := make(map[string]int)
	for i, el := range sorted {
		sec, err := d.section(doc, el, i, used)
		if err != nil {
			return nil, err
		}
		sc.Sections = append(sc.Sections, sec)
	}
	sc.Script = d.generateScript(sorted, dwellTime)
	sc.Duration = totalDuration
	if end := sc.Script[len(sc.Script)-1].At + dwellTime; end > sc.Duration {
		sc.Duration = end
	}
	return sc, nil
}

// outermost drops blocks nested in another block.
func outermost(blocks []*dom.Element) []*dom.Element {
	var out []*dom.Element
	for _, b := range blocks {
		nested := false
		for _, other := range blocks {
			if other != b && other.Contains(b) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, b)
		}
	}
	return out
}

// sortBlocks sorts blocks in reading order (top-to-bottom, left-to-right)
func (d *Director) sortBlocks(blocks []*dom.Element) []*dom.Element {
	type placed struct {
		el *dom.Element
		r  dom.Rect
	}
	tmp := make([]placed, len(blocks))
	for i, b := range blocks {
		tmp[i] = placed{b, b.Bounds()}
	}

	sort.SliceStable(tmp, func(i, j int) bool {
		// Threshold for "same row" (20 pixels)
		const threshold = 20.0

		yDiff := tmp[i].r.Top - tmp[j].r.Top
		if yDiff > threshold || yDiff < -threshold {
			return tmp[i].r.Top < tmp[j].r.Top
		}

		// Same row, sort by X
		return tmp[i].r.Left < tmp[j].r.Left
	})

	sorted := make([]*dom.Element, len(tmp))
	for i, p := range tmp {
		sorted[i] = p.el
	}
	return sorted
}

// calculateDwellTime determines how long the script lingers on each section
func (d *Director) calculateDwellTime(totalDuration float64, blockCount int) float64 {
	// Reserve time for the intro before the first scroll
	introDuration := 1.0
	availableDuration := totalDuration - introDuration

	if availableDuration <= 0 {
		availableDuration = totalDuration
	}

	dwellTime := availableDuration / float64(blockCount)

	// Clamp to min/max
	if dwellTime < d.MinDwell {
		dwellTime = d.MinDwell
	}
	if dwellTime > d.MaxDwell {
		dwellTime = d.MaxDwell
	}

	return dwellTime
}

// generateScript scrolls to each section top in turn.
func (d *Director) generateScript(blocks []*dom.Element, dwellTime float64) []Event {
	script := []Event{{At: 0, Action: ActionScroll, Value: 0}}

	currentTime := 1.0 // 1s intro
	for _, b := range blocks[1:] {
		script = append(script, Event{
			At:     currentTime,
			Action: ActionSmoothScroll,
			Value:  b.Bounds().Top,
		})
		currentTime += dwellTime
	}
	return script
}

func (d *Director) section(doc *dom.Document, el *dom.Element, index int, used map[string]int) (Section, error) {
	name := el.ID()
	if name == "" {
		name = fmt.Sprintf("%s-%d", el.Tag(), index+1)
	}
	sec := Section{Name: name, Selector: ownerSelector(el)}

	add := func(selector, effect string, to map[string]any) error {
		els, err := doc.QueryWithin(el, selector)
		if err != nil {
			return err
		}
		if len(els) == 0 {
			return nil
		}
		target := targetSelector(els[0], selector)
		if used[name+target] > 0 {
			return nil
		}
		used[name+target]++
		sec.Tweens = append(sec.Tweens, Tween{Target: target, Effect: effect, To: to})
		return nil
	}

	heading := "rise"
	if index == 0 {
		heading = "title-lines"
	}
	steps := []struct {
		selector string
		effect   string
	}{
		{"h1", heading},
		{"h2, h3", "rise"},
		{"[class*=card], [class*=item]", "fade-up"},
		{"p", "fade-up"},
		{"img, figure", "zoom-in"},
	}
	for _, s := range steps {
		if err := add(s.selector, s.effect, nil); err != nil {
			return sec, err
		}
	}

	counters, err := doc.QueryWithin(el, "[data-count]")
	if err != nil {
		return sec, err
	}
	for _, c := range counters {
		v, _ := c.Attr("data-count")
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		if err := add(targetSelector(c, "[data-count]"), "counter", map[string]any{"count": n}); err != nil {
			return sec, err
		}
	}
	return sec, nil
}

func ownerSelector(el *dom.Element) string {
	if id := el.ID(); id != "" {
		return "#" + id
	}
	return fmt.Sprintf("%s:nth-of-type(%d)", el.Tag(), el.NthOfType())
}

// targetSelector prefers the element's first class, which is how section
// markup groups repeated items.
func targetSelector(el *dom.Element, fallback string) string {
	if id := el.ID(); id != "" {
		return "#" + id
	}
	if cls := el.Classes(); len(cls) > 0 {
		return "." + cls[0]
	}
	if strings.ContainsAny(fallback, ",[") {
		return el.Tag()
	}
	return fallback
}

package trigger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPosition is returned for position strings that cannot be parsed.
var ErrInvalidPosition = errors.New("trigger: invalid position")

// Position pairs a point on the reference element with a line in the
// viewport, both as fractions of their own height. The trigger point is
// reached when the element point meets the viewport line.
type Position struct {
	Element  float64
	Viewport float64
}

// At is the "top <fraction>" position: the element's top edge crossing a
// viewport line at fraction of its height.
func At(fraction float64) Position {
	return Position{Element: 0, Viewport: fraction}
}

// Presets are the named start positions used by the site sections.
var Presets = map[string]string{
	"early":    "top 85%",
	"normal":   "top 75%",
	"late":     "top 60%",
	"veryLate": "top 50%",
	"top":      "top top",
}

// DefaultStart is used when a condition names no start.
const DefaultStart = "normal"

// DefaultEnd closes a scrubbed range when it names no end.
const DefaultEnd = "bottom top"

// ParsePosition parses "<element edge> <viewport line>", e.g. "top 80%",
// "center center" or "bottom top". Preset names are accepted too.
func ParsePosition(s string) (Position, error) {
	s = strings.TrimSpace(s)
	if p, ok := Presets[s]; ok {
		s = p
	}
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	el, err := edge(parts[0])
	if err != nil {
		return Position{}, fmt.Errorf("%w: %q: %v", ErrInvalidPosition, s, err)
	}
	vp, err := edge(parts[1])
	if err != nil {
		return Position{}, fmt.Errorf("%w: %q: %v", ErrInvalidPosition, s, err)
	}
	return Position{Element: el, Viewport: vp}, nil
}

// MustParsePosition is ParsePosition for constants.
func MustParsePosition(s string) Position {
	p, err := ParsePosition(s)
	if err != nil {
		panic(err)
	}
	return p
}

func edge(tok string) (float64, error) {
	switch tok {
	case "top":
		return 0, nil
	case "center":
		return 0.5, nil
	case "bottom":
		return 1, nil
	}
	if !strings.HasSuffix(tok, "%") {
		return 0, fmt.Errorf("unknown edge %q", tok)
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(tok, "%"), 64)
	if err != nil {
		return 0, err
	}
	return v / 100, nil
}

func (p Position) String() string {
	return fmt.Sprintf("%s %s", name(p.Element), name(p.Viewport))
}

func name(v float64) string {
	switch v {
	case 0:
		return "top"
	case 0.5:
		return "center"
	case 1:
		return "bottom"
	}
	return strconv.FormatFloat(v*100, 'f', -1, 64) + "%"
}

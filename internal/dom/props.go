package dom

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnsupportedProperty marks a property name that cannot be interpolated.
var ErrUnsupportedProperty = errors.New("unsupported property")

// UnsupportedPropertyError names the offending property.
type UnsupportedPropertyError struct {
	Property string
}

func (e *UnsupportedPropertyError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnsupportedProperty, e.Property)
}

func (e *UnsupportedPropertyError) Unwrap() error { return ErrUnsupportedProperty }

// Props is a bag of numeric render properties.
type Props map[string]float64

// rest holds the value every supported property has when nothing animates it.
var rest = Props{
	"opacity":  1,
	"x":        0,
	"y":        0,
	"xPercent": 0,
	"yPercent": 0,
	"scale":    1,
	"scaleX":   1,
	"scaleY":   1,
	"rotate":   0,
	"rotateX":  0,
	"rotateY":  0,
	"skewX":    0,
	"skewY":    0,
	"clip":     100,
	"count":    0,
}

// Supported reports whether name is an interpolable property.
func Supported(name string) bool {
	_, ok := rest[name]
	return ok
}

// RestValue returns the at-rest value of a supported property.
func RestValue(name string) float64 {
	return rest[name]
}

// RestProps returns the at-rest values for the given names, or for every
// supported property when none are given.
func RestProps(names ...string) Props {
	if len(names) == 0 {
		return rest.Clone()
	}
	out := make(Props, len(names))
	for _, n := range names {
		if v, ok := rest[n]; ok {
			out[n] = v
		}
	}
	return out
}

// Clone returns an independent copy.
func (p Props) Clone() Props {
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Keys returns the property names in sorted order.
func (p Props) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Split separates supported properties from unsupported names.
func (p Props) Split() (Props, []string) {
	ok := make(Props, len(p))
	var bad []string
	for _, k := range p.Keys() {
		if Supported(k) {
			ok[k] = p[k]
		} else {
			bad = append(bad, k)
		}
	}
	return ok, bad
}

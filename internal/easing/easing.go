// Package easing holds the easing curves used by the timeline engine.
// Every curve maps elapsed fraction in [0,1] to output fraction in [0,1].
package easing

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/harmonica"
)

// Func maps elapsed fraction to output fraction.
type Func func(t float64) float64

// ErrUnknown is returned by Lookup for names without a curve.
var ErrUnknown = errors.New("easing: unknown curve")

// Default is used when a tween names no curve.
const Default = "easeOut"

// Presets maps the site's semantic names to concrete curves.
var Presets = map[string]string{
	"smooth":    "power2.out",
	"energetic": "power3.out",
	"dramatic":  "power4.out",
	"linear":    "none",
}

var curves = map[string]Func{
	"none":      Linear,
	"linear":    Linear,
	"easeIn":    powerIn(3),
	"easeOut":   powerOut(3),
	"easeInOut": EaseInOutCubic,
	"sine.in":   func(t float64) float64 { return 1 - math.Cos(t*math.Pi/2) },
	"sine.out":  func(t float64) float64 { return math.Sin(t * math.Pi / 2) },
	"sine.inOut": func(t float64) float64 {
		return -(math.Cos(math.Pi*t) - 1) / 2
	},
	"expo.out": ExpoOut,
	"spring":   Spring,
}

func init() {
	// GSAP naming: powerN uses exponent N+1.
	for n := 1; n <= 4; n++ {
		name := fmt.Sprintf("power%d", n)
		curves[name+".in"] = powerIn(float64(n + 1))
		curves[name+".out"] = powerOut(float64(n + 1))
		curves[name+".inOut"] = powerInOut(float64(n + 1))
		curves[name] = curves[name+".out"]
	}
}

// Lookup resolves a curve or preset name. An empty name yields Default.
func Lookup(name string) (Func, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = Default
	}
	if alias, ok := Presets[name]; ok {
		name = alias
	}
	fn, ok := curves[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return clamped(fn), nil
}

// Names lists every accepted curve name, sorted.
func Names() []string {
	names := make([]string, 0, len(curves)+len(Presets))
	for n := range curves {
		names = append(names, n)
	}
	for n := range Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clamp01 limits v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Lerp performs linear interpolation between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamped(fn Func) Func {
	return func(t float64) float64 {
		t = Clamp01(t)
		if t == 0 {
			return 0
		}
		if t == 1 {
			return 1
		}
		return Clamp01(fn(t))
	}
}

// Linear is the identity curve.
func Linear(t float64) float64 { return t }

// EaseInOutCubic accelerates through the first half and decelerates
// through the second.
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// ExpoOut is the smooth-scroll curve, min(1, 1.001 - 2^(-10t)).
func ExpoOut(t float64) float64 {
	return math.Min(1, 1.001-math.Pow(2, -10*t))
}

func powerIn(p float64) Func {
	return func(t float64) float64 { return math.Pow(t, p) }
}

func powerOut(p float64) Func {
	return func(t float64) float64 { return 1 - math.Pow(1-t, p) }
}

func powerInOut(p float64) Func {
	return func(t float64) float64 {
		if t < 0.5 {
			return math.Pow(2*t, p) / 2
		}
		return 1 - math.Pow(-2*t+2, p)/2
	}
}

const springSamples = 240

// springTable is a critically damped spring from 0 to 1, sampled once.
var springTable = func() []float64 {
	s := harmonica.NewSpring(1.0/springSamples, 10.0, 1.0)
	table := make([]float64, springSamples+1)
	pos, vel := 0.0, 0.0
	for i := 1; i <= springSamples; i++ {
		pos, vel = s.Update(pos, vel, 1.0)
		table[i] = Clamp01(pos)
	}
	table[springSamples] = 1
	return table
}()

// Spring follows a critically damped spring settling at t=1.
func Spring(t float64) float64 {
	t = Clamp01(t)
	pos := t * springSamples
	i := int(pos)
	if i >= springSamples {
		return 1
	}
	return Lerp(springTable[i], springTable[i+1], pos-float64(i))
}

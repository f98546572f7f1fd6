package scenario

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/effects"
)

// ErrBadVar is returned for var map values of the wrong shape.
var ErrBadVar = errors.New("scenario: bad tween var")

// Seconds is a duration written in seconds or as a named duration.
type Seconds float64

// StaggerSeconds is a stagger gap written in seconds or as a named gap.
type StaggerSeconds float64

// Vars is a decoded GSAP-style var map.
type Vars struct {
	Duration *Seconds        `mapstructure:"duration"`
	Delay    *Seconds        `mapstructure:"delay"`
	Stagger  *StaggerSeconds `mapstructure:"stagger"`
	Ease     string          `mapstructure:"ease"`
	Repeat   *int            `mapstructure:"repeat"`
	Yoyo     *bool           `mapstructure:"yoyo"`
	Rest     map[string]any  `mapstructure:",remain"`

	// Props holds Rest converted to numbers.
	Props dom.Props `mapstructure:"-"`
}

func (s Seconds) Duration() time.Duration { return seconds(float64(s)) }

func (s StaggerSeconds) Duration() time.Duration { return seconds(float64(s)) }

func seconds(v float64) time.Duration {
	return time.Duration(math.Round(v * float64(time.Second)))
}

var (
	secondsType = reflect.TypeOf(Seconds(0))
	staggerType = reflect.TypeOf(StaggerSeconds(0))
)

// namedTiming resolves preset names for the timing types.
func namedTiming(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	name := data.(string)
	switch to {
	case secondsType:
		d, ok := effects.Durations[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown duration %q", ErrBadVar, name)
		}
		return Seconds(d.Seconds()), nil
	case staggerType:
		d, ok := effects.Staggers[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown stagger %q", ErrBadVar, name)
		}
		return StaggerSeconds(d.Seconds()), nil
	}
	return data, nil
}

// DecodeVars splits a var map into timing options and properties.
// Property values are numbers or named distances and rotations.
func DecodeVars(m map[string]any) (Vars, error) {
	var v Vars
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: namedTiming,
		Result:     &v,
	})
	if err != nil {
		return v, err
	}
	if err := dec.Decode(m); err != nil {
		return v, fmt.Errorf("%w: %v", ErrBadVar, err)
	}

	v.Props = make(dom.Props, len(v.Rest))
	for k, raw := range v.Rest {
		f, err := number(k, raw)
		if err != nil {
			return v, err
		}
		v.Props[k] = f
	}
	return v, nil
}

func number(key string, raw any) (float64, error) {
	switch n := raw.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		if d, ok := effects.Distances[n]; ok {
			return d, nil
		}
		if r, ok := effects.Rotations[n]; ok {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %s: %v is not a number", ErrBadVar, key, raw)
}

// merge overlays o onto v: set fields in o win.
func (v Vars) merge(o Vars) Vars {
	if o.Duration != nil {
		v.Duration = o.Duration
	}
	if o.Delay != nil {
		v.Delay = o.Delay
	}
	if o.Stagger != nil {
		v.Stagger = o.Stagger
	}
	if o.Ease != "" {
		v.Ease = o.Ease
	}
	if o.Repeat != nil {
		v.Repeat = o.Repeat
	}
	if o.Yoyo != nil {
		v.Yoyo = o.Yoyo
	}
	return v
}

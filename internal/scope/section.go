package scope

import (
	"github.com/ivlev/scrollmotion/internal/dom"
	"github.com/ivlev/scrollmotion/internal/preference"
)

// Section is a unit of page motion: an owner element and the setup that
// registers its animations.
type Section struct {
	Name string
	// Selector picks the owner element; empty means the whole document.
	Selector string
	// MinWidth disables motion below this viewport width; zero means any.
	MinWidth float64
	Setup    func(c *Context) error
}

// Mount is a mounted Section. It re-runs setup in a fresh context when the
// motion preference or the content key changes, and reverts on Unmount.
type Mount struct {
	animator *Animator
	section  Section
	owner    *dom.Element
	key      string
	ctx      *Context
	unsub    func()
	wide     bool
	runs     int
	mounted  bool
}

// Mount resolves the section owner and runs setup. A missing owner is a
// resolution error and nothing is mounted.
func (a *Animator) Mount(s Section, key string) (*Mount, error) {
	var owner *dom.Element
	if s.Selector != "" {
		els, err := a.doc.Query(s.Selector)
		if err != nil || len(els) == 0 {
			rerr := &SpecResolutionError{Section: s.Name, Selector: s.Selector, Err: err}
			a.diagnostic(s.Name, rerr)
			return nil, rerr
		}
		owner = els[0]
	}

	m := &Mount{animator: a, section: s, owner: owner, key: key, mounted: true}
	m.wide = m.fits()
	a.mounts = append(a.mounts, m)

	// Subscribe reports the current value at once; that is the first run.
	if a.prefs != nil {
		m.unsub = a.prefs.Subscribe(func(preference.Preference) { m.remount() })
	} else {
		m.remount()
	}
	return m, nil
}

// Section returns the mounted section.
func (m *Mount) Section() Section { return m.section }

// Context returns the context of the latest run.
func (m *Mount) Context() *Context { return m.ctx }

// Key returns the content key.
func (m *Mount) Key() string { return m.key }

// Runs returns how many times setup ran.
func (m *Mount) Runs() int { return m.runs }

// Mounted reports whether Unmount has not been called.
func (m *Mount) Mounted() bool { return m.mounted }

// SetKey changes the content key, re-running setup when it differs.
func (m *Mount) SetKey(key string) {
	if !m.mounted || key == m.key {
		return
	}
	m.key = key
	m.remount()
}

// Unmount reverts the current context and stops listening for changes.
// Unmounting twice is a no-op.
func (m *Mount) Unmount() {
	if !m.mounted {
		return
	}
	m.mounted = false
	if m.unsub != nil {
		m.unsub()
	}
	if m.ctx != nil {
		m.ctx.Revert()
	}
	a := m.animator
	for i, other := range a.mounts {
		if other == m {
			a.mounts = append(a.mounts[:i], a.mounts[i+1:]...)
			break
		}
	}
}

func (m *Mount) fits() bool {
	if m.section.MinWidth <= 0 || m.animator.registry == nil {
		return true
	}
	return m.animator.registry.Viewport().Width >= m.section.MinWidth
}

func (m *Mount) checkWidth() {
	if wide := m.fits(); wide != m.wide {
		m.wide = wide
		m.remount()
	}
}

func (m *Mount) remount() {
	if !m.mounted {
		return
	}
	if m.ctx != nil {
		m.ctx.Revert()
	}
	m.ctx = m.animator.NewContext(m.section.Name, m.owner)
	if !m.wide || m.section.Setup == nil {
		return
	}
	m.runs++
	m.ctx.Run(m.section.Setup)
}

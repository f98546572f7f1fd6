package preference

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Static is a query with a fixed answer.
type Static Preference

func (s Static) Matches() (bool, error) { return Preference(s) == Reduced, nil }

func (s Static) Watch(func(bool)) (func() error, error) {
	return func() error { return nil }, nil
}

// Switch is a query flipped programmatically, standing in for the OS
// setting in simulations and in the inspection API.
type Switch struct {
	mu       sync.Mutex
	reduced  bool
	watchers map[int]func(bool)
	next     int
}

// NewSwitch creates a switch with the given initial value.
func NewSwitch(p Preference) *Switch {
	return &Switch{reduced: p == Reduced, watchers: make(map[int]func(bool))}
}

func (s *Switch) Matches() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reduced, nil
}

func (s *Switch) Watch(onChange func(bool)) (func() error, error) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.watchers[id] = onChange
	s.mu.Unlock()
	return func() error {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
		return nil
	}, nil
}

// Set changes the value and notifies watchers when it differs.
func (s *Switch) Set(p Preference) {
	reduced := p == Reduced
	s.mu.Lock()
	if reduced == s.reduced {
		s.mu.Unlock()
		return
	}
	s.reduced = reduced
	watchers := make([]func(bool), 0, len(s.watchers))
	for _, w := range s.watchers {
		watchers = append(watchers, w)
	}
	s.mu.Unlock()

	for _, w := range watchers {
		w(reduced)
	}
}

// FileQuery reads the preference from a small text file ("reduce" or
// "no-preference") and watches it with fsnotify. The parent directory is
// watched so editors that replace the file by rename are seen too.
type FileQuery struct {
	Path string
}

func (q FileQuery) Matches() (bool, error) {
	p, err := q.read()
	if err != nil {
		return false, err
	}
	return p == Reduced, nil
}

func (q FileQuery) read() (Preference, error) {
	data, err := os.ReadFile(q.Path)
	if err != nil {
		return Normal, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return Parse(strings.TrimSpace(string(data)))
}

func (q FileQuery) Watch(onChange func(bool)) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := watcher.Add(filepath.Dir(q.Path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	target := filepath.Clean(q.Path)
	last, _ := q.read()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				p, err := q.read()
				if err != nil || p == last {
					continue
				}
				last = p
				onChange(p == Reduced)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return func() error {
		err := watcher.Close()
		<-done
		return err
	}, nil
}

// Delivered wraps a query so change notifications run through post. Pass a
// TickerPump's Post to keep subscribers on the frame loop goroutine when
// the query watches from its own goroutine.
type Delivered struct {
	Query MediaQuery
	Post  func(func())
}

func (d Delivered) Matches() (bool, error) { return d.Query.Matches() }

func (d Delivered) Watch(onChange func(bool)) (func() error, error) {
	return d.Query.Watch(func(reduced bool) {
		d.Post(func() { onChange(reduced) })
	})
}

// Package res tracks owned GPU objects and releases them in reverse creation
// order exactly once.
package res

import (
	"fmt"
	"sync"
)

// Releaser is implemented by every wgpu object.
type Releaser interface {
	Release()
}

// ReleaseFunc adapts a plain function to Releaser.
type ReleaseFunc func()

func (f ReleaseFunc) Release() { f() }

// Handle is one owned object. Releasing it a second time does nothing.
type Handle struct {
	Label    string
	obj      Releaser
	released bool
}

func (h *Handle) Release() {
	if h == nil || h.released || h.obj == nil {
		return
	}
	h.released = true
	h.obj.Release()
}

func (h *Handle) Released() bool { return h == nil || h.released }

// Tracker owns handles, and nested trackers, in creation order.
type Tracker struct {
	mu      sync.Mutex
	name    string
	entries []Releaser

	// OnRelease, when set, is called with each label as it is released.
	OnRelease func(label string)
}

func NewTracker(name string) *Tracker {
	return &Tracker{name: name}
}

// Track registers obj under label and returns its handle. A nil obj is not
// tracked and yields nil.
func (t *Tracker) Track(label string, obj Releaser) *Handle {
	if obj == nil {
		return nil
	}
	h := &Handle{Label: label, obj: obj}
	t.mu.Lock()
	t.entries = append(t.entries, h)
	t.mu.Unlock()
	return h
}

// Sub returns a child tracker released together with t, which may also be
// released on its own and then reused.
func (t *Tracker) Sub(name string) *Tracker {
	child := &Tracker{name: t.name + "/" + name, OnRelease: t.OnRelease}
	t.mu.Lock()
	t.entries = append(t.entries, child)
	t.mu.Unlock()
	return child
}

func (t *Tracker) Name() string { return t.name }

// Len reports the number of live entries.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, e := range t.entries {
		switch e := e.(type) {
		case *Handle:
			if !e.Released() {
				n++
			}
		case *Tracker:
			n += e.Len()
		}
	}
	return n
}

// Release is ReleaseAll, so a Tracker can nest inside another.
func (t *Tracker) Release() { t.ReleaseAll() }

// ReleaseAll releases every entry, newest first. Released entries are
// forgotten, so the tracker can be filled again afterwards.
func (t *Tracker) ReleaseAll() {
	t.mu.Lock()
	entries := t.entries
	t.entries = nil
	t.mu.Unlock()

	for i := len(entries) - 1; i >= 0; i-- {
		switch e := entries[i].(type) {
		case *Handle:
			if e.Released() {
				continue
			}
			if t.OnRelease != nil {
				t.OnRelease(e.Label)
			}
			e.Release()
		default:
			e.Release()
		}
	}
}

func (t *Tracker) String() string {
	return fmt.Sprintf("tracker %s (%d live)", t.name, t.Len())
}

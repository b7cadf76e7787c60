// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package speech turns recognized utterances into clicks on
// the elements under the pointer.
package speech

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/gviegas/xrcube/internal/log"
)

// ErrDuplicate means that an element is already
// registered.
var ErrDuplicate = errors.New("speech: element already registered")

// Result is a recognition result. Only its presence
// matters to the dispatcher.
type Result struct {
	Transcript string
	Confidence float32
	Final      bool
}

type target struct {
	id      string
	click   func()
	hovered bool
}

// Dispatcher maps element identifiers to click handlers and
// tracks which elements are hovered.
// It is safe for concurrent use.
type Dispatcher struct {
	log *zap.Logger

	mu      sync.Mutex
	targets []*target
	index   map[string]*target
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher(l *zap.Logger) *Dispatcher {
	return &Dispatcher{
		log:   log.OrNop(l),
		index: make(map[string]*target),
	}
}

// Register associates click with the element id.
func (d *Dispatcher) Register(id string, click func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.index[id]; ok {
		return ErrDuplicate
	}
	t := &target{id: id, click: click}
	d.targets = append(d.targets, t)
	d.index[id] = t
	return nil
}

// SetHover records whether the pointer is over the element
// id. Unknown elements are ignored.
func (d *Dispatcher) SetHover(id string, hovered bool) {
	d.mu.Lock()
	if t, ok := d.index[id]; ok {
		t.hovered = hovered
	}
	d.mu.Unlock()
}

// Hovered returns the identifiers of the hovered elements,
// in registration order.
func (d *Dispatcher) Hovered() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var ids []string
	for _, t := range d.targets {
		if t.hovered {
			ids = append(ids, t.id)
		}
	}
	return ids
}

// Dispatch handles a recognition event carrying results.
// If there is at least one result, the click handler of
// every hovered element is called, in registration order.
// It returns the number of handlers called.
func (d *Dispatcher) Dispatch(results []Result) int {
	if len(results) == 0 {
		return 0
	}
	d.mu.Lock()
	var clicks []func()
	for _, t := range d.targets {
		if t.hovered {
			clicks = append(clicks, t.click)
		}
	}
	d.mu.Unlock()
	if len(clicks) > 0 {
		d.log.Debug("speech dispatch",
			zap.String("transcript", results[len(results)-1].Transcript),
			zap.Int("targets", len(clicks)))
	}
	for _, fn := range clicks {
		fn()
	}
	return len(clicks)
}

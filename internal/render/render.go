package render

import "swissknife/internal/events"

// Renderer emits events to an output target. Implementations must be safe for
// concurrent use, since batch runs emit from several goroutines.
type Renderer interface {
	Emit(events.Event)
	Close() error
}

// Multi fans events out to several renderers.
type Multi []Renderer

func (m Multi) Emit(event events.Event) {
	for _, r := range m {
		if r != nil {
			r.Emit(event)
		}
	}
}

func (m Multi) Close() error {
	var first error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

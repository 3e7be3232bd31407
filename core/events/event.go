package events

import "swiftremit/core/types"

// Event represents a structured state change emitted by the contract.
type Event interface {
	EventType() string
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Buffer holds the events of one invocation until the host decides whether the
// invocation commits. Events of a failed invocation are dropped with Discard.
type Buffer struct {
	pending []Event
}

// Emit implements the Emitter interface.
func (b *Buffer) Emit(evt Event) {
	if evt == nil {
		return
	}
	b.pending = append(b.pending, evt)
}

// Flush forwards the buffered events to sink in emission order.
func (b *Buffer) Flush(sink Emitter) {
	if sink != nil {
		for _, evt := range b.pending {
			sink.Emit(evt)
		}
	}
	b.pending = nil
}

// Discard drops every buffered event.
func (b *Buffer) Discard() { b.pending = nil }

// Len reports the number of buffered events.
func (b *Buffer) Len() int { return len(b.pending) }

// Recorder keeps every emitted event. Tests and the audit tooling use it as a
// sink.
type Recorder struct {
	Events []*types.Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if evt == nil {
		return
	}
	if payload := evt.Event(); payload != nil {
		r.Events = append(r.Events, payload)
	}
}

// OfType returns the recorded events with the supplied type.
func (r *Recorder) OfType(eventType string) []*types.Event {
	var out []*types.Event
	for _, evt := range r.Events {
		if evt.Type == eventType {
			out = append(out, evt)
		}
	}
	return out
}

package events

// Event represents a structured state change emitted by the contract core.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is the default for engines whose caller did not ask for notifications.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// CaptureEmitter records every emitted event in order. Intended for tests and
// for callers that drain events after each operation.
type CaptureEmitter struct {
	events []Event
}

// Emit implements the Emitter interface.
func (c *CaptureEmitter) Emit(evt Event) {
	if c == nil || evt == nil {
		return
	}
	c.events = append(c.events, evt)
}

// Events returns the captured events in emission order.
func (c *CaptureEmitter) Events() []Event {
	if c == nil {
		return nil
	}
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Reset discards all captured events.
func (c *CaptureEmitter) Reset() {
	if c != nil {
		c.events = nil
	}
}

package reveal

import (
	"strconv"
	"strings"

	"promptmint/core/events"
	"promptmint/core/types"
)

const (
	// EventTypePlaceholderUpdated is emitted when the shared placeholder
	// metadata reference changes.
	EventTypePlaceholderUpdated = "reveal.placeholder.updated"
	// EventTypeTokensRevealed is emitted once per successful reveal batch.
	EventTypeTokensRevealed = "reveal.tokens.revealed"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

// PlaceholderUpdatedEvent captures a change of the shared placeholder URI.
func PlaceholderUpdatedEvent(uri string) *types.Event {
	return &types.Event{
		Type: EventTypePlaceholderUpdated,
		Attributes: map[string]string{
			"uri": uri,
		},
	}
}

// TokensRevealedEvent carries the full list of token identifiers revealed in
// one batch, comma separated in ascending call order.
func TokensRevealedEvent(tokenIDs []uint64) *types.Event {
	ids := make([]string, len(tokenIDs))
	for i, id := range tokenIDs {
		ids[i] = strconv.FormatUint(id, 10)
	}
	return &types.Event{
		Type: EventTypeTokensRevealed,
		Attributes: map[string]string{
			"tokenIds": strings.Join(ids, ","),
			"count":    strconv.Itoa(len(tokenIDs)),
		},
	}
}

package mint

import (
	"strconv"

	"promptmint/core/events"
	"promptmint/core/types"
)

const (
	// EventTypeBatchIssued is emitted for every successful issuance call.
	EventTypeBatchIssued = "mint.batch.issued"
	// EventTypePriceUpdated is emitted when the per-token price changes.
	EventTypePriceUpdated = "mint.price.updated"
	// EventTypeAuthorClaimed is emitted when an author withdraws their share.
	EventTypeAuthorClaimed = "mint.author.claimed"
	// EventTypeTreasuryWithdrawn is emitted when the treasury is emptied.
	EventTypeTreasuryWithdrawn = "mint.treasury.withdrawn"
	// EventTypePaymentReceived is emitted for unsolicited direct payments.
	EventTypePaymentReceived = "mint.payment.received"
	// EventTypeSeasonEnded is emitted once when issuance closes permanently.
	EventTypeSeasonEnded = "mint.season.ended"
	// EventTypeRewardsSwept is emitted when stale author balances are
	// reclaimed into the treasury.
	EventTypeRewardsSwept = "mint.rewards.swept"
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

// BatchIssuedEvent returns the structured event payload for a completed
// issuance call.
func BatchIssuedEvent(caller, author string, startTokenID uint64, quantity uint32, payment string) *types.Event {
	return &types.Event{
		Type: EventTypeBatchIssued,
		Attributes: map[string]string{
			"caller":       caller,
			"author":       author,
			"startTokenId": strconv.FormatUint(startTokenID, 10),
			"quantity":     strconv.FormatUint(uint64(quantity), 10),
			"payment":      payment,
		},
	}
}

// PriceUpdatedEvent captures a prospective price change.
func PriceUpdatedEvent(oldPrice, newPrice string) *types.Event {
	return &types.Event{
		Type: EventTypePriceUpdated,
		Attributes: map[string]string{
			"oldPrice": oldPrice,
			"newPrice": newPrice,
		},
	}
}

// AuthorClaimedEvent captures a successful author payout.
func AuthorClaimedEvent(author string, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeAuthorClaimed,
		Attributes: map[string]string{
			"author": author,
			"amount": amount,
		},
	}
}

// TreasuryWithdrawnEvent captures a successful treasury payout.
func TreasuryWithdrawnEvent(recipient string, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeTreasuryWithdrawn,
		Attributes: map[string]string{
			"recipient": recipient,
			"amount":    amount,
		},
	}
}

// PaymentReceivedEvent captures an unsolicited direct payment.
func PaymentReceivedEvent(sender string, amount string) *types.Event {
	return &types.Event{
		Type: EventTypePaymentReceived,
		Attributes: map[string]string{
			"sender": sender,
			"amount": amount,
		},
	}
}

// SeasonEndedEvent captures the permanent close of the issuance window.
func SeasonEndedEvent(endedAt int64) *types.Event {
	return &types.Event{
		Type: EventTypeSeasonEnded,
		Attributes: map[string]string{
			"endedAt": strconv.FormatInt(endedAt, 10),
		},
	}
}

// RewardsSweptEvent summarises one sweep over stale author balances.
func RewardsSweptEvent(totalSwept string, authorsSwept int) *types.Event {
	return &types.Event{
		Type: EventTypeRewardsSwept,
		Attributes: map[string]string{
			"totalSwept":   totalSwept,
			"authorsSwept": strconv.Itoa(authorsSwept),
		},
	}
}

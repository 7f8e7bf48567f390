package mint

import (
	"math/big"
	"strconv"

	"github.com/0xhanvalen/skaterbirds-nft/core/events"
	"github.com/0xhanvalen/skaterbirds-nft/core/types"
	"github.com/0xhanvalen/skaterbirds-nft/crypto"
)

const (
	// EventTypePurchased is emitted when a purchase is admitted.
	EventTypePurchased = "mint.purchased"
	// EventTypeSaleToggled is emitted whenever the owner sets the sale flag.
	EventTypeSaleToggled = "mint.sale.toggled"
	// EventTypeWithdrawn is emitted after the treasury is drained to the owner.
	EventTypeWithdrawn = "mint.treasury.withdrawn"
	// EventTypeWithdrawFailed is emitted when the payee rejects a withdrawal.
	EventTypeWithdrawFailed = "mint.treasury.withdraw_failed"
	// EventTypeWithdrawUnconfirmed is emitted when funds left but the payee
	// could not confirm the transfer.
	EventTypeWithdrawUnconfirmed = "mint.treasury.withdraw_unconfirmed"
	// EventTypeOwnerTransferred is emitted when ownership moves to a new wallet.
	EventTypeOwnerTransferred = "mint.owner.transferred"
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

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }

func formatWei(v *big.Int) string { return newBigInt(v).String() }

// PurchasedEvent describes an accepted purchase.
func PurchasedEvent(r *Receipt) *types.Event {
	return &types.Event{
		Type: EventTypePurchased,
		Attributes: map[string]string{
			"buyer":        crypto.FormatAddress(r.Buyer),
			"quantity":     formatUint(r.Quantity),
			"firstTokenId": formatUint(r.FirstTokenID),
			"lastTokenId":  formatUint(r.LastTokenID),
			"paid":         formatWei(r.Paid),
			"required":     formatWei(r.Required),
			"issued":       formatUint(r.Issued),
		},
	}
}

// SaleToggledEvent captures the new sale flag.
func SaleToggledEvent(owner [20]byte, enabled bool) *types.Event {
	return &types.Event{
		Type: EventTypeSaleToggled,
		Attributes: map[string]string{
			"owner":   crypto.FormatAddress(owner),
			"enabled": strconv.FormatBool(enabled),
		},
	}
}

// WithdrawnEvent captures a completed drain.
func WithdrawnEvent(w *Withdrawal) *types.Event {
	return &types.Event{
		Type: EventTypeWithdrawn,
		Attributes: map[string]string{
			"owner":     crypto.FormatAddress(w.Owner),
			"amount":    formatWei(w.Amount),
			"reference": w.Reference,
		},
	}
}

// WithdrawFailedEvent records a rejected transfer; the amount stays in the treasury.
func WithdrawFailedEvent(owner [20]byte, amount *big.Int, reason string) *types.Event {
	return &types.Event{
		Type: EventTypeWithdrawFailed,
		Attributes: map[string]string{
			"owner":  crypto.FormatAddress(owner),
			"amount": formatWei(amount),
			"reason": reason,
		},
	}
}

// WithdrawUnconfirmedEvent records a sent but unconfirmed drain. The amount
// is not back in the treasury.
func WithdrawUnconfirmedEvent(w *Withdrawal, reason string) *types.Event {
	return &types.Event{
		Type: EventTypeWithdrawUnconfirmed,
		Attributes: map[string]string{
			"owner":     crypto.FormatAddress(w.Owner),
			"amount":    formatWei(w.Amount),
			"reference": w.Reference,
			"reason":    reason,
		},
	}
}

// OwnerTransferredEvent captures an ownership hand-over.
func OwnerTransferredEvent(previous, next [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeOwnerTransferred,
		Attributes: map[string]string{
			"previous": crypto.FormatAddress(previous),
			"owner":    crypto.FormatAddress(next),
		},
	}
}

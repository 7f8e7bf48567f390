package events

import (
	"math/big"

	"github.com/0xhanvalen/skaterbirds-nft/core/types"
	"github.com/0xhanvalen/skaterbirds-nft/crypto"
)

const (
	// TypeTransfer is emitted when the bank moves funds into an account.
	TypeTransfer = "bank.transfer"
	// TypeTransferRejected is emitted when the destination refused a deposit.
	TypeTransferRejected = "bank.transfer.rejected"
)

// Transfer records a completed bank credit.
type Transfer struct {
	To        [20]byte
	Amount    *big.Int
	Reference string
}

func (Transfer) EventType() string { return TypeTransfer }

func (e Transfer) Event() *types.Event {
	attrs := map[string]string{
		"to":     crypto.FormatAddress(e.To),
		"amount": formatWei(e.Amount),
	}
	if e.Reference != "" {
		attrs["reference"] = e.Reference
	}
	return &types.Event{Type: TypeTransfer, Attributes: attrs}
}

// TransferRejected records a credit the destination account refused.
type TransferRejected struct {
	To     [20]byte
	Amount *big.Int
	Reason string
}

func (TransferRejected) EventType() string { return TypeTransferRejected }

func (e TransferRejected) Event() *types.Event {
	return &types.Event{Type: TypeTransferRejected, Attributes: map[string]string{
		"to":     crypto.FormatAddress(e.To),
		"amount": formatWei(e.Amount),
		"reason": e.Reason,
	}}
}

func formatWei(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/0xhanvalen/skaterbirds-nft/native/mint"
)

// ErrNotConfigured is returned by the placeholder wallet used when no
// treasury destination has been wired.
var ErrNotConfigured = errors.New("wallet: treasury wallet not configured")

// Wallet captures the functionality the treasury requires from a payout
// destination.
type Wallet interface {
	Transfer(ctx context.Context, to [20]byte, amount *big.Int) (string, error)
	WaitForConfirmations(ctx context.Context, reference string, confirmations int, pollInterval time.Duration) error
}

// FuncWallet adapts callback functions to the Wallet interface.
type FuncWallet struct {
	TransferFunc func(ctx context.Context, to [20]byte, amount *big.Int) (string, error)
	ConfirmFunc  func(ctx context.Context, reference string, confirmations int, pollInterval time.Duration) error
}

// Transfer delegates to the configured callback.
func (w FuncWallet) Transfer(ctx context.Context, to [20]byte, amount *big.Int) (string, error) {
	if w.TransferFunc == nil {
		return "", ErrNotConfigured
	}
	return w.TransferFunc(ctx, to, amount)
}

// WaitForConfirmations delegates to the configured callback.
func (w FuncWallet) WaitForConfirmations(ctx context.Context, reference string, confirmations int, pollInterval time.Duration) error {
	if w.ConfirmFunc == nil {
		return nil
	}
	return w.ConfirmFunc(ctx, reference, confirmations, pollInterval)
}

// Transferer is satisfied by in-process ledgers such as the bank.
type Transferer interface {
	Transfer(ctx context.Context, to [20]byte, amount *big.Int) (string, error)
}

// FromTransferer wraps an in-process ledger whose transfers settle
// immediately.
func FromTransferer(t Transferer) Wallet {
	return FuncWallet{TransferFunc: t.Transfer}
}

// Unconfigured returns a wallet whose transfers always fail.
func Unconfigured() Wallet {
	return FuncWallet{
		TransferFunc: func(context.Context, [20]byte, *big.Int) (string, error) {
			return "", ErrNotConfigured
		},
	}
}

// Payee adapts a wallet to the treasury's payee contract. A transfer only
// counts as successful once it reached the requested confirmations.
type Payee struct {
	Wallet        Wallet
	Confirmations int
	PollInterval  time.Duration
}

// Transfer sends amount to to and waits for confirmation. A confirmation
// failure after a successful send returns the reference with an error
// wrapping mint.ErrTransferUnconfirmed, so the treasury is not refunded.
func (p Payee) Transfer(ctx context.Context, to [20]byte, amount *big.Int) (string, error) {
	if p.Wallet == nil {
		return "", ErrNotConfigured
	}
	reference, err := p.Wallet.Transfer(ctx, to, amount)
	if err != nil {
		return "", err
	}
	if p.Confirmations > 0 {
		if err := p.Wallet.WaitForConfirmations(ctx, reference, p.Confirmations, p.PollInterval); err != nil {
			return reference, fmt.Errorf("wallet: confirm %s: %w: %w", reference, mint.ErrTransferUnconfirmed, err)
		}
	}
	return reference, nil
}

package mint

import (
	"context"
	"errors"
	"fmt"
	"math/big"
)

// Payee moves funds out of the treasury to a wallet. Implementations return
// an opaque transfer reference on success.
type Payee interface {
	Transfer(ctx context.Context, to [20]byte, amount *big.Int) (string, error)
}

// PayeeFunc adapts a function to the Payee interface.
type PayeeFunc func(ctx context.Context, to [20]byte, amount *big.Int) (string, error)

// Transfer implements Payee.
func (f PayeeFunc) Transfer(ctx context.Context, to [20]byte, amount *big.Int) (string, error) {
	return f(ctx, to, amount)
}

// credit is the only path that grows the treasury. It is called by Purchase
// with the mutex held.
func (e *Engine) credit(balance, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	return addAmount(balance, amount)
}

// Withdraw transfers the whole treasury to the owner. The balance is zeroed
// and persisted before the payee is invoked, so a payee that calls back into
// the engine cannot drain twice; if the transfer fails the amount is credited
// back and ErrTransferFailed is returned. A payee error wrapping
// ErrTransferUnconfirmed means the funds left and is settled like a success,
// apart from the returned error. An empty treasury is a successful no-op that
// never reaches the payee.
func (e *Engine) Withdraw(ctx context.Context, caller [20]byte) (*Withdrawal, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if ctx == nil {
		ctx = context.Background()
	}

	e.mu.Lock()
	if err := e.access.RequireOwner(caller); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	if e.withdrawing {
		e.mu.Unlock()
		return nil, ErrWithdrawalInProgress
	}
	ledger, err := e.loadLedger()
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	owner := ledger.Owner
	amount := newBigInt(ledger.Treasury)
	if amount.Sign() == 0 {
		e.mu.Unlock()
		return &Withdrawal{Owner: owner, Amount: amount}, nil
	}
	payee := e.payee
	if payee == nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, ErrPayeeNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	drained := ledger.Clone()
	drained.Treasury = big.NewInt(0)
	drained.UpdatedAt = e.nowUnix()
	if err := e.state.MintCommit(&Commit{Ledger: drained}); err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("mint engine: persist withdrawal: %w", err)
	}
	e.withdrawing = true
	e.mu.Unlock()

	reference, transferErr := payee.Transfer(ctx, owner, new(big.Int).Set(amount))

	e.mu.Lock()
	defer e.mu.Unlock()
	e.withdrawing = false
	if errors.Is(transferErr, ErrTransferUnconfirmed) {
		result := &Withdrawal{Owner: owner, Amount: amount, Reference: reference}
		if err := e.settle(amount); err != nil {
			return nil, errors.Join(transferErr, err)
		}
		e.emit(WithdrawUnconfirmedEvent(result, transferErr.Error()))
		return nil, fmt.Errorf("mint engine: withdrawal %q: %w", reference, transferErr)
	}
	if transferErr != nil {
		if err := e.restore(amount); err != nil {
			return nil, errors.Join(fmt.Errorf("%w: %w", ErrTransferFailed, transferErr), err)
		}
		e.emit(WithdrawFailedEvent(owner, amount, transferErr.Error()))
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, transferErr)
	}
	if err := e.settle(amount); err != nil {
		return nil, err
	}
	result := &Withdrawal{Owner: owner, Amount: amount, Reference: reference}
	e.emit(WithdrawnEvent(result))
	return result, nil
}

// settle adds a paid-out amount to the withdrawn total.
func (e *Engine) settle(amount *big.Int) error {
	current, err := e.loadLedger()
	if err != nil {
		return err
	}
	withdrawn, err := addAmount(current.Withdrawn, amount)
	if err != nil {
		// Withdrawn is informational; keep the previous total on overflow.
		withdrawn = current.Withdrawn
	}
	settled := current.Clone()
	settled.Withdrawn = withdrawn
	settled.UpdatedAt = e.nowUnix()
	if err := e.state.MintCommit(&Commit{Ledger: settled}); err != nil {
		return fmt.Errorf("mint engine: persist withdrawal total: %w", err)
	}
	return nil
}

// restore credits a failed withdrawal back. Purchases admitted while the
// transfer was in flight are preserved because the amount is added to the
// current balance rather than overwriting it.
func (e *Engine) restore(amount *big.Int) error {
	current, err := e.loadLedger()
	if err != nil {
		return err
	}
	balance, err := addAmount(current.Treasury, amount)
	if err != nil {
		return err
	}
	restored := current.Clone()
	restored.Treasury = balance
	restored.UpdatedAt = e.nowUnix()
	if err := e.state.MintCommit(&Commit{Ledger: restored}); err != nil {
		return fmt.Errorf("mint engine: restore treasury: %w", err)
	}
	return nil
}

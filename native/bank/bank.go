package bank

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/0xhanvalen/skaterbirds-nft/core/events"
	"github.com/0xhanvalen/skaterbirds-nft/core/types"
)

var (
	// ErrDepositsRejected is returned when the destination account refuses
	// incoming transfers.
	ErrDepositsRejected = errors.New("bank: account rejects deposits")
	// ErrInvalidAmount signals a nil, zero or negative transfer amount.
	ErrInvalidAmount = errors.New("bank: invalid amount")
	// ErrBalanceOverflow is returned when a credit would exceed 256 bits.
	ErrBalanceOverflow = errors.New("bank: balance overflow")
	// ErrNilState indicates the bank was constructed without a backing store.
	ErrNilState = errors.New("bank: state not configured")
)

type bankState interface {
	BankAccountGet(addr [20]byte) (*types.Account, bool, error)
	BankAccountPut(addr [20]byte, account *types.Account) error
}

// Bank is an in-process account ledger. It is the default destination for
// treasury withdrawals and satisfies the mint Payee interface.
type Bank struct {
	mu      sync.Mutex
	state   bankState
	emitter events.Emitter
	newRef  func() string
}

// New constructs a bank over state.
func New(state bankState) *Bank {
	return &Bank{
		state:   state,
		emitter: events.NoopEmitter{},
		newRef:  func() string { return uuid.NewString() },
	}
}

// SetEmitter configures the event emitter used by the bank.
func (b *Bank) SetEmitter(emitter events.Emitter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if emitter == nil {
		b.emitter = events.NoopEmitter{}
		return
	}
	b.emitter = emitter
}

func (b *Bank) account(addr [20]byte) (*types.Account, error) {
	account, ok, err := b.state.BankAccountGet(addr)
	if err != nil {
		return nil, fmt.Errorf("bank: load account: %w", err)
	}
	if !ok || account == nil {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	if account.Balance == nil {
		account.Balance = big.NewInt(0)
	}
	return account, nil
}

// BalanceOf returns the spendable balance held for addr.
func (b *Bank) BalanceOf(addr [20]byte) (*big.Int, error) {
	if b == nil || b.state == nil {
		return nil, ErrNilState
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	account, err := b.account(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(account.Balance), nil
}

// SetRejectDeposits toggles whether addr accepts incoming transfers.
func (b *Bank) SetRejectDeposits(addr [20]byte, reject bool) error {
	if b == nil || b.state == nil {
		return ErrNilState
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	account, err := b.account(addr)
	if err != nil {
		return err
	}
	account.RejectDeposits = reject
	if err := b.state.BankAccountPut(addr, account); err != nil {
		return fmt.Errorf("bank: persist account: %w", err)
	}
	return nil
}

// Transfer credits amount to the account at to and returns a unique
// reference for the movement.
func (b *Bank) Transfer(ctx context.Context, to [20]byte, amount *big.Int) (string, error) {
	if b == nil || b.state == nil {
		return "", ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return "", ErrInvalidAmount
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	account, err := b.account(to)
	if err != nil {
		return "", err
	}
	if account.RejectDeposits {
		b.emitter.Emit(events.TransferRejected{To: to, Amount: new(big.Int).Set(amount), Reason: ErrDepositsRejected.Error()})
		return "", ErrDepositsRejected
	}
	current, overflow := uint256.FromBig(account.Balance)
	if overflow {
		return "", ErrBalanceOverflow
	}
	delta, overflow := uint256.FromBig(amount)
	if overflow {
		return "", ErrBalanceOverflow
	}
	sum, overflow := new(uint256.Int).AddOverflow(current, delta)
	if overflow {
		return "", ErrBalanceOverflow
	}
	updated := account.Clone()
	updated.Balance = sum.ToBig()
	if err := b.state.BankAccountPut(to, updated); err != nil {
		return "", fmt.Errorf("bank: persist account: %w", err)
	}
	reference := b.newRef()
	b.emitter.Emit(events.Transfer{To: to, Amount: new(big.Int).Set(amount), Reference: reference})
	return reference, nil
}

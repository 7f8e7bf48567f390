package mint

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/0xhanvalen/skaterbirds-nft/core/events"
	"github.com/0xhanvalen/skaterbirds-nft/core/types"
)

type engineState interface {
	MintLedgerGet() (*Ledger, bool, error)
	MintHolderGet(addr [20]byte) (*Holder, bool, error)
	MintTokenOwnerGet(tokenID uint64) ([20]byte, bool, error)
	MintCommit(commit *Commit) error
}

// Engine is the collection's mint ledger. All mutations are serialised by a
// single mutex; every operation is applied as one atomic state commit or not
// at all.
type Engine struct {
	mu          sync.Mutex
	params      Params
	access      AccessControl
	state       engineState
	payee       Payee
	emitter     events.Emitter
	nowFn       func() int64
	withdrawing bool
}

// NewEngine constructs a mint engine over state. When state already holds a
// ledger the persisted owner and counters win over params.Owner; otherwise a
// fresh ledger is written with the sale disabled and nothing issued.
func NewEngine(params Params, state engineState) (*Engine, error) {
	if state == nil {
		return nil, ErrNilState
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		params:  params.Clone(),
		state:   state,
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
	ledger, ok, err := state.MintLedgerGet()
	if err != nil {
		return nil, fmt.Errorf("mint engine: load ledger: %w", err)
	}
	if !ok || ledger == nil {
		ledger = &Ledger{
			Owner:       params.Owner,
			NextTokenID: params.FirstTokenID,
			Treasury:    big.NewInt(0),
			Withdrawn:   big.NewInt(0),
			UpdatedAt:   e.nowUnix(),
		}
		if err := state.MintCommit(&Commit{Ledger: ledger}); err != nil {
			return nil, fmt.Errorf("mint engine: init ledger: %w", err)
		}
	}
	if ledger.Issued > params.SupplyCap {
		return nil, fmt.Errorf("%w: stored issuance %d exceeds supply cap %d", ErrInvalidParams, ledger.Issued, params.SupplyCap)
	}
	e.access = NewAccessControl(ledger.Owner)
	return e, nil
}

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetPayee configures the fund-transfer mechanism used by Withdraw.
func (e *Engine) SetPayee(payee Payee) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.payee = payee
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) nowUnix() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	now := e.nowFn()
	if now < 0 {
		return 0
	}
	return uint64(now)
}

func (e *Engine) loadLedger() (*Ledger, error) {
	ledger, ok, err := e.state.MintLedgerGet()
	if err != nil {
		return nil, fmt.Errorf("mint engine: load ledger: %w", err)
	}
	if !ok || ledger == nil {
		return nil, fmt.Errorf("mint engine: ledger missing from state")
	}
	if ledger.Treasury == nil {
		ledger.Treasury = big.NewInt(0)
	}
	if ledger.Withdrawn == nil {
		ledger.Withdrawn = big.NewInt(0)
	}
	return ledger, nil
}

func (e *Engine) loadHolder(addr [20]byte) (*Holder, error) {
	holder, ok, err := e.state.MintHolderGet(addr)
	if err != nil {
		return nil, fmt.Errorf("mint engine: load holder: %w", err)
	}
	if !ok || holder == nil {
		return &Holder{Address: addr}, nil
	}
	return holder, nil
}

// Name returns the collection name.
func (e *Engine) Name() string { return e.params.Name }

// Symbol returns the collection ticker.
func (e *Engine) Symbol() string { return e.params.Symbol }

// Params returns a copy of the construction parameters.
func (e *Engine) Params() Params { return e.params.Clone() }

// Owner returns the current owner.
func (e *Engine) Owner() [20]byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.access.Owner()
}

// IsOwner reports whether caller currently holds ownership.
func (e *Engine) IsOwner(caller [20]byte) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.access.IsOwner(caller)
}

// Ledger returns a snapshot of the persisted ledger.
func (e *Engine) Ledger() (*Ledger, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadLedger()
}

// Remaining reports how many units can still be issued.
func (e *Engine) Remaining() (uint64, error) {
	ledger, err := e.Ledger()
	if err != nil {
		return 0, err
	}
	return e.params.SupplyCap - ledger.Issued, nil
}

// BalanceOf returns the number of units minted by addr.
func (e *Engine) BalanceOf(addr [20]byte) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	holder, err := e.loadHolder(addr)
	if err != nil {
		return 0, err
	}
	return holder.Minted, nil
}

// OwnerOf resolves the wallet that minted tokenID.
func (e *Engine) OwnerOf(tokenID uint64) ([20]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	owner, ok, err := e.state.MintTokenOwnerGet(tokenID)
	if err != nil {
		return [20]byte{}, fmt.Errorf("mint engine: load token: %w", err)
	}
	if !ok {
		return [20]byte{}, ErrTokenNotFound
	}
	return owner, nil
}

// Quote returns the payment required for quantity units.
func (e *Engine) Quote(quantity uint64) (*big.Int, error) {
	if quantity == 0 {
		return nil, ErrInvalidQuantity
	}
	if quantity > e.params.MaxPerCall {
		return nil, ErrQuantityExceedsLimit
	}
	return requiredPayment(quantity, e.params.UnitPrice)
}

// SetPublicSale opens or closes the public sale. Only the owner may call it
// and repeating the current value is not an error.
func (e *Engine) SetPublicSale(caller [20]byte, enabled bool) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.access.RequireOwner(caller); err != nil {
		return err
	}
	ledger, err := e.loadLedger()
	if err != nil {
		return err
	}
	next := ledger.Clone()
	next.PublicSale = enabled
	next.UpdatedAt = e.nowUnix()
	if err := e.state.MintCommit(&Commit{Ledger: next}); err != nil {
		return fmt.Errorf("mint engine: persist sale state: %w", err)
	}
	e.emit(SaleToggledEvent(caller, enabled))
	return nil
}

// Purchase admits quantity new units for caller against payment. Checks run
// in a fixed order and the first failure is returned without touching state.
// The whole payment is credited to the treasury; overpayment is kept.
func (e *Engine) Purchase(caller [20]byte, quantity uint64, payment *big.Int) (*Receipt, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if quantity == 0 {
		return nil, ErrInvalidQuantity
	}
	paid := newBigInt(payment)

	e.mu.Lock()
	defer e.mu.Unlock()

	ledger, err := e.loadLedger()
	if err != nil {
		return nil, err
	}
	if !ledger.PublicSale {
		return nil, ErrSaleNotActive
	}
	if paid.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if quantity > e.params.MaxPerCall {
		return nil, ErrQuantityExceedsLimit
	}
	required, err := requiredPayment(quantity, e.params.UnitPrice)
	if err != nil {
		return nil, err
	}
	if paid.Cmp(required) < 0 {
		return nil, ErrInsufficientPayment
	}
	if ledger.Issued > e.params.SupplyCap || quantity > e.params.SupplyCap-ledger.Issued {
		return nil, ErrSupplyExhausted
	}
	holder, err := e.loadHolder(caller)
	if err != nil {
		return nil, err
	}
	if limit := e.params.MaxPerWallet; limit > 0 {
		if holder.Minted > limit || quantity > limit-holder.Minted {
			return nil, ErrWalletLimitExceeded
		}
	}

	treasury, err := e.credit(ledger.Treasury, paid)
	if err != nil {
		return nil, err
	}
	issued, err := addCount(ledger.Issued, quantity)
	if err != nil {
		return nil, err
	}
	nextTokenID, err := addCount(ledger.NextTokenID, quantity)
	if err != nil {
		return nil, err
	}
	minted, err := addCount(holder.Minted, quantity)
	if err != nil {
		return nil, err
	}

	now := e.nowUnix()
	tokens := make([]uint64, 0, quantity)
	for id := ledger.NextTokenID; id < nextTokenID; id++ {
		tokens = append(tokens, id)
	}

	nextLedger := ledger.Clone()
	nextLedger.Issued = issued
	nextLedger.NextTokenID = nextTokenID
	nextLedger.Treasury = treasury
	nextLedger.UpdatedAt = now

	nextHolder := holder.Clone()
	nextHolder.Minted = minted
	if nextHolder.FirstMintAt == 0 {
		nextHolder.FirstMintAt = now
	}
	nextHolder.LastMintAt = now

	if err := e.state.MintCommit(&Commit{Ledger: nextLedger, Holder: nextHolder, Tokens: tokens}); err != nil {
		return nil, fmt.Errorf("mint engine: persist purchase: %w", err)
	}

	receipt := &Receipt{
		Buyer:        caller,
		Quantity:     quantity,
		FirstTokenID: ledger.NextTokenID,
		LastTokenID:  nextTokenID - 1,
		Paid:         paid,
		Required:     required,
		Issued:       issued,
	}
	e.emit(PurchasedEvent(receipt))
	return receipt, nil
}

// TransferOwnership hands the owner role to next. It is only available when
// the collection was configured with OwnershipTransferable.
func (e *Engine) TransferOwnership(caller, next [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.access.RequireOwner(caller); err != nil {
		return err
	}
	if !e.params.OwnershipTransferable {
		return ErrOwnershipFixed
	}
	if isZeroAddress(next) {
		return ErrInvalidOwner
	}
	if e.withdrawing {
		return ErrWithdrawalInProgress
	}
	ledger, err := e.loadLedger()
	if err != nil {
		return err
	}
	updated := ledger.Clone()
	updated.Owner = next
	updated.UpdatedAt = e.nowUnix()
	if err := e.state.MintCommit(&Commit{Ledger: updated}); err != nil {
		return fmt.Errorf("mint engine: persist owner: %w", err)
	}
	e.access = NewAccessControl(next)
	e.emit(OwnerTransferredEvent(caller, next))
	return nil
}

package mint

import (
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/0xhanvalen/skaterbirds-nft/core/events"
)

type mockState struct {
	mu        sync.Mutex
	ledger    *Ledger
	holders   map[[20]byte]*Holder
	tokens    map[uint64][20]byte
	commitErr error
	commits   int
}

func newMockState() *mockState {
	return &mockState{
		holders: make(map[[20]byte]*Holder),
		tokens:  make(map[uint64][20]byte),
	}
}

func (m *mockState) MintLedgerGet() (*Ledger, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ledger == nil {
		return nil, false, nil
	}
	return m.ledger.Clone(), true, nil
}

func (m *mockState) MintHolderGet(addr [20]byte) (*Holder, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	holder, ok := m.holders[addr]
	if !ok {
		return nil, false, nil
	}
	return holder.Clone(), true, nil
}

func (m *mockState) MintTokenOwnerGet(tokenID uint64) ([20]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.tokens[tokenID]
	return owner, ok, nil
}

func (m *mockState) MintCommit(commit *Commit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return m.commitErr
	}
	m.commits++
	if commit.Ledger != nil {
		m.ledger = commit.Ledger.Clone()
	}
	if commit.Holder != nil {
		m.holders[commit.Holder.Address] = commit.Holder.Clone()
		for _, id := range commit.Tokens {
			m.tokens[id] = commit.Holder.Address
		}
	}
	return nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingEmitter) Emit(evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingEmitter) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, evt := range r.events {
		out = append(out, evt.EventType())
	}
	return out
}

var (
	ownerAddr  = [20]byte{0x01}
	minterAddr = [20]byte{0x02}
)

func ether(t *testing.T, amount string) *big.Int {
	t.Helper()
	value, err := ParseAmount(amount)
	if err != nil {
		t.Fatalf("parse amount %s: %v", amount, err)
	}
	return value
}

func newTestEngine(t *testing.T, mutate func(*Params)) (*Engine, *mockState) {
	t.Helper()
	params := DefaultParams(ownerAddr)
	if mutate != nil {
		mutate(&params)
	}
	state := newMockState()
	engine, err := NewEngine(params, state)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	return engine, state
}

func enableSale(t *testing.T, engine *Engine) {
	t.Helper()
	if err := engine.SetPublicSale(ownerAddr, true); err != nil {
		t.Fatalf("enable sale: %v", err)
	}
}

func TestEngineIsNamed(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	if engine.Name() == "" {
		t.Fatalf("expected a collection name")
	}
	if engine.Symbol() != DefaultSymbol {
		t.Fatalf("unexpected symbol %q", engine.Symbol())
	}
}

func TestNewEngineInitialState(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	ledger, err := engine.Ledger()
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if ledger.PublicSale {
		t.Fatalf("sale must start disabled")
	}
	if ledger.Issued != 0 || ledger.Treasury.Sign() != 0 {
		t.Fatalf("unexpected initial ledger %+v", ledger)
	}
	if ledger.Owner != ownerAddr || engine.Owner() != ownerAddr {
		t.Fatalf("unexpected owner")
	}
	if ledger.NextTokenID != DefaultFirstTokenID {
		t.Fatalf("unexpected first token id %d", ledger.NextTokenID)
	}
}

func TestNewEngineRejectsInvalidParams(t *testing.T) {
	cases := map[string]func(*Params){
		"zero owner":    func(p *Params) { p.Owner = [20]byte{} },
		"no name":       func(p *Params) { p.Name = " " },
		"nil price":     func(p *Params) { p.UnitPrice = nil },
		"zero per call": func(p *Params) { p.MaxPerCall = 0 },
		"zero cap":      func(p *Params) { p.SupplyCap = 0 },
	}
	for name, mutate := range cases {
		params := DefaultParams(ownerAddr)
		mutate(&params)
		if _, err := NewEngine(params, newMockState()); !errors.Is(err, ErrInvalidParams) {
			t.Fatalf("%s: expected ErrInvalidParams, got %v", name, err)
		}
	}
	if _, err := NewEngine(DefaultParams(ownerAddr), nil); !errors.Is(err, ErrNilState) {
		t.Fatalf("expected ErrNilState, got %v", err)
	}
}

func TestNewEngineResumesPersistedLedger(t *testing.T) {
	engine, state := newTestEngine(t, nil)
	enableSale(t, engine)
	if _, err := engine.Purchase(minterAddr, 2, ether(t, "0.25")); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	resumed, err := NewEngine(DefaultParams([20]byte{0x09}), state)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	ledger, err := resumed.Ledger()
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if !ledger.PublicSale || ledger.Issued != 2 {
		t.Fatalf("expected persisted state, got %+v", ledger)
	}
	if resumed.Owner() != ownerAddr {
		t.Fatalf("persisted owner must win over params")
	}
}

func TestPurchaseRequiresSale(t *testing.T) {
	engine, state := newTestEngine(t, nil)
	for q := uint64(1); q <= 5; q++ {
		for _, payment := range []*big.Int{nil, big.NewInt(-1), big.NewInt(0), ether(t, "100")} {
			if _, err := engine.Purchase(minterAddr, q, payment); !errors.Is(err, ErrSaleNotActive) {
				t.Fatalf("quantity %d: expected ErrSaleNotActive, got %v", q, err)
			}
		}
	}
	if state.ledger.Issued != 0 || state.ledger.Treasury.Sign() != 0 {
		t.Fatalf("rejected purchases must not mutate state")
	}
}

func TestOwnerEnablesSaleThenPaymentChecked(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	enableSale(t, engine)
	if _, err := engine.Purchase(ownerAddr, 1, big.NewInt(0)); !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment, got %v", err)
	}
}

func TestNonOwnerCannotToggleSale(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	if err := engine.SetPublicSale(minterAddr, true); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	ledger, _ := engine.Ledger()
	if ledger.PublicSale {
		t.Fatalf("sale must remain disabled")
	}
}

func TestSaleToggleIsIdempotentAndReversible(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	emitter := &recordingEmitter{}
	engine.SetEmitter(emitter)
	for i := 0; i < 2; i++ {
		if err := engine.SetPublicSale(ownerAddr, true); err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
		ledger, _ := engine.Ledger()
		if !ledger.PublicSale {
			t.Fatalf("toggle %d: sale not enabled", i)
		}
	}
	if err := engine.SetPublicSale(ownerAddr, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if _, err := engine.Purchase(minterAddr, 1, ether(t, "0.125")); !errors.Is(err, ErrSaleNotActive) {
		t.Fatalf("expected ErrSaleNotActive after disable, got %v", err)
	}
	if got := emitter.types(); len(got) != 3 || got[0] != EventTypeSaleToggled {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestPurchaseUpToThreeAtOnce(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	enableSale(t, engine)
	receipt, err := engine.Purchase(minterAddr, 3, ether(t, "0.375"))
	if err != nil {
		t.Fatalf("purchase 3: %v", err)
	}
	if receipt.FirstTokenID != 1 || receipt.LastTokenID != 3 || receipt.Issued != 3 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if _, err := engine.Purchase(minterAddr, 4, ether(t, "0.5")); !errors.Is(err, ErrQuantityExceedsLimit) {
		t.Fatalf("expected ErrQuantityExceedsLimit, got %v", err)
	}
}

func TestPurchaseCheckOrder(t *testing.T) {
	engine, _ := newTestEngine(t, func(p *Params) { p.SupplyCap = 2 })
	if _, err := engine.Purchase(minterAddr, 0, nil); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("zero quantity: got %v", err)
	}
	// Sale closed wins over every later check.
	if _, err := engine.Purchase(minterAddr, 9, nil); !errors.Is(err, ErrSaleNotActive) {
		t.Fatalf("closed sale: got %v", err)
	}
	enableSale(t, engine)
	// Quantity limit wins over missing payment and supply.
	if _, err := engine.Purchase(minterAddr, 4, nil); !errors.Is(err, ErrQuantityExceedsLimit) {
		t.Fatalf("limit: got %v", err)
	}
	// Payment wins over supply.
	if _, err := engine.Purchase(minterAddr, 3, big.NewInt(1)); !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("payment: got %v", err)
	}
	if _, err := engine.Purchase(minterAddr, 3, ether(t, "0.375")); !errors.Is(err, ErrSupplyExhausted) {
		t.Fatalf("supply: got %v", err)
	}
	if _, err := engine.Purchase(minterAddr, 1, big.NewInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative payment: got %v", err)
	}
}

func TestOverpaymentIsKept(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	enableSale(t, engine)
	paid := ether(t, "0.3125") // 2.5 × unit price
	receipt, err := engine.Purchase(minterAddr, 2, paid)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if receipt.Required.Cmp(ether(t, "0.25")) != 0 {
		t.Fatalf("unexpected required %s", receipt.Required)
	}
	ledger, _ := engine.Ledger()
	if ledger.Issued != 2 {
		t.Fatalf("issued must grow by exactly 2, got %d", ledger.Issued)
	}
	if ledger.Treasury.Cmp(paid) != 0 {
		t.Fatalf("treasury must hold full payment %s, got %s", paid, ledger.Treasury)
	}
}

func TestSupplyCapReached(t *testing.T) {
	engine, _ := newTestEngine(t, func(p *Params) { p.SupplyCap = 4 })
	enableSale(t, engine)
	if _, err := engine.Purchase(minterAddr, 3, ether(t, "0.375")); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := engine.Purchase(ownerAddr, 2, ether(t, "0.25")); !errors.Is(err, ErrSupplyExhausted) {
		t.Fatalf("expected ErrSupplyExhausted, got %v", err)
	}
	if _, err := engine.Purchase(ownerAddr, 1, ether(t, "0.125")); err != nil {
		t.Fatalf("last unit: %v", err)
	}
	remaining, err := engine.Remaining()
	if err != nil || remaining != 0 {
		t.Fatalf("expected sold out, remaining=%d err=%v", remaining, err)
	}
	if _, err := engine.Purchase(ownerAddr, 1, ether(t, "0.125")); !errors.Is(err, ErrSupplyExhausted) {
		t.Fatalf("expected ErrSupplyExhausted, got %v", err)
	}
}

func TestWalletLimit(t *testing.T) {
	engine, _ := newTestEngine(t, func(p *Params) { p.MaxPerWallet = 4 })
	enableSale(t, engine)
	if _, err := engine.Purchase(minterAddr, 3, ether(t, "0.375")); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := engine.Purchase(minterAddr, 2, ether(t, "0.25")); !errors.Is(err, ErrWalletLimitExceeded) {
		t.Fatalf("expected ErrWalletLimitExceeded, got %v", err)
	}
	if _, err := engine.Purchase(ownerAddr, 2, ether(t, "0.25")); err != nil {
		t.Fatalf("other wallet unaffected: %v", err)
	}
	balance, err := engine.BalanceOf(minterAddr)
	if err != nil || balance != 3 {
		t.Fatalf("unexpected balance %d err=%v", balance, err)
	}
}

func TestTokenOwnership(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	enableSale(t, engine)
	if _, err := engine.Purchase(minterAddr, 2, ether(t, "0.25")); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := engine.Purchase(ownerAddr, 1, ether(t, "0.125")); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	for id, want := range map[uint64][20]byte{1: minterAddr, 2: minterAddr, 3: ownerAddr} {
		got, err := engine.OwnerOf(id)
		if err != nil || got != want {
			t.Fatalf("token %d: got %x err=%v", id, got, err)
		}
	}
	if _, err := engine.OwnerOf(4); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestPurchaseCommitFailureLeavesState(t *testing.T) {
	engine, state := newTestEngine(t, nil)
	enableSale(t, engine)
	state.commitErr = errors.New("disk full")
	if _, err := engine.Purchase(minterAddr, 1, ether(t, "0.125")); err == nil {
		t.Fatalf("expected commit failure")
	}
	state.commitErr = nil
	ledger, _ := engine.Ledger()
	if ledger.Issued != 0 || ledger.Treasury.Sign() != 0 {
		t.Fatalf("failed commit must not change state: %+v", ledger)
	}
}

func TestPurchaseOverflowRejected(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 255)
	engine, _ := newTestEngine(t, func(p *Params) { p.UnitPrice = huge })
	enableSale(t, engine)
	if _, err := engine.Purchase(minterAddr, 2, nil); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow for price overflow, got %v", err)
	}

	cheap, _ := newTestEngine(t, func(p *Params) { p.UnitPrice = big.NewInt(0) })
	enableSale(t, cheap)
	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	if _, err := cheap.Purchase(minterAddr, 1, maxUint256); err != nil {
		t.Fatalf("max payment: %v", err)
	}
	if _, err := cheap.Purchase(minterAddr, 1, big.NewInt(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow for treasury overflow, got %v", err)
	}
}

func TestConcurrentPurchasesNeverExceedCap(t *testing.T) {
	engine, _ := newTestEngine(t, func(p *Params) { p.SupplyCap = 50 })
	enableSale(t, engine)
	price := ether(t, "0.375")
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := uint64(0)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			buyer := [20]byte{0xA0, byte(i)}
			if _, err := engine.Purchase(buyer, 3, price); err == nil {
				mu.Lock()
				accepted += 3
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	ledger, _ := engine.Ledger()
	if ledger.Issued != accepted || ledger.Issued > 50 {
		t.Fatalf("issued %d accepted %d", ledger.Issued, accepted)
	}
	expected := new(big.Int).Mul(big.NewInt(int64(accepted)), DefaultUnitPrice)
	if ledger.Treasury.Cmp(expected) != 0 {
		t.Fatalf("treasury %s, expected %s", ledger.Treasury, expected)
	}
}

func TestTransferOwnership(t *testing.T) {
	fixed, _ := newTestEngine(t, nil)
	if err := fixed.TransferOwnership(ownerAddr, minterAddr); !errors.Is(err, ErrOwnershipFixed) {
		t.Fatalf("expected ErrOwnershipFixed, got %v", err)
	}

	engine, _ := newTestEngine(t, func(p *Params) { p.OwnershipTransferable = true })
	if err := engine.TransferOwnership(minterAddr, minterAddr); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := engine.TransferOwnership(ownerAddr, [20]byte{}); !errors.Is(err, ErrInvalidOwner) {
		t.Fatalf("expected ErrInvalidOwner, got %v", err)
	}
	if err := engine.TransferOwnership(ownerAddr, minterAddr); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if engine.IsOwner(ownerAddr) || !engine.IsOwner(minterAddr) {
		t.Fatalf("ownership not moved")
	}
	if err := engine.SetPublicSale(ownerAddr, true); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("previous owner must lose rights, got %v", err)
	}
	if err := engine.SetPublicSale(minterAddr, true); err != nil {
		t.Fatalf("new owner toggle: %v", err)
	}
}

func TestQuote(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	got, err := engine.Quote(3)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if got.Cmp(ether(t, "0.375")) != 0 {
		t.Fatalf("unexpected quote %s", got)
	}
	if _, err := engine.Quote(0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := engine.Quote(4); !errors.Is(err, ErrQuantityExceedsLimit) {
		t.Fatalf("expected ErrQuantityExceedsLimit, got %v", err)
	}
}

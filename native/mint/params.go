package mint

import (
	"fmt"
	"math/big"
	"strings"
)

const (
	// DefaultName is the collection name reported by Name().
	DefaultName = "SkaterBirds"
	// DefaultSymbol is the collection ticker.
	DefaultSymbol = "SKB"
	// DefaultMaxPerCall caps the units a single purchase may request.
	DefaultMaxPerCall uint64 = 3
	// DefaultSupplyCap bounds the total units ever issued.
	DefaultSupplyCap uint64 = 10_000
	// DefaultFirstTokenID is assigned to the first unit minted.
	DefaultFirstTokenID uint64 = 1
)

// DefaultUnitPrice is 0.125 of a currency unit expressed in wei.
var DefaultUnitPrice = big.NewInt(125_000_000_000_000_000)

// Params are fixed at construction and never change during the ledger's life.
type Params struct {
	Name         string
	Symbol       string
	Owner        [20]byte
	UnitPrice    *big.Int
	MaxPerCall   uint64
	SupplyCap    uint64
	MaxPerWallet uint64 // zero disables the per-wallet limit
	FirstTokenID uint64
	// OwnershipTransferable enables TransferOwnership. Disabled by default so
	// the owner recorded at construction stays fixed.
	OwnershipTransferable bool
}

// DefaultParams returns the collection defaults for the supplied owner.
func DefaultParams(owner [20]byte) Params {
	return Params{
		Name:         DefaultName,
		Symbol:       DefaultSymbol,
		Owner:        owner,
		UnitPrice:    new(big.Int).Set(DefaultUnitPrice),
		MaxPerCall:   DefaultMaxPerCall,
		SupplyCap:    DefaultSupplyCap,
		FirstTokenID: DefaultFirstTokenID,
	}
}

// Clone returns a deep copy of the params.
func (p Params) Clone() Params {
	clone := p
	if p.UnitPrice != nil {
		clone.UnitPrice = new(big.Int).Set(p.UnitPrice)
	}
	return clone
}

// Validate checks the params for internal consistency.
func (p Params) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidParams)
	}
	if isZeroAddress(p.Owner) {
		return fmt.Errorf("%w: %w", ErrInvalidParams, ErrInvalidOwner)
	}
	if p.UnitPrice == nil || p.UnitPrice.Sign() < 0 {
		return fmt.Errorf("%w: unit price must be non-negative", ErrInvalidParams)
	}
	if !fitsUint256(p.UnitPrice) {
		return fmt.Errorf("%w: unit price exceeds 256 bits", ErrInvalidParams)
	}
	if p.MaxPerCall == 0 {
		return fmt.Errorf("%w: max per call must be positive", ErrInvalidParams)
	}
	if p.SupplyCap == 0 {
		return fmt.Errorf("%w: supply cap must be positive", ErrInvalidParams)
	}
	if p.FirstTokenID > ^uint64(0)-p.SupplyCap {
		return fmt.Errorf("%w: token id range overflows", ErrInvalidParams)
	}
	return nil
}

package mint

import "math/big"

// Ledger is the persisted mutable state of the collection.
type Ledger struct {
	Owner       [20]byte `json:"owner"`
	PublicSale  bool     `json:"publicSale"`
	Issued      uint64   `json:"issued"`
	NextTokenID uint64   `json:"nextTokenId"`
	Treasury    *big.Int `json:"treasury"`
	Withdrawn   *big.Int `json:"withdrawn"`
	UpdatedAt   uint64   `json:"updatedAt"`
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}
	clone := *l
	clone.Treasury = newBigInt(l.Treasury)
	clone.Withdrawn = newBigInt(l.Withdrawn)
	return &clone
}

// Holder tallies the units a wallet has minted.
type Holder struct {
	Address     [20]byte `json:"address"`
	Minted      uint64   `json:"minted"`
	FirstMintAt uint64   `json:"firstMintAt"`
	LastMintAt  uint64   `json:"lastMintAt"`
}

// Clone returns a copy of the holder record.
func (h *Holder) Clone() *Holder {
	if h == nil {
		return nil
	}
	clone := *h
	return &clone
}

// Commit groups the writes of one successful operation. The state backend
// must apply it atomically.
type Commit struct {
	Ledger *Ledger
	Holder *Holder
	// Tokens lists newly minted token IDs owned by Holder.
	Tokens []uint64
}

// Receipt describes an accepted purchase.
type Receipt struct {
	Buyer        [20]byte `json:"buyer"`
	Quantity     uint64   `json:"quantity"`
	FirstTokenID uint64   `json:"firstTokenId"`
	LastTokenID  uint64   `json:"lastTokenId"`
	Paid         *big.Int `json:"paid"`
	Required     *big.Int `json:"required"`
	Issued       uint64   `json:"issued"`
}

// Withdrawal describes a completed treasury drain.
type Withdrawal struct {
	Owner     [20]byte `json:"owner"`
	Amount    *big.Int `json:"amount"`
	Reference string   `json:"reference,omitempty"`
}

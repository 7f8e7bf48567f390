package state

import (
	"fmt"
	"math/big"

	"github.com/0xhanvalen/skaterbirds-nft/native/mint"
)

type storedMintLedger struct {
	Owner       [20]byte
	PublicSale  bool
	Issued      uint64
	NextTokenID uint64
	Treasury    *big.Int
	Withdrawn   *big.Int
	UpdatedAt   uint64
}

func newStoredMintLedger(ledger *mint.Ledger) *storedMintLedger {
	stored := &storedMintLedger{
		Owner:       ledger.Owner,
		PublicSale:  ledger.PublicSale,
		Issued:      ledger.Issued,
		NextTokenID: ledger.NextTokenID,
		Treasury:    big.NewInt(0),
		Withdrawn:   big.NewInt(0),
		UpdatedAt:   ledger.UpdatedAt,
	}
	if ledger.Treasury != nil {
		stored.Treasury = new(big.Int).Set(ledger.Treasury)
	}
	if ledger.Withdrawn != nil {
		stored.Withdrawn = new(big.Int).Set(ledger.Withdrawn)
	}
	return stored
}

func (s *storedMintLedger) toLedger() *mint.Ledger {
	ledger := &mint.Ledger{
		Owner:       s.Owner,
		PublicSale:  s.PublicSale,
		Issued:      s.Issued,
		NextTokenID: s.NextTokenID,
		Treasury:    big.NewInt(0),
		Withdrawn:   big.NewInt(0),
		UpdatedAt:   s.UpdatedAt,
	}
	if s.Treasury != nil {
		ledger.Treasury.Set(s.Treasury)
	}
	if s.Withdrawn != nil {
		ledger.Withdrawn.Set(s.Withdrawn)
	}
	return ledger
}

type storedMintHolder struct {
	Address     [20]byte
	Minted      uint64
	FirstMintAt uint64
	LastMintAt  uint64
}

// MintLedgerGet loads the collection ledger.
func (m *Manager) MintLedgerGet() (*mint.Ledger, bool, error) {
	var stored storedMintLedger
	ok, err := m.KVGet(MintLedgerKey(), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return stored.toLedger(), true, nil
}

// MintHolderGet loads the mint tally of addr.
func (m *Manager) MintHolderGet(addr [20]byte) (*mint.Holder, bool, error) {
	var stored storedMintHolder
	ok, err := m.KVGet(MintHolderKey(addr), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &mint.Holder{
		Address:     stored.Address,
		Minted:      stored.Minted,
		FirstMintAt: stored.FirstMintAt,
		LastMintAt:  stored.LastMintAt,
	}, true, nil
}

// MintTokenOwnerGet resolves the wallet that minted tokenID.
func (m *Manager) MintTokenOwnerGet(tokenID uint64) ([20]byte, bool, error) {
	var owner [20]byte
	ok, err := m.KVGet(MintTokenKey(tokenID), &owner)
	if err != nil || !ok {
		return [20]byte{}, ok, err
	}
	return owner, true, nil
}

// MintCommit applies the ledger, holder and token writes of one mint
// operation in a single batch.
func (m *Manager) MintCommit(commit *mint.Commit) error {
	if m == nil || m.db == nil {
		return errUnavailable
	}
	if commit == nil {
		return nil
	}
	if len(commit.Tokens) > 0 && commit.Holder == nil {
		return fmt.Errorf("state: token commit without holder")
	}
	b := m.newBatch()
	if commit.Ledger != nil {
		if err := b.put(MintLedgerKey(), newStoredMintLedger(commit.Ledger)); err != nil {
			return fmt.Errorf("state: encode mint ledger: %w", err)
		}
	}
	if holder := commit.Holder; holder != nil {
		stored := &storedMintHolder{
			Address:     holder.Address,
			Minted:      holder.Minted,
			FirstMintAt: holder.FirstMintAt,
			LastMintAt:  holder.LastMintAt,
		}
		if err := b.put(MintHolderKey(holder.Address), stored); err != nil {
			return fmt.Errorf("state: encode mint holder: %w", err)
		}
		for _, id := range commit.Tokens {
			if err := b.put(MintTokenKey(id), holder.Address); err != nil {
				return fmt.Errorf("state: encode token owner: %w", err)
			}
		}
	}
	return b.write()
}

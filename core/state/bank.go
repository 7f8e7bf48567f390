package state

import (
	"fmt"
	"math/big"

	"github.com/0xhanvalen/skaterbirds-nft/core/types"
)

type storedAccount struct {
	Balance        *big.Int
	RejectDeposits bool
}

// BankAccountGet loads the bank account held for addr.
func (m *Manager) BankAccountGet(addr [20]byte) (*types.Account, bool, error) {
	var stored storedAccount
	ok, err := m.KVGet(BankAccountKey(addr), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	account := &types.Account{Balance: big.NewInt(0), RejectDeposits: stored.RejectDeposits}
	if stored.Balance != nil {
		account.Balance.Set(stored.Balance)
	}
	return account, true, nil
}

// BankAccountPut stores the bank account for addr.
func (m *Manager) BankAccountPut(addr [20]byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	stored := &storedAccount{Balance: big.NewInt(0), RejectDeposits: account.RejectDeposits}
	if account.Balance != nil {
		if account.Balance.Sign() < 0 {
			return fmt.Errorf("state: negative account balance")
		}
		stored.Balance.Set(account.Balance)
	}
	return m.KVPut(BankAccountKey(addr), stored)
}

package types

import "math/big"

// Account tracks a spendable balance held by the in-process bank.
type Account struct {
	Balance *big.Int `json:"balance"`
	// RejectDeposits marks accounts that refuse incoming transfers. A
	// withdrawal directed at such an account fails without moving funds.
	RejectDeposits bool `json:"rejectDeposits"`
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	}
	return &clone
}

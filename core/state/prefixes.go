package state

import (
	"encoding/binary"
)

var (
	mintLedgerKeyBytes = []byte("mint/ledger")
	mintHolderPrefix   = []byte("mint/holder/")
	mintTokenPrefix    = []byte("mint/token/")
	bankAccountPrefix  = []byte("bank/account/")
)

// MintLedgerKey returns the key of the singleton mint ledger record.
func MintLedgerKey() []byte {
	return append([]byte(nil), mintLedgerKeyBytes...)
}

// MintHolderKey returns the key of a holder's mint tally.
func MintHolderKey(addr [20]byte) []byte {
	return prefixed(mintHolderPrefix, addr[:])
}

// MintTokenKey returns the key recording the minter of tokenID.
func MintTokenKey(tokenID uint64) []byte {
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], tokenID)
	return prefixed(mintTokenPrefix, id[:])
}

// BankAccountKey returns the key of a bank account record.
func BankAccountKey(addr [20]byte) []byte {
	return prefixed(bankAccountPrefix, addr[:])
}

func prefixed(prefix, suffix []byte) []byte {
	buf := make([]byte, len(prefix)+len(suffix))
	copy(buf, prefix)
	copy(buf[len(prefix):], suffix)
	return buf
}

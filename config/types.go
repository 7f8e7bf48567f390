package config

// Collection describes the minted collection and its sale rules.
type Collection struct {
	Name   string `toml:"Name"`
	Symbol string `toml:"Symbol"`
	// Owner accepts a bech32 (skb1...) or 0x-prefixed hex address.
	Owner                 string `toml:"Owner"`
	OwnerKeystorePath     string `toml:"OwnerKeystorePath"`
	UnitPriceWei          string `toml:"UnitPriceWei"`
	MaxPerCall            uint64 `toml:"MaxPerCall"`
	SupplyCap             uint64 `toml:"SupplyCap"`
	MaxPerWallet          uint64 `toml:"MaxPerWallet"`
	FirstTokenID          uint64 `toml:"FirstTokenID"`
	OwnershipTransferable bool   `toml:"OwnershipTransferable"`
}

// Storage selects the key/value backend holding the ledger.
type Storage struct {
	Backend      string `toml:"Backend"`
	DataDir      string `toml:"DataDir"`
	AllowMigrate bool   `toml:"AllowMigrate"`
}

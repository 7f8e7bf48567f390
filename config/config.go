package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"

	"github.com/0xhanvalen/skaterbirds-nft/crypto"
	"github.com/0xhanvalen/skaterbirds-nft/native/mint"
	"github.com/0xhanvalen/skaterbirds-nft/storage"
)

// Scrypt parameters used when a default config generates the owner keystore.
// Zero selects the go-ethereum standard parameters.
var (
	KeystoreScryptN = 0
	KeystoreScryptP = 0
)

type Config struct {
	Collection Collection `toml:"collection"`
	Storage    Storage    `toml:"storage"`
}

// Load loads the configuration from the given path. A missing file is
// replaced by a default configuration whose owner key is generated into an
// unencrypted keystore next to it.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown field %s", path, undecoded[0].String())
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.Collection.Name = norm.NFC.String(strings.TrimSpace(c.Collection.Name))
	c.Collection.Symbol = norm.NFC.String(strings.ToUpper(strings.TrimSpace(c.Collection.Symbol)))
	if c.Collection.Name == "" {
		c.Collection.Name = mint.DefaultName
	}
	if c.Collection.Symbol == "" {
		c.Collection.Symbol = mint.DefaultSymbol
	}
	if strings.TrimSpace(c.Collection.UnitPriceWei) == "" {
		c.Collection.UnitPriceWei = mint.DefaultUnitPrice.String()
	}
	if c.Collection.MaxPerCall == 0 {
		c.Collection.MaxPerCall = mint.DefaultMaxPerCall
	}
	if c.Collection.SupplyCap == 0 {
		c.Collection.SupplyCap = mint.DefaultSupplyCap
	}
	if c.Collection.FirstTokenID == 0 {
		c.Collection.FirstTokenID = mint.DefaultFirstTokenID
	}
	if strings.TrimSpace(c.Storage.Backend) == "" {
		c.Storage.Backend = storage.BackendLevelDB
	}
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		c.Storage.DataDir = "./skb-data"
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	keystorePath := defaultKeystorePath(path)
	key, err := crypto.CreateKeystore(keystorePath, "", false, KeystoreScryptN, KeystoreScryptP)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Collection: Collection{
			Name:              mint.DefaultName,
			Symbol:            mint.DefaultSymbol,
			Owner:             key.PubKey().Address().String(),
			OwnerKeystorePath: keystorePath,
			UnitPriceWei:      mint.DefaultUnitPrice.String(),
			MaxPerCall:        mint.DefaultMaxPerCall,
			SupplyCap:         mint.DefaultSupplyCap,
			FirstTokenID:      mint.DefaultFirstTokenID,
		},
		Storage: Storage{
			Backend: storage.BackendLevelDB,
			DataDir: "./skb-data",
		},
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "owner.keystore")
}

// Params converts the collection section into engine parameters.
func (c *Config) Params() (mint.Params, error) {
	owner, err := crypto.ParseAddress(c.Collection.Owner)
	if err != nil {
		return mint.Params{}, fmt.Errorf("invalid collection.Owner: %w", err)
	}
	price, err := mint.ParseWei(c.Collection.UnitPriceWei)
	if err != nil {
		return mint.Params{}, fmt.Errorf("invalid collection.UnitPriceWei: %w", err)
	}
	params := mint.Params{
		Name:                  c.Collection.Name,
		Symbol:                c.Collection.Symbol,
		Owner:                 owner,
		UnitPrice:             price,
		MaxPerCall:            c.Collection.MaxPerCall,
		SupplyCap:             c.Collection.SupplyCap,
		MaxPerWallet:          c.Collection.MaxPerWallet,
		FirstTokenID:          c.Collection.FirstTokenID,
		OwnershipTransferable: c.Collection.OwnershipTransferable,
	}
	return params, nil
}

// String renders a one-line summary suitable for startup logs.
func (c *Config) String() string {
	return c.Collection.Name + " (" + c.Collection.Symbol + ") cap=" +
		strconv.FormatUint(c.Collection.SupplyCap, 10) + " backend=" + c.Storage.Backend
}

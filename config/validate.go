package config

import (
	"fmt"
	"strings"

	"github.com/0xhanvalen/skaterbirds-nft/storage"
)

var knownBackends = map[string]struct{}{
	storage.BackendMemory:  {},
	storage.BackendLevelDB: {},
	storage.BackendBolt:    {},
	storage.BackendSQLite:  {},
}

// Validate checks the configuration for values the engine would reject.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil")
	}
	if _, ok := knownBackends[strings.ToLower(strings.TrimSpace(c.Storage.Backend))]; !ok {
		return fmt.Errorf("storage: unknown backend %q", c.Storage.Backend)
	}
	params, err := c.Params()
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("collection: %w", err)
	}
	return nil
}

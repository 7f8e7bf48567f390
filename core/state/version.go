package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SchemaVersion is the layout of the mint records written by this binary.
const SchemaVersion uint64 = 1

var (
	schemaKey = []byte("state/schema")

	ErrSchemaMismatch     = errors.New("state: schema version mismatch")
	ErrCollectionMismatch = errors.New("state: store belongs to another collection")
)

// Schema is the stamp written into a fresh store. It binds the data
// directory to one collection so a misconfigured deployment cannot mint
// into a ledger it does not own.
type Schema struct {
	Version    uint64
	Collection string
	StampedAt  uint64
}

// Schema returns the stored stamp, if any.
func (m *Manager) Schema() (*Schema, bool, error) {
	if m == nil {
		return nil, false, errUnavailable
	}
	var stored Schema
	ok, err := m.KVGet(schemaKey, &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &stored, true, nil
}

func (m *Manager) putSchema(schema Schema) error {
	if m == nil {
		return errUnavailable
	}
	return m.KVPut(schemaKey, schema)
}

// EnsureSchema stamps an empty store for collection and checks the stamp of
// an existing one. A foreign collection is always rejected. A version
// mismatch is tolerated when allowMigrate is set, in which case the stamp is
// rewritten to SchemaVersion.
func (m *Manager) EnsureSchema(collection string, allowMigrate bool) error {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return fmt.Errorf("state: collection name required")
	}
	stored, ok, err := m.Schema()
	if err != nil {
		return err
	}
	if !ok {
		return m.putSchema(Schema{Version: SchemaVersion, Collection: collection, StampedAt: uint64(time.Now().Unix())})
	}
	if stored.Collection != collection {
		return fmt.Errorf("%w: on-disk=%q configured=%q", ErrCollectionMismatch, stored.Collection, collection)
	}
	if stored.Version == SchemaVersion {
		return nil
	}
	if !allowMigrate {
		return fmt.Errorf("%w: on-disk=%d expected=%d", ErrSchemaMismatch, stored.Version, SchemaVersion)
	}
	migrated := *stored
	migrated.Version = SchemaVersion
	return m.putSchema(migrated)
}

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
	BackendBolt    = "bolt"
	BackendSQLite  = "sqlite"
)

// Open constructs the named backend rooted at dataDir.
func Open(backend, dataDir string) (Database, error) {
	name := strings.ToLower(strings.TrimSpace(backend))
	if name == "" {
		name = BackendLevelDB
	}
	if name == BackendMemory {
		return NewMemDB(), nil
	}
	if strings.TrimSpace(dataDir) == "" {
		return nil, fmt.Errorf("storage: data dir required for %s backend", name)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}
	var (
		db  Database
		err error
	)
	switch name {
	case BackendLevelDB:
		db, err = openLevel(filepath.Join(dataDir, "ledger"))
	case BackendBolt:
		db, err = openBolt(filepath.Join(dataDir, "ledger.bolt"))
	case BackendSQLite:
		db, err = openSQLite(filepath.Join(dataDir, "ledger.sqlite"))
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", name, err)
	}
	return db, nil
}

func openLevel(path string) (Database, error) {
	db, err := NewLevelDB(path)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func openBolt(path string) (Database, error) {
	db, err := NewBoltDB(path, nil)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func openSQLite(path string) (Database, error) {
	db, err := NewSQLiteDB(path)
	if err != nil {
		return nil, err
	}
	return db, nil
}

package state

import (
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/0xhanvalen/skaterbirds-nft/storage"
)

var errUnavailable = errors.New("state: manager unavailable")

// Manager stores the mint ledger in a key/value database. Keys are keccak256
// hashed and values RLP encoded.
type Manager struct {
	db storage.Database
}

// NewManager wraps db.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// Database returns the backing store.
func (m *Manager) Database() storage.Database {
	if m == nil {
		return nil
	}
	return m.db
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func encodeRecord(key []byte, value interface{}) ([]byte, []byte, error) {
	if len(key) == 0 {
		return nil, nil, fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return nil, nil, fmt.Errorf("kv: encode %q: %w", key, err)
	}
	return kvKey(key), encoded, nil
}

// KVPut writes value under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if m == nil || m.db == nil {
		return errUnavailable
	}
	hashed, encoded, err := encodeRecord(key, value)
	if err != nil {
		return err
	}
	return m.db.Put(hashed, encoded)
}

// KVGet decodes the value under key into out and reports whether it exists.
// A nil out only checks presence.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if m == nil || m.db == nil {
		return false, errUnavailable
	}
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.db.Get(kvKey(key))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	case len(data) == 0:
		return false, nil
	case out == nil:
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("kv: decode %q: %w", key, err)
	}
	return true, nil
}

// batch stages records with the same encoding as KVPut so a commit lands in
// one write.
type batch struct {
	inner storage.Batch
}

func (m *Manager) newBatch() *batch {
	return &batch{inner: m.db.NewBatch()}
}

func (b *batch) put(key []byte, value interface{}) error {
	hashed, encoded, err := encodeRecord(key, value)
	if err != nil {
		return err
	}
	b.inner.Put(hashed, encoded)
	return nil
}

func (b *batch) write() error {
	return b.inner.Write()
}

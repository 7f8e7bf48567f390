package storage

import (
	"database/sql"
	"errors"

	_ "github.com/glebarez/go-sqlite"
)

// SQLiteDB keeps key/value pairs in a single sqlite table. It is handy when
// operators want to inspect ledger state with stock sqlite tooling.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) the sqlite file at path.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// the pure-Go sqlite driver serialises writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	const schema = `CREATE TABLE IF NOT EXISTS kv (
            key BLOB PRIMARY KEY,
            value BLOB NOT NULL
        );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteDB{db: db}, nil
}

const upsertKV = `INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func (s *SQLiteDB) Put(key []byte, value []byte) error {
	_, err := s.db.Exec(upsertKV, key, value)
	return err
}

func (s *SQLiteDB) Get(key []byte) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *SQLiteDB) Delete(key []byte) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

// NewBatch applies buffered operations in a single SQL transaction.
func (s *SQLiteDB) NewBatch() Batch {
	return &opBatch{apply: func(ops []batchOp) error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		for _, op := range ops {
			if op.delete {
				_, err = tx.Exec(`DELETE FROM kv WHERE key = ?`, op.key)
			} else {
				_, err = tx.Exec(upsertKV, op.key, op.value)
			}
			if err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	}}
}

func (s *SQLiteDB) Close() {
	if s == nil || s.db == nil {
		return
	}
	_ = s.db.Close()
}

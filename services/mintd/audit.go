package mintd

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"lukechampine.com/blake3"

	"github.com/0xhanvalen/skaterbirds-nft/core/events"
	"github.com/0xhanvalen/skaterbirds-nft/core/types"
)

// Supported audit database drivers.
const (
	AuditDriverSQLite   = "sqlite"
	AuditDriverPostgres = "postgres"
)

// ErrAuditChainBroken is returned by Verify when a record's hash does not
// follow from its predecessor.
var ErrAuditChainBroken = errors.New("mintd: audit hash chain broken")

// AuditRecord is one entry of the append-only audit log. Each record's hash
// commits to the previous record's hash.
type AuditRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Seq        uint64    `gorm:"uniqueIndex;not null" json:"seq"`
	Type       string    `gorm:"size:64;index" json:"type"`
	Attributes string    `gorm:"type:text" json:"attributes"`
	Timestamp  int64     `gorm:"not null" json:"timestamp"`
	PrevHash   string    `gorm:"size:64" json:"prevHash"`
	Hash       string    `gorm:"size:64;uniqueIndex" json:"hash"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AttributeMap decodes the stored attributes.
func (r AuditRecord) AttributeMap() (map[string]string, error) {
	attrs := map[string]string{}
	if r.Attributes == "" {
		return attrs, nil
	}
	if err := json.Unmarshal([]byte(r.Attributes), &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

func (r AuditRecord) digest() string {
	hasher := blake3.New(32, nil)
	_, _ = hasher.Write([]byte(r.PrevHash))
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], r.Seq)
	_, _ = hasher.Write(seq[:])
	_, _ = hasher.Write([]byte(r.Type))
	_, _ = hasher.Write([]byte{0})
	_, _ = hasher.Write([]byte(r.Attributes))
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(r.Timestamp))
	_, _ = hasher.Write(ts[:])
	return hex.EncodeToString(hasher.Sum(nil))
}

// OpenAuditDB opens the configured audit database.
func OpenAuditDB(cfg AuditConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case AuditDriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case AuditDriverSQLite, "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("audit driver %q not supported", cfg.Driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	return db, nil
}

// AuditLog persists ledger events into a hash-chained table. It implements
// events.Emitter.
type AuditLog struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewAuditLog migrates the schema and returns the log.
func NewAuditLog(db *gorm.DB, logger *slog.Logger) (*AuditLog, error) {
	if db == nil {
		return nil, fmt.Errorf("audit db required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.AutoMigrate(&AuditRecord{}); err != nil {
		return nil, fmt.Errorf("migrate audit log: %w", err)
	}
	return &AuditLog{db: db, logger: logger, now: time.Now}, nil
}

// Emit implements events.Emitter. Events that cannot render attributes are
// ignored and persistence failures are logged.
func (a *AuditLog) Emit(evt events.Event) {
	payload, ok := evt.(events.Payload)
	if !ok || a == nil {
		return
	}
	if _, err := a.Append(context.Background(), payload.Event()); err != nil {
		a.logger.Error("audit: append failed", slog.String("type", evt.EventType()), slog.String("error", err.Error()))
	}
}

// Append stores evt as the next record of the chain.
func (a *AuditLog) Append(ctx context.Context, evt *types.Event) (*AuditRecord, error) {
	if evt == nil {
		return nil, fmt.Errorf("audit: nil event")
	}
	attrs := evt.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("audit: encode attributes: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var record AuditRecord
	err = a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last AuditRecord
		prevHash := ""
		seq := uint64(1)
		res := tx.Order("seq desc").Limit(1).Find(&last)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			prevHash = last.Hash
			seq = last.Seq + 1
		}
		now := a.now().UTC()
		record = AuditRecord{
			ID:         uuid.New(),
			Seq:        seq,
			Type:       evt.Type,
			Attributes: string(encoded),
			Timestamp:  now.UnixMilli(),
			PrevHash:   prevHash,
			CreatedAt:  now,
		}
		record.Hash = record.digest()
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, fmt.Errorf("audit: append: %w", err)
	}
	return &record, nil
}

// List returns up to limit records, newest first.
func (a *AuditLog) List(ctx context.Context, limit int) ([]AuditRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var records []AuditRecord
	if err := a.db.WithContext(ctx).Order("seq desc").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	return records, nil
}

// All returns every record in chain order.
func (a *AuditLog) All(ctx context.Context) ([]AuditRecord, error) {
	var records []AuditRecord
	if err := a.db.WithContext(ctx).Order("seq asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("audit: load: %w", err)
	}
	return records, nil
}

// Verify recomputes the hash chain and reports the first broken link.
func (a *AuditLog) Verify(ctx context.Context) error {
	records, err := a.All(ctx)
	if err != nil {
		return err
	}
	prev := ""
	for i, record := range records {
		if record.Seq != uint64(i+1) {
			return fmt.Errorf("%w: expected seq %d, found %d", ErrAuditChainBroken, i+1, record.Seq)
		}
		if record.PrevHash != prev {
			return fmt.Errorf("%w: seq %d does not link to its predecessor", ErrAuditChainBroken, record.Seq)
		}
		if record.digest() != record.Hash {
			return fmt.Errorf("%w: seq %d hash mismatch", ErrAuditChainBroken, record.Seq)
		}
		prev = record.Hash
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/0xhanvalen/skaterbirds-nft/integrations/exports"
	"github.com/0xhanvalen/skaterbirds-nft/services/mintd"
)

func runExport(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	driver := fs.String("driver", mintd.AuditDriverSQLite, "Audit database driver (sqlite|postgres)")
	dsn := fs.String("dsn", "file:mintd-audit.db", "Audit database DSN")
	format := fs.String("format", "csv", "Export format (csv|jsonl|parquet)")
	out := fs.String("out", "", "Output file; stdout when empty (required for parquet)")
	strict := fs.Bool("strict", false, "Fail when the audit hash chain does not verify")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := mintd.OpenAuditDB(mintd.AuditConfig{Driver: *driver, DSN: *dsn})
	if err != nil {
		return err
	}
	audit, err := mintd.NewAuditLog(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := audit.Verify(ctx); err != nil {
		if *strict || !errors.Is(err, mintd.ErrAuditChainBroken) {
			return err
		}
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	stored, err := audit.All(ctx)
	if err != nil {
		return err
	}
	records, err := toExportRecords(stored)
	if err != nil {
		return err
	}

	var (
		data     []byte
		checksum string
	)
	switch *format {
	case "csv":
		data, checksum, err = exports.AuditCSV(records)
	case "jsonl":
		data, checksum, err = exports.AuditJSONL(records)
	case "parquet":
		if *out == "" {
			return fmt.Errorf("-out is required for parquet exports")
		}
		if err := exports.AuditParquet(*out, records); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %d records to %s\n", len(records), *out)
		return nil
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		return err
	}
	if *out == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %d records to %s (sha256 %s)\n", len(records), *out, checksum)
	return nil
}

func toExportRecords(stored []mintd.AuditRecord) ([]exports.Record, error) {
	records := make([]exports.Record, 0, len(stored))
	for _, record := range stored {
		attrs, err := record.AttributeMap()
		if err != nil {
			return nil, fmt.Errorf("audit seq %d: %w", record.Seq, err)
		}
		records = append(records, exports.Record{
			Seq:        record.Seq,
			Type:       record.Type,
			Attributes: attrs,
			Timestamp:  time.UnixMilli(record.Timestamp).UTC(),
			PrevHash:   record.PrevHash,
			Hash:       record.Hash,
		})
	}
	return records, nil
}

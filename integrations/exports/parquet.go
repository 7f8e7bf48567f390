package exports

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type parquetRow struct {
	Seq        int64  `parquet:"name=seq, type=INT64"`
	Type       string `parquet:"name=type, type=UTF8, encoding=PLAIN_DICTIONARY"`
	Timestamp  string `parquet:"name=timestamp, type=UTF8, encoding=PLAIN_DICTIONARY"`
	Buyer      string `parquet:"name=buyer, type=UTF8, encoding=PLAIN_DICTIONARY"`
	Owner      string `parquet:"name=owner, type=UTF8, encoding=PLAIN_DICTIONARY"`
	Quantity   string `parquet:"name=quantity, type=UTF8, encoding=PLAIN_DICTIONARY"`
	Paid       string `parquet:"name=paid, type=UTF8, encoding=PLAIN_DICTIONARY"`
	Amount     string `parquet:"name=amount, type=UTF8, encoding=PLAIN_DICTIONARY"`
	Reference  string `parquet:"name=reference, type=UTF8, encoding=PLAIN_DICTIONARY"`
	Attributes string `parquet:"name=attributes, type=UTF8, encoding=PLAIN_DICTIONARY"`
	PrevHash   string `parquet:"name=prev_hash, type=UTF8, encoding=PLAIN_DICTIONARY"`
	Hash       string `parquet:"name=hash, type=UTF8, encoding=PLAIN_DICTIONARY"`
}

// AuditParquet writes records to a snappy-compressed parquet file at path.
func AuditParquet(path string, records []Record) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("exports: create parquet: %w", err)
	}
	fw := writerfile.NewWriterFile(file)
	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		file.Close()
		return fmt.Errorf("exports: parquet schema: %w", err)
	}
	pw.RowGroupSize = 16 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, record := range records {
		attrs, err := json.Marshal(record.Attributes)
		if err != nil {
			file.Close()
			return fmt.Errorf("exports: encode attributes: %w", err)
		}
		row := &parquetRow{
			Seq:        int64(record.Seq),
			Type:       record.Type,
			Timestamp:  timestamp(record).Format(time.RFC3339Nano),
			Buyer:      record.Attributes["buyer"],
			Owner:      record.Attributes["owner"],
			Quantity:   record.Attributes["quantity"],
			Paid:       record.Attributes["paid"],
			Amount:     record.Attributes["amount"],
			Reference:  record.Attributes["reference"],
			Attributes: string(attrs),
			PrevHash:   record.PrevHash,
			Hash:       record.Hash,
		}
		if err := pw.Write(row); err != nil {
			file.Close()
			return fmt.Errorf("exports: write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		file.Close()
		return fmt.Errorf("exports: finalize parquet: %w", err)
	}
	return file.Close()
}

package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// AuditCSV builds a CSV export for the supplied records and returns the
// serialised data alongside a SHA-256 checksum of the payload. Attributes
// without a dedicated column are folded into a key=value list.
func AuditCSV(records []Record) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)
	header := append([]string{"seq", "type", "timestamp"}, commonColumns...)
	header = append(header, "extra", "prev_hash", "hash")
	if err := writer.Write(header); err != nil {
		return nil, "", err
	}
	for _, record := range records {
		row := []string{
			strconv.FormatUint(record.Seq, 10),
			record.Type,
			timestamp(record).Format(time.RFC3339Nano),
		}
		promoted := make(map[string]bool, len(commonColumns))
		for _, column := range commonColumns {
			row = append(row, record.Attributes[column])
			promoted[column] = true
		}
		extra := make([]string, 0)
		for _, key := range attributeKeys(record.Attributes) {
			if promoted[key] {
				continue
			}
			extra = append(extra, key+"="+record.Attributes[key])
		}
		row = append(row, strings.Join(extra, ";"), record.PrevHash, record.Hash)
		if err := writer.Write(row); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}
	data := buffer.Bytes()
	checksum := sha256.Sum256(data)
	return data, hex.EncodeToString(checksum[:]), nil
}

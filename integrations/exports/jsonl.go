package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// AuditJSONL builds a JSON Lines export for the supplied records and returns
// the serialised payload alongside a checksum.
func AuditJSONL(records []Record) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	for _, record := range records {
		record.Timestamp = timestamp(record)
		if record.Attributes == nil {
			record.Attributes = map[string]string{}
		}
		if err := encoder.Encode(record); err != nil {
			return nil, "", err
		}
	}
	data := buffer.Bytes()
	checksum := sha256.Sum256(data)
	return data, hex.EncodeToString(checksum[:]), nil
}

package exports

import (
	"sort"
	"time"
)

// Record is one audit log entry prepared for export.
type Record struct {
	Seq        uint64            `json:"seq"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	Timestamp  time.Time         `json:"timestamp"`
	PrevHash   string            `json:"prevHash"`
	Hash       string            `json:"hash"`
}

// commonColumns are the attribute keys promoted to their own column.
var commonColumns = []string{"buyer", "owner", "quantity", "paid", "amount", "reference"}

func attributeKeys(attrs map[string]string) []string {
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func timestamp(r Record) time.Time {
	if r.Timestamp.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return r.Timestamp.UTC()
}

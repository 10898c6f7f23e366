package library

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

// ChangeOperation classifies an audit change record.
type ChangeOperation string

const (
	ChangeOperationInsert ChangeOperation = "INSERT"
	ChangeOperationUpdate ChangeOperation = "UPDATE"
	ChangeOperationDelete ChangeOperation = "DELETE"
)

// ChangeRecord is one append-only audit entry: a field-level before/after
// diff with a timestamp. For inserts and deletes a single record with
// Field "row" carries the whole row as the new (or previous) value.
type ChangeRecord struct {
	Table     string
	EntityID  int64
	Field     string
	Operation ChangeOperation
	PrevValue string
	NewValue  string
	ChangedAt time.Time
}

var auditJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// EncodeAuditValue renders a field value for storage in an audit record.
// Values are JSON-encoded so that strings, numbers, nulls and nested rows
// read back unambiguously.
func EncodeAuditValue(value any) string {
	encoded, err := auditJSON.MarshalToString(value)
	if err != nil {
		return ""
	}

	return encoded
}

// DiffFields compares two field maps and returns one ChangeRecord per field
// whose encoded value changed, in no particular order.
func DiffFields(table string, entityID int64, prev, next map[string]any, changedAt time.Time) []ChangeRecord {
	changes := make([]ChangeRecord, 0)

	for field, nextValue := range next {
		prevValue, existed := prev[field]
		if !existed {
			continue
		}

		encodedPrev := EncodeAuditValue(prevValue)
		encodedNext := EncodeAuditValue(nextValue)
		if encodedPrev == encodedNext {
			continue
		}

		changes = append(changes, ChangeRecord{
			Table:     table,
			EntityID:  entityID,
			Field:     field,
			Operation: ChangeOperationUpdate,
			PrevValue: encodedPrev,
			NewValue:  encodedNext,
			ChangedAt: changedAt,
		})
	}

	return changes
}

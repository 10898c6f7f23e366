package postgresengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/arkadyvb/libris/library"
	"github.com/arkadyvb/libris/library/postgresengine/internal/adapters"
)

// entityLogTarget maps a domain table to its dedicated audit table and the
// id column of that table. Tables without a dedicated log only appear in
// overall_logs.
type entityLogTarget struct {
	logTable string
	idColumn string
}

var entityLogTargets = map[string]entityLogTarget{
	tableUserCards:  {logTable: tableCardLogs, idColumn: "card_id"},
	tableLoans:      {logTable: tableCardLogs, idColumn: "card_id"},
	tableBooks:      {logTable: tableBookLogs, idColumn: "book_id"},
	tableBookCopies: {logTable: tableBookLogs, idColumn: "book_id"},
	tableFines:      {logTable: tableFineLogs, idColumn: "fine_id"},
}

// appendChanges writes audit records inside the caller's transaction: one row
// per change into the entity's dedicated log table (if any) and one row into
// overall_logs. Audit rows commit or roll back together with the change they
// describe.
func (s *Store) appendChanges(ctx context.Context, tx adapters.DBTx, changes []library.ChangeRecord) error {
	for _, change := range changes {
		if target, hasTarget := entityLogTargets[change.Table]; hasTarget {
			entitySQL, buildErr := s.toSQL(ctx, s.builder().
				Insert(s.auditTable(target.logTable)).
				Rows(goqu.Record{
					target.idColumn:  change.EntityID,
					"table_field":    change.Field,
					"operation_type": string(change.Operation),
					"prev_value":     change.PrevValue,
					"new_value":      change.NewValue,
					"change_time":    change.ChangedAt,
				}))
			if buildErr != nil {
				return buildErr
			}

			if _, execErr := s.execStatement(ctx, tx, entitySQL); execErr != nil {
				return execErr
			}
		}

		overallSQL, buildErr := s.toSQL(ctx, s.builder().
			Insert(s.auditTable(tableOverallLogs)).
			Rows(goqu.Record{
				"table_name":     change.Table,
				"table_field":    change.Field,
				"operation_type": string(change.Operation),
				"prev_value":     change.PrevValue,
				"new_value":      change.NewValue,
				"change_time":    change.ChangedAt,
			}))
		if buildErr != nil {
			return buildErr
		}

		if _, execErr := s.execStatement(ctx, tx, overallSQL); execErr != nil {
			return execErr
		}
	}

	return nil
}

// rowChange builds the single audit record used for whole-row inserts and
// deletes. The row map is JSON-encoded as one value under the field "row".
func (s *Store) rowChange(table string, entityID int64, op library.ChangeOperation, row map[string]any) library.ChangeRecord {
	change := library.ChangeRecord{
		Table:     table,
		EntityID:  entityID,
		Field:     "row",
		Operation: op,
		PrevValue: library.EncodeAuditValue(nil),
		NewValue:  library.EncodeAuditValue(nil),
		ChangedAt: s.clock(),
	}

	switch op {
	case library.ChangeOperationInsert:
		change.NewValue = library.EncodeAuditValue(row)
	case library.ChangeOperationDelete:
		change.PrevValue = library.EncodeAuditValue(row)
	case library.ChangeOperationUpdate:
		change.NewValue = library.EncodeAuditValue(row)
	}

	return change
}

package postgresengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/arkadyvb/libris/library"
	"github.com/arkadyvb/libris/library/postgresengine/internal/adapters"
)

// CreateSection adds a section to the shelving hierarchy. Section names are
// unique; re-creating an existing section returns the existing row.
func (s *Store) CreateSection(ctx context.Context, name string) (library.Section, error) {
	if name == "" {
		return library.Section{}, library.ValidationError{Field: "section_name", Reason: "must not be empty"}
	}

	var section library.Section

	txErr := s.withinTransaction(ctx, opShelving, func(tx adapters.DBTx) error {
		sectionID, upsertErr := s.upsertNamed(ctx, tx, tableSections, "section_id", "section_name", name)
		if upsertErr != nil {
			return s.mapStorageError(upsertErr)
		}

		section = library.Section{ID: sectionID, Name: name}

		return nil
	})

	return section, txErr
}

// CreateRack adds a rack under an existing section.
func (s *Store) CreateRack(ctx context.Context, name string, sectionID int64) (library.Rack, error) {
	if name == "" {
		return library.Rack{}, library.ValidationError{Field: "rack_name", Reason: "must not be empty"}
	}

	var rack library.Rack

	txErr := s.withinTransaction(ctx, opShelving, func(tx adapters.DBTx) error {
		rackID, createErr := s.findOrCreateRack(ctx, tx, name, sectionID)
		if createErr != nil {
			return s.mapStorageError(createErr)
		}

		rack = library.Rack{ID: rackID, Name: name, SectionID: sectionID}

		return nil
	})

	return rack, txErr
}

// CreateShelf adds a shelf under an existing rack. (Number, RackID) is unique;
// re-creating an existing shelf returns the existing row.
func (s *Store) CreateShelf(ctx context.Context, number string, rackID int64) (library.Shelf, error) {
	if number == "" {
		return library.Shelf{}, library.ValidationError{Field: "shelf_number", Reason: "must not be empty"}
	}

	var shelf library.Shelf

	txErr := s.withinTransaction(ctx, opShelving, func(tx adapters.DBTx) error {
		shelfID, createErr := s.findOrCreateShelf(ctx, tx, number, rackID)
		if createErr != nil {
			return s.mapStorageError(createErr)
		}

		shelf = library.Shelf{ID: shelfID, Number: number, RackID: rackID}

		return nil
	})

	return shelf, txErr
}

// GetSection returns a single section by id.
func (s *Store) GetSection(ctx context.Context, sectionID int64) (library.Section, error) {
	section := library.Section{ID: sectionID}
	getErr := s.getShelvingRow(ctx, tableSections, "section_id", "section_name", sectionID, "section", &section.Name)

	return section, getErr
}

// GetRack returns a single rack by id.
func (s *Store) GetRack(ctx context.Context, rackID int64) (library.Rack, error) {
	selectSQL, buildErr := s.toSQL(ctx, s.builder().
		From(s.libTable(tableRacks)).
		Select("rack_name", "section_id").
		Where(goqu.Ex{"rack_id": rackID}))
	if buildErr != nil {
		return library.Rack{}, buildErr
	}

	rack := library.Rack{ID: rackID}
	scanErr := s.queryOneRow(ctx, s.db, selectSQL, &rack.Name, &rack.SectionID)
	if scanErr == errNoRows {
		return library.Rack{}, library.NotFoundError{Entity: "rack", Key: rackID}
	}
	if scanErr != nil {
		return library.Rack{}, s.mapStorageError(scanErr)
	}

	return rack, nil
}

// GetShelf returns a single shelf by id.
func (s *Store) GetShelf(ctx context.Context, shelfID int64) (library.Shelf, error) {
	selectSQL, buildErr := s.toSQL(ctx, s.builder().
		From(s.libTable(tableShelves)).
		Select("shelf_number", "rack_id").
		Where(goqu.Ex{"shelf_id": shelfID}))
	if buildErr != nil {
		return library.Shelf{}, buildErr
	}

	shelf := library.Shelf{ID: shelfID}
	scanErr := s.queryOneRow(ctx, s.db, selectSQL, &shelf.Number, &shelf.RackID)
	if scanErr == errNoRows {
		return library.Shelf{}, library.NotFoundError{Entity: "shelf", Key: shelfID}
	}
	if scanErr != nil {
		return library.Shelf{}, s.mapStorageError(scanErr)
	}

	return shelf, nil
}

func (s *Store) getShelvingRow(ctx context.Context, table, idColumn, nameColumn string, id int64, entity string, dest *string) error {
	selectSQL, buildErr := s.toSQL(ctx, s.builder().
		From(s.libTable(table)).
		Select(nameColumn).
		Where(goqu.Ex{idColumn: id}))
	if buildErr != nil {
		return buildErr
	}

	scanErr := s.queryOneRow(ctx, s.db, selectSQL, dest)
	if scanErr == errNoRows {
		return library.NotFoundError{Entity: entity, Key: id}
	}
	if scanErr != nil {
		return s.mapStorageError(scanErr)
	}

	return nil
}

// ListSections returns all sections ordered by id.
func (s *Store) ListSections(ctx context.Context) ([]library.Section, error) {
	listSQL, buildErr := s.toSQL(ctx, s.builder().
		From(s.libTable(tableSections)).
		Select("section_id", "section_name").
		Order(goqu.I("section_id").Asc()))
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.db.Query(ctx, listSQL)
	if queryErr != nil {
		return nil, s.mapStorageError(queryErr)
	}
	defer s.closeRows(ctx, rows)

	sections := make([]library.Section, 0)

	for rows.Next() {
		var section library.Section
		if scanErr := rows.Scan(&section.ID, &section.Name); scanErr != nil {
			return nil, s.mapStorageError(scanErr)
		}
		sections = append(sections, section)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, s.mapStorageError(rowsErr)
	}

	return sections, nil
}

// ListRacks returns all racks of a section ordered by id.
func (s *Store) ListRacks(ctx context.Context, sectionID int64) ([]library.Rack, error) {
	listSQL, buildErr := s.toSQL(ctx, s.builder().
		From(s.libTable(tableRacks)).
		Select("rack_id", "rack_name", "section_id").
		Where(goqu.Ex{"section_id": sectionID}).
		Order(goqu.I("rack_id").Asc()))
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.db.Query(ctx, listSQL)
	if queryErr != nil {
		return nil, s.mapStorageError(queryErr)
	}
	defer s.closeRows(ctx, rows)

	racks := make([]library.Rack, 0)

	for rows.Next() {
		var rack library.Rack
		if scanErr := rows.Scan(&rack.ID, &rack.Name, &rack.SectionID); scanErr != nil {
			return nil, s.mapStorageError(scanErr)
		}
		racks = append(racks, rack)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, s.mapStorageError(rowsErr)
	}

	return racks, nil
}

// ListShelves returns all shelves of a rack ordered by id.
func (s *Store) ListShelves(ctx context.Context, rackID int64) ([]library.Shelf, error) {
	listSQL, buildErr := s.toSQL(ctx, s.builder().
		From(s.libTable(tableShelves)).
		Select("shelf_id", "shelf_number", "rack_id").
		Where(goqu.Ex{"rack_id": rackID}).
		Order(goqu.I("shelf_id").Asc()))
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.db.Query(ctx, listSQL)
	if queryErr != nil {
		return nil, s.mapStorageError(queryErr)
	}
	defer s.closeRows(ctx, rows)

	shelves := make([]library.Shelf, 0)

	for rows.Next() {
		var shelf library.Shelf
		if scanErr := rows.Scan(&shelf.ID, &shelf.Number, &shelf.RackID); scanErr != nil {
			return nil, s.mapStorageError(scanErr)
		}
		shelves = append(shelves, shelf)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, s.mapStorageError(rowsErr)
	}

	return shelves, nil
}

// RenameSection changes a section's name. Names stay unique; a clash surfaces
// as a constraint violation.
func (s *Store) RenameSection(ctx context.Context, sectionID int64, name string) error {
	if name == "" {
		return library.ValidationError{Field: "section_name", Reason: "must not be empty"}
	}

	return s.renameShelvingRow(ctx, tableSections, "section_id", "section_name", sectionID, name, "section")
}

// RenameRack changes a rack's name.
func (s *Store) RenameRack(ctx context.Context, rackID int64, name string) error {
	if name == "" {
		return library.ValidationError{Field: "rack_name", Reason: "must not be empty"}
	}

	return s.renameShelvingRow(ctx, tableRacks, "rack_id", "rack_name", rackID, name, "rack")
}

// RenameShelf changes a shelf's number. (Number, RackID) stays unique; a
// clash surfaces as a constraint violation.
func (s *Store) RenameShelf(ctx context.Context, shelfID int64, number string) error {
	if number == "" {
		return library.ValidationError{Field: "shelf_number", Reason: "must not be empty"}
	}

	return s.renameShelvingRow(ctx, tableShelves, "shelf_id", "shelf_number", shelfID, number, "shelf")
}

func (s *Store) renameShelvingRow(ctx context.Context, table, idColumn, nameColumn string, id int64, name, entity string) error {
	return s.withinTransaction(ctx, opShelving, func(tx adapters.DBTx) error {
		lockSQL, buildErr := s.toSQL(ctx, s.builder().
			From(s.libTable(table)).
			Select(nameColumn).
			Where(goqu.Ex{idColumn: id}).
			ForUpdate(exp.Wait))
		if buildErr != nil {
			return buildErr
		}

		var previous string
		scanErr := s.queryOneRow(ctx, tx, lockSQL, &previous)
		if scanErr == errNoRows {
			return library.NotFoundError{Entity: entity, Key: id}
		}
		if scanErr != nil {
			return s.mapStorageError(scanErr)
		}
		if previous == name {
			return nil
		}

		updateSQL, buildErr := s.toSQL(ctx, s.builder().
			Update(s.libTable(table)).
			Set(goqu.Record{nameColumn: name}).
			Where(goqu.Ex{idColumn: id}))
		if buildErr != nil {
			return buildErr
		}

		if _, execErr := s.execStatement(ctx, tx, updateSQL); execErr != nil {
			return s.mapStorageError(execErr)
		}

		return s.appendChanges(ctx, tx, []library.ChangeRecord{{
			Table:     table,
			EntityID:  id,
			Field:     nameColumn,
			Operation: library.ChangeOperationUpdate,
			PrevValue: library.EncodeAuditValue(previous),
			NewValue:  library.EncodeAuditValue(name),
			ChangedAt: s.clock(),
		}})
	})
}

// DeleteSection removes a section; racks and shelves under it cascade. Fails
// with a constraint violation while any shelf in the section still holds a
// copy placement.
func (s *Store) DeleteSection(ctx context.Context, sectionID int64) error {
	return s.deleteShelvingRow(ctx, tableSections, "section_id", sectionID, "section")
}

// DeleteRack removes a rack; shelves under it cascade.
func (s *Store) DeleteRack(ctx context.Context, rackID int64) error {
	return s.deleteShelvingRow(ctx, tableRacks, "rack_id", rackID, "rack")
}

// DeleteShelf removes a shelf. Fails with a constraint violation while the
// shelf still holds a copy placement.
func (s *Store) DeleteShelf(ctx context.Context, shelfID int64) error {
	return s.deleteShelvingRow(ctx, tableShelves, "shelf_id", shelfID, "shelf")
}

func (s *Store) deleteShelvingRow(ctx context.Context, table, idColumn string, id int64, entity string) error {
	return s.withinTransaction(ctx, opShelving, func(tx adapters.DBTx) error {
		deleteSQL, buildErr := s.toSQL(ctx, s.builder().
			Delete(s.libTable(table)).
			Where(goqu.Ex{idColumn: id}))
		if buildErr != nil {
			return buildErr
		}

		affected, execErr := s.execStatement(ctx, tx, deleteSQL)
		if execErr != nil {
			return s.mapStorageError(execErr)
		}
		if affected == 0 {
			return library.NotFoundError{Entity: entity, Key: id}
		}

		return nil
	})
}

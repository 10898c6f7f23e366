package postgresengine

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/arkadyvb/libris/library"
	"github.com/arkadyvb/libris/library/postgresengine/internal/adapters"
)

// Migrate creates the three schemas and all tables if they do not exist yet.
// Statements are idempotent, so Migrate is safe to run on every startup.
func (s *Store) Migrate(ctx context.Context) error {
	for _, statement := range s.schemaStatements() {
		if _, execErr := s.db.Exec(ctx, statement); execErr != nil {
			s.logError(ctx, "schema migration failed", execErr, logAttrQuery, statement)

			return s.mapStorageError(execErr)
		}
	}

	return nil
}

// EnsureDefaultWarehouse creates the warehouse shelving chain
// (section "Main Warehouse", rack "In Warehouse", one shelf) and wires the
// shelf in as the default placement for new copies, unless a warehouse shelf
// was already configured via WithWarehouseShelfID.
func (s *Store) EnsureDefaultWarehouse(ctx context.Context) error {
	if s.warehouseShelfID != 0 {
		return nil
	}

	return s.withinTransaction(ctx, opShelving, func(tx adapters.DBTx) error {
		sectionID, sectionErr := s.upsertNamed(ctx, tx, tableSections, "section_id", "section_name", library.DefaultSectionLabel)
		if sectionErr != nil {
			return s.mapStorageError(sectionErr)
		}

		rackID, rackErr := s.findOrCreateRack(ctx, tx, library.DefaultRackLabel, sectionID)
		if rackErr != nil {
			return s.mapStorageError(rackErr)
		}

		shelfID, shelfErr := s.findOrCreateShelf(ctx, tx, library.DefaultShelfLabel, rackID)
		if shelfErr != nil {
			return s.mapStorageError(shelfErr)
		}

		s.warehouseShelfID = shelfID

		return nil
	})
}

func (s *Store) findOrCreateRack(ctx context.Context, tx adapters.DBTx, name string, sectionID int64) (int64, error) {
	selectSQL, selectErr := s.toSQL(ctx, s.builder().
		From(s.libTable(tableRacks)).
		Select("rack_id").
		Where(goqu.Ex{"rack_name": name, "section_id": sectionID}))
	if selectErr != nil {
		return 0, selectErr
	}

	var rackID int64
	scanErr := s.queryOneRow(ctx, tx, selectSQL, &rackID)
	if scanErr == nil {
		return rackID, nil
	}
	if scanErr != errNoRows {
		return 0, scanErr
	}

	insertSQL, insertErr := s.toSQL(ctx, s.builder().
		Insert(s.libTable(tableRacks)).
		Rows(goqu.Record{"rack_name": name, "section_id": sectionID}).
		Returning("rack_id"))
	if insertErr != nil {
		return 0, insertErr
	}

	if insertScanErr := s.queryOneRow(ctx, tx, insertSQL, &rackID); insertScanErr != nil {
		return 0, insertScanErr
	}

	return rackID, nil
}

func (s *Store) findOrCreateShelf(ctx context.Context, tx adapters.DBTx, number string, rackID int64) (int64, error) {
	insertSQL, insertErr := s.toSQL(ctx, s.builder().
		Insert(s.libTable(tableShelves)).
		Rows(goqu.Record{"shelf_number": number, "rack_id": rackID}).
		OnConflict(goqu.DoUpdate("shelf_number, rack_id", goqu.Record{"shelf_number": number})).
		Returning("shelf_id"))
	if insertErr != nil {
		return 0, insertErr
	}

	var shelfID int64
	if scanErr := s.queryOneRow(ctx, tx, insertSQL, &shelfID); scanErr != nil {
		return 0, scanErr
	}

	return shelfID, nil
}

func (s *Store) schemaStatements() []string {
	lib := s.librarySchema
	aud := s.auditSchema
	stf := s.staffSchema

	return []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, lib),
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, aud),
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, stf),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.sections (
			section_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			section_name varchar(100) NOT NULL UNIQUE
		)`, lib),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.racks (
			rack_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			rack_name varchar(100) NOT NULL,
			section_id bigint NOT NULL REFERENCES %s.sections (section_id) ON DELETE CASCADE
		)`, lib, lib),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.shelves (
			shelf_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			shelf_number varchar(100) NOT NULL CHECK (length(shelf_number) > 0),
			rack_id bigint NOT NULL REFERENCES %s.racks (rack_id) ON DELETE CASCADE,
			UNIQUE (shelf_number, rack_id)
		)`, lib, lib),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.authors (
			author_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			author_lname varchar(100) NOT NULL UNIQUE,
			author_fname varchar(100) NOT NULL,
			author_mname varchar(100),
			birth_year int NOT NULL CHECK (birth_year > 0),
			death_year int CHECK (death_year IS NULL OR death_year > birth_year)
		)`, lib),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.genres (
			genre_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			genre_name varchar(100) NOT NULL UNIQUE
		)`, lib),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.categories (
			category_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			category_name varchar(100) NOT NULL UNIQUE
		)`, lib),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.publishers (
			publisher_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			publisher_name varchar(100) NOT NULL UNIQUE
		)`, lib),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.books (
			book_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			book_name varchar(255) NOT NULL UNIQUE CHECK (length(book_name) > 0),
			publishing_year int NOT NULL CHECK (publishing_year > 0),
			pages_number int NOT NULL CHECK (pages_number > 0),
			category_id bigint NOT NULL REFERENCES %s.categories (category_id),
			genre_id bigint NOT NULL REFERENCES %s.genres (genre_id)
		)`, lib, lib, lib),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.authors_books (
			id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			author_id bigint NOT NULL REFERENCES %s.authors (author_id) ON DELETE CASCADE,
			book_id bigint NOT NULL REFERENCES %s.books (book_id) ON DELETE CASCADE,
			UNIQUE (author_id, book_id)
		)`, lib, lib, lib),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.book_copies (
			copy_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			photo varchar(255),
			status varchar(20) NOT NULL DEFAULT 'Available'
				CHECK (status IN ('Available', 'CheckedOut', 'Damaged', 'Lost')),
			book_id bigint NOT NULL REFERENCES %s.books (book_id) ON DELETE CASCADE,
			publisher_id bigint NOT NULL REFERENCES %s.publishers (publisher_id)
		)`, lib, lib, lib),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.book_locations (
			location_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			shelf_id bigint NOT NULL REFERENCES %s.shelves (shelf_id),
			copy_id bigint NOT NULL UNIQUE REFERENCES %s.book_copies (copy_id)
		)`, lib, lib, lib),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.user_cards (
			user_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			user_lname varchar(100) NOT NULL,
			user_fname varchar(100) NOT NULL,
			user_mname varchar(100),
			user_passport_series int NOT NULL CHECK (user_passport_series BETWEEN 1000 AND 9999),
			user_passport_number int NOT NULL CHECK (user_passport_number BETWEEN 100000 AND 999999),
			user_email varchar(255) NOT NULL UNIQUE
				CHECK (user_email ~* '^[A-Za-z0-9._%%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$'),
			status varchar(10) NOT NULL CHECK (status IN ('Active', 'Inactive')),
			photo varchar(255),
			registration_date date NOT NULL DEFAULT current_date
		)`, lib),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.loans (
			loan_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			loan_date date NOT NULL DEFAULT current_date,
			due_date date NOT NULL,
			return_date date,
			copy_id bigint NOT NULL REFERENCES %s.book_copies (copy_id),
			user_id bigint NOT NULL REFERENCES %s.user_cards (user_id) ON DELETE CASCADE,
			CHECK (due_date > loan_date),
			CHECK (return_date IS NULL OR return_date >= loan_date)
		)`, lib, lib, lib),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.fines (
			fine_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			fine_amount bigint NOT NULL CHECK (fine_amount >= 100),
			fine_date date NOT NULL DEFAULT current_date,
			fine_paid boolean NOT NULL DEFAULT false,
			user_id bigint NOT NULL REFERENCES %s.user_cards (user_id) ON DELETE CASCADE
		)`, lib, lib),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.card_logs (
			card_log_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			card_id bigint NOT NULL,
			table_field text NOT NULL,
			operation_type text NOT NULL,
			prev_value text NOT NULL,
			new_value text NOT NULL,
			change_time timestamptz NOT NULL DEFAULT now()
		)`, aud),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.book_logs (
			book_log_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			book_id bigint NOT NULL,
			table_field text NOT NULL,
			operation_type text NOT NULL,
			prev_value text NOT NULL,
			new_value text NOT NULL,
			change_time timestamptz NOT NULL DEFAULT now()
		)`, aud),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.fine_logs (
			fine_log_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			fine_id bigint NOT NULL,
			table_field text NOT NULL,
			operation_type text NOT NULL,
			prev_value text NOT NULL,
			new_value text NOT NULL,
			change_time timestamptz NOT NULL DEFAULT now()
		)`, aud),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.overall_logs (
			overall_log_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			table_name text NOT NULL,
			table_field text NOT NULL,
			operation_type text NOT NULL,
			prev_value text NOT NULL,
			new_value text NOT NULL,
			change_time timestamptz NOT NULL DEFAULT now()
		)`, aud),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.employees (
			employee_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			employee_lname varchar(100) NOT NULL,
			employee_fname varchar(100) NOT NULL,
			employee_mname varchar(100),
			employee_passport_series int NOT NULL CHECK (employee_passport_series BETWEEN 1000 AND 9999),
			employee_passport_number int NOT NULL CHECK (employee_passport_number BETWEEN 100000 AND 999999)
		)`, stf),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.employee_credentials (
			credential_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			employee_id bigint NOT NULL REFERENCES %s.employees (employee_id) ON DELETE CASCADE,
			username varchar(100) NOT NULL UNIQUE,
			password_hash text NOT NULL
		)`, stf, stf),
	}
}

// Package library contains the core domain model of the library-management
// backend: the catalog entities (books, copies, authors, shelving hierarchy),
// readers, loans and fines, together with their invariants, the error
// taxonomy shared by all storage engines, the read-side projection types, and
// the audit change-record types.
//
// The package is storage-agnostic. Persistence and the transactional
// workflows live in the engine packages (see postgresengine).
package library

package idb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDBClosed matches every *DBClosedError via errors.Is.
	ErrDBClosed = errors.New("database is closed")
	// ErrAborted is reported by requests and transactions aborted by Close or by
	// cancellation of the caller's context.
	ErrAborted = errors.New("transaction was aborted")
	// ErrReadOnly is reported by a Put issued inside a ReadOnly transaction.
	ErrReadOnly = errors.New("transaction is read-only")
	// ErrReservedStoreName is returned when an upgrade tries to create or delete
	// the internal metadata store.
	ErrReservedStoreName = errors.New("object store name is reserved")
)

// DBClosedError is returned by every operation on a Database whose connection
// was closed.
type DBClosedError struct {
	Name string
}

func (e *DBClosedError) Error() string {
	return fmt.Sprintf("database '%s' is closed.", e.Name)
}

// Code returns the stable error code "DBClosed".
func (e *DBClosedError) Code() string {
	return "DBClosed"
}

func (e *DBClosedError) Is(target error) bool {
	return target == ErrDBClosed
}

// MissingStoresError reports required object stores that are absent after
// opening a database. Open recovers from it once by recreating the database.
type MissingStoresError struct {
	Name    string
	Missing []string
}

func (e *MissingStoresError) Error() string {
	return fmt.Sprintf("database '%s' is missing stores: %s", e.Name, strings.Join(e.Missing, ", "))
}

// VersionError is returned when a database is opened with a version lower
// than the one it is stored at.
type VersionError struct {
	Name      string
	Requested uint64
	Current   uint64
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("database '%s' is at version %d, cannot open at lower version %d",
		e.Name, e.Current, e.Requested)
}

// StoreNotFoundError is returned when a transaction or a cursor names an
// object store that does not exist.
type StoreNotFoundError struct {
	Name  string
	Store string
}

func (e *StoreNotFoundError) Error() string {
	return fmt.Sprintf("object store '%s' not found in database '%s'", e.Store, e.Name)
}

// TransactionError wraps the engine failure that made a transaction roll back.
type TransactionError struct {
	Store string
	Mode  Mode
	Cause error
}

func (e *TransactionError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s transaction on '%s' failed: unknown error", e.Mode, e.Store)
	}
	return fmt.Sprintf("%s transaction on '%s' failed: %v", e.Mode, e.Store, e.Cause)
}

func (e *TransactionError) Unwrap() error {
	return e.Cause
}

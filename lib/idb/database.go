package idb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"go.etcd.io/bbolt"
)

var Logger = logger.GetLogger("idb")

const defaultOpenTimeout = time.Second

// Options configures how databases are opened.
type Options struct {
	// Dir is the directory holding the database files ("" = working directory).
	Dir string
	// Timeout is how long to wait for the file lock of another process (0 = 1 sec).
	Timeout time.Duration
	// NoSync skips the fsync after every commit. Only for tests.
	NoSync bool
	// Upgrade runs when the database is created or opened at a higher version.
	Upgrade UpgradeFunc
	// Router receives the requests for redirected keys. nil keeps every key local.
	Router RemoteRouter
}

// Database is a named, versioned embedded database made of object stores.
// The connection is owned exclusively by the Database; once closed, every
// operation fails with a *DBClosedError.
type Database struct {
	name    string
	version uint64
	router  RemoteRouter

	mu       sync.RWMutex
	database *bbolt.DB
	pending  *pendingSet
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// Open opens the database name at version (0 = latest, or 1 for a new
// database) and makes sure every store in stores exists.
//
// Stores are created only while upgrading. If a required store is missing
// after opening, the database is deleted and opened again from scratch, once.
// If the stores are still missing, the open fails with a *MissingStoresError.
// Any other failure is returned without retry.
//
// A database file has at most one connection at a time, also within one
// process: bbolt holds an exclusive file lock, so a second Open of a database
// that is still open fails after opts.Timeout. Share the *Database instead.
func Open(ctx context.Context, name string, version uint64, stores []string, opts *Options) (*Database, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	Logger.Debugf("mark code/willOpenDatabase/%s", name)
	defer func() {
		Logger.Debugf("mark code/didOpenDatabase/%s", name)
		metrics.GetOrCreateHistogram(fmt.Sprintf(`mkv_idb_open_duration_seconds{database=%q}`, name)).UpdateDuration(start)
	}()

	boltDB, dbVersion, err := doOpen(name, version, stores, opts)

	var missing *MissingStoresError
	if errors.As(err, &missing) {
		Logger.Infof("attempting to recreate database %s once", name)

		if err := DeleteDatabase(opts.Dir, name); err != nil {
			Logger.Errorf("error while deleting database %s: %v", name, err)
			return nil, err
		}

		boltDB, dbVersion, err = doOpen(name, version, stores, opts)
	}
	if err != nil {
		return nil, err
	}

	return &Database{
		name:     name,
		version:  dbVersion,
		router:   opts.Router,
		database: boltDB,
		pending:  newPendingSet(),
	}, nil
}

// doOpen opens the file, runs the upgrade if needed and verifies the stores.
// The file is closed again on every error path.
func doOpen(name string, version uint64, stores []string, opts *Options) (*bbolt.DB, uint64, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultOpenTimeout
	}

	boltDB, err := bbolt.Open(DatabasePath(opts.Dir, name), 0o600, &bbolt.Options{
		Timeout: timeout,
		NoSync:  opts.NoSync,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open database '%s': %w", name, err)
	}

	var dbVersion uint64
	err = boltDB.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		if err != nil {
			return err
		}

		oldVersion, err := decodeVersion(meta.Get(versionKey))
		if err != nil {
			return err
		}

		newVersion := version
		if newVersion == 0 {
			newVersion = max(oldVersion, 1)
		}
		if newVersion < oldVersion {
			return &VersionError{Name: name, Requested: version, Current: oldVersion}
		}
		dbVersion = newVersion
		if newVersion == oldVersion {
			return nil
		}

		// upgrade needed
		Logger.Infof("upgrading database %s from version %d to %d", name, oldVersion, newVersion)
		vtx := &VersionChangeTx{tx: tx}
		for _, store := range stores {
			if !vtx.Contains(store) {
				if err := vtx.CreateObjectStore(store); err != nil {
					return err
				}
			}
		}
		if opts.Upgrade != nil {
			if err := opts.Upgrade(vtx, oldVersion, newVersion); err != nil {
				return fmt.Errorf("upgrade of '%s' to version %d failed: %w", name, newVersion, err)
			}
		}
		return meta.Put(versionKey, encodeVersion(newVersion))
	})
	if err != nil {
		_ = boltDB.Close()
		return nil, 0, err
	}

	var missing []string
	_ = boltDB.View(func(tx *bbolt.Tx) error {
		for _, store := range stores {
			if store == metaBucket || tx.Bucket([]byte(store)) == nil {
				missing = append(missing, store)
			}
		}
		return nil
	})
	if len(missing) > 0 {
		Logger.Errorf("error while opening database %s: could not find object stores %v", name, missing)
		_ = boltDB.Close()
		return nil, 0, &MissingStoresError{Name: name, Missing: missing}
	}

	return boltDB, dbVersion, nil
}

// DeleteDatabase removes the database file. Deleting a database that does not
// exist is not an error. Open connections must be closed by the caller first.
func DeleteDatabase(dir, name string) error {
	err := os.Remove(DatabasePath(dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete database '%s': %w", name, err)
	}
	return nil
}

// DatabasePath returns the file that holds the database name inside dir.
func DatabasePath(dir, name string) string {
	return filepath.Join(dir, url.PathEscape(name)+".db")
}

// Close aborts every pending transaction, drops the connection and closes the
// engine. Closing twice is a no-op. Close waits for running engine
// transactions to finish rolling back.
func (d *Database) Close() error {
	d.mu.Lock()
	boltDB := d.database
	d.database = nil
	d.mu.Unlock()

	if n := d.pending.abortAll(); n > 0 {
		Logger.Infof("aborted %d pending transactions of database %s", n, d.name)
	}
	if boltDB == nil {
		return nil
	}
	return boltDB.Close()
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

func (d *Database) Name() string {
	return d.name
}

// Version is the version the database was opened at.
func (d *Database) Version() uint64 {
	return d.version
}

// HasPendingTransactions reports whether any transaction is in flight.
func (d *Database) HasPendingTransactions() bool {
	return d.pending.len() > 0
}

// ObjectStoreNames returns the sorted names of all object stores.
func (d *Database) ObjectStoreNames() ([]string, error) {
	boltDB, err := d.connection()
	if err != nil {
		return nil, err
	}
	var names []string
	err = boltDB.View(func(tx *bbolt.Tx) error {
		names = storeNames(tx)
		return nil
	})
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return nil, &DBClosedError{Name: d.name}
	}
	return names, err
}

// connection returns the live engine handle or a *DBClosedError.
func (d *Database) connection() (*bbolt.DB, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.database == nil {
		return nil, &DBClosedError{Name: d.name}
	}
	return d.database, nil
}

// begin registers a new pending transaction while holding the read lock, so
// that Close can not slip in between the closed check and the registration.
func (d *Database) begin(ctx context.Context, store string, mode Mode) (*bbolt.DB, *transaction, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.database == nil {
		return nil, nil, &DBClosedError{Name: d.name}
	}
	return d.database, d.pending.add(ctx, store, mode), nil
}

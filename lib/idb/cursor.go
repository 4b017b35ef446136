package idb

import (
	"context"

	"go.etcd.io/bbolt"
)

// GetKeyValues reads every entry of store into a map, keeping only the values
// accepted by isValid (nil accepts everything). isValid must not retain the
// slice it is given.
//
// The read bypasses the router. Cursor or transaction failures are logged and
// the entries read so far are returned; the only error is a *DBClosedError
// when the database is already closed.
func (d *Database) GetKeyValues(ctx context.Context, store string, isValid func(value []byte) bool) (map[string][]byte, error) {
	boltDB, txn, err := d.begin(ctx, store, ReadOnly)
	if err != nil {
		return nil, err
	}
	defer d.pending.remove(txn)

	items := make(map[string][]byte)

	err = boltDB.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(store))
		if bucket == nil || store == metaBucket {
			return &StoreNotFoundError{Name: d.name, Store: store}
		}

		// iterate over the rows of the store until the end
		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if txn.aborted() {
				return ErrAborted
			}
			if v == nil || (isValid != nil && !isValid(v)) {
				continue
			}
			value := make([]byte, len(v))
			copy(value, v)
			items[string(k)] = value
		}
		return nil
	})
	if err != nil {
		Logger.Errorf("getKeyValues(%s/%s): %v", d.name, store, err)
	}

	return items, nil
}

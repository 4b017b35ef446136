package idb

import (
	"encoding/binary"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"
)

const metaBucket = "__idb_meta"

var versionKey = []byte("version")

// UpgradeFunc runs inside the version change transaction of Open, after the
// required stores have been created. Returning an error aborts the open.
type UpgradeFunc func(tx *VersionChangeTx, oldVersion, newVersion uint64) error

// VersionChangeTx is the only place where object stores can be created or deleted.
type VersionChangeTx struct {
	tx *bbolt.Tx
}

// ObjectStoreNames returns the names of all object stores in sorted order.
func (v *VersionChangeTx) ObjectStoreNames() []string {
	return storeNames(v.tx)
}

// Contains reports whether the object store exists.
func (v *VersionChangeTx) Contains(name string) bool {
	return name != metaBucket && v.tx.Bucket([]byte(name)) != nil
}

// CreateObjectStore creates a new, empty object store.
func (v *VersionChangeTx) CreateObjectStore(name string) error {
	if name == metaBucket {
		return ErrReservedStoreName
	}
	if _, err := v.tx.CreateBucket([]byte(name)); err != nil {
		return fmt.Errorf("failed to create object store '%s': %w", name, err)
	}
	return nil
}

// DeleteObjectStore removes an object store and all of its entries.
func (v *VersionChangeTx) DeleteObjectStore(name string) error {
	if name == metaBucket {
		return ErrReservedStoreName
	}
	if err := v.tx.DeleteBucket([]byte(name)); err != nil {
		return fmt.Errorf("failed to delete object store '%s': %w", name, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// storeNames lists every bucket except the metadata bucket. bbolt iterates
// buckets in key order, so the result is sorted.
func storeNames(tx *bbolt.Tx) []string {
	names := make([]string, 0)
	_ = tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
		if string(name) != metaBucket {
			names = append(names, string(name))
		}
		return nil
	})
	return names
}

func encodeVersion(version uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, version)
	return b
}

func decodeVersion(b []byte) (uint64, error) {
	if b == nil {
		return 0, nil
	}
	if len(b) != 8 {
		return 0, errors.New("corrupted version record")
	}
	return binary.BigEndian.Uint64(b), nil
}

package bolt

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/mKV/lib/db"
	"go.etcd.io/bbolt"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultBucket  = "kv"
	defaultTimeout = time.Second
)

// DBOptions configures the bolt engine during initialization
type DBOptions struct {
	Bucket  string        // Bucket holding all entries ("" = "kv")
	Timeout time.Duration // How long to wait for the file lock (0 = 1 sec)
	NoSync  bool          // Skip fsync per write, only for tests
}

// DefaultOptions returns the default bolt engine options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		Bucket:  defaultBucket,
		Timeout: defaultTimeout,
	}
}

// boltImpl stores every entry in a single bucket of a bbolt file.
type boltImpl struct {
	db     *bbolt.DB
	bucket []byte
	path   string
	closed atomic.Bool
}

// NewBoltDB opens (or creates) the bbolt file at path and returns it as a KVDB.
func NewBoltDB(path string, opts *DBOptions) (db.KVDB, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Bucket == "" {
		opts.Bucket = defaultBucket
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}

	boltDB, err := bbolt.Open(path, 0o600, &bbolt.Options{
		Timeout: opts.Timeout,
		NoSync:  opts.NoSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt file %s: %w", path, err)
	}

	bucket := []byte(opts.Bucket)
	err = boltDB.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		_ = boltDB.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", opts.Bucket, err)
	}

	return &boltImpl{
		db:     boltDB,
		bucket: bucket,
		path:   path,
	}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.KVDB)
// --------------------------------------------------------------------------

func (b *boltImpl) Set(key string, value []byte) error {
	if b.closed.Load() {
		return db.ErrClosed
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(b.bucket).Put([]byte(key), value)
	})
}

func (b *boltImpl) Delete(key string) error {
	if b.closed.Load() {
		return db.ErrClosed
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(b.bucket).Delete([]byte(key))
	})
}

func (b *boltImpl) Get(key string) (value []byte, loaded bool, err error) {
	if b.closed.Load() {
		return nil, false, db.ErrClosed
	}
	err = b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(b.bucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		// values are only valid for the lifetime of the transaction
		value = make([]byte, len(v))
		copy(value, v)
		loaded = true
		return nil
	})
	return value, loaded, err
}

func (b *boltImpl) Has(key string) (loaded bool, err error) {
	if b.closed.Load() {
		return false, db.ErrClosed
	}
	err = b.db.View(func(tx *bbolt.Tx) error {
		loaded = tx.Bucket(b.bucket).Get([]byte(key)) != nil
		return nil
	})
	return loaded, err
}

func (b *boltImpl) Keys() (keys []string, err error) {
	if b.closed.Load() {
		return nil, db.ErrClosed
	}
	err = b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(b.bucket).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	return keys, err
}

func (b *boltImpl) SupportsFeature(feature db.Feature) bool {
	supported := db.FeatureSet | db.FeatureGet | db.FeatureDelete | db.FeatureHas |
		db.FeatureKeys | db.FeaturePersist
	return feature&supported == feature
}

func (b *boltImpl) GetInfo() db.DatabaseInfo {
	info := db.DatabaseInfo{
		DbType: db.ImplBolt,
		SupportedFeatures: (db.FeatureSet | db.FeatureGet | db.FeatureDelete | db.FeatureHas |
			db.FeatureKeys | db.FeaturePersist).Features(),
		Metadata: map[string]string{"path": b.path},
	}
	if b.closed.Load() {
		return info
	}
	_ = b.db.View(func(tx *bbolt.Tx) error {
		info.Keys = tx.Bucket(b.bucket).Stats().KeyN
		return nil
	})
	return info
}

func (b *boltImpl) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.db.Close()
}

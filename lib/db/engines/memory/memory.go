package memory

import (
	"sync/atomic"

	"github.com/ValentinKolb/mKV/lib/db"
	"github.com/puzpuzpuz/xsync/v3"
)

// memoryImpl is a KVDB backed by a concurrent map.
type memoryImpl struct {
	data   *xsync.MapOf[string, []byte]
	closed atomic.Bool
}

// NewMemoryDB creates a new, empty in-memory database.
//
// Thread-safety: all methods of the returned KVDB can be called concurrently.
func NewMemoryDB() db.KVDB {
	return &memoryImpl{
		data: xsync.NewMapOf[string, []byte](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.KVDB)
// --------------------------------------------------------------------------

func (m *memoryImpl) Set(key string, value []byte) error {
	if m.closed.Load() {
		return db.ErrClosed
	}
	// Copy value to prevent memory corruption
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	m.data.Store(key, valueCopy)
	return nil
}

func (m *memoryImpl) Delete(key string) error {
	if m.closed.Load() {
		return db.ErrClosed
	}
	m.data.Delete(key)
	return nil
}

func (m *memoryImpl) Get(key string) ([]byte, bool, error) {
	if m.closed.Load() {
		return nil, false, db.ErrClosed
	}
	value, ok := m.data.Load(key)
	if !ok {
		return nil, false, nil
	}
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	return valueCopy, true, nil
}

func (m *memoryImpl) Has(key string) (bool, error) {
	if m.closed.Load() {
		return false, db.ErrClosed
	}
	_, ok := m.data.Load(key)
	return ok, nil
}

func (m *memoryImpl) Keys() ([]string, error) {
	if m.closed.Load() {
		return nil, db.ErrClosed
	}
	keys := make([]string, 0, m.data.Size())
	m.data.Range(func(key string, _ []byte) bool {
		keys = append(keys, key)
		return true
	})
	return keys, nil
}

func (m *memoryImpl) SupportsFeature(feature db.Feature) bool {
	supported := db.FeatureSet | db.FeatureGet | db.FeatureDelete | db.FeatureHas | db.FeatureKeys
	return feature&supported == feature
}

func (m *memoryImpl) GetInfo() db.DatabaseInfo {
	return db.DatabaseInfo{
		Keys:   m.data.Size(),
		DbType: db.ImplMemory,
		SupportedFeatures: (db.FeatureSet | db.FeatureGet | db.FeatureDelete | db.FeatureHas |
			db.FeatureKeys).Features(),
	}
}

func (m *memoryImpl) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	m.data.Clear()
	return nil
}

// Package lstore implements a local, single-node key-value store based on the
// store.IStore interface. It provides a thin wrapper around any db.KVDB
// implementation.
//
// Implementation Details:
//
//   - Feature Detection: Before executing operations, the store checks if the underlying
//     db.KVDB implementation supports the requested feature through the SupportsFeature
//     method. Unsupported operations return RetCUnsupportedOperation rather than failing
//     silently or producing undefined behavior.
//
//   - Error Mapping: Engine errors are converted to *store.Error values. Operations on a
//     closed engine map to RetCInvalidOperation, everything else to RetCInternalError.
//
//   - Composition Architecture: The store.DBFactory factory function injects the
//     underlying db.KVDB implementation (memory or bolt engine).
//
// Usage Example:
//
//	// Create a store with a bolt database backend
//	s, err := lstore.NewLocalStore(func() (db.KVDB, error) {
//		return bolt.NewBoltDB("secrets.db", nil)
//	})
//
//	err = s.Set("theme", []byte("dark"))
//	value, exists, err := s.Get("theme")
//
// The local store backs the property store of the credential provider
// (lib/secrets) and the reference settings service (rpc/server).
package lstore

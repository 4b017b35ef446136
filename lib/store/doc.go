// Package store provides a high-level interface for key-value storage operations
// with unified error handling. It serves as an abstraction layer over the lower-level
// db.KVDB implementations.
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining operations for interacting with
//     a key-value store. The interface methods return custom Error types that provide
//     detailed information about operation results.
//
//   - Error System: A structured error reporting mechanism using typed error codes
//     (RetCode) and descriptive messages. This system allows applications to make
//     informed decisions based on specific error conditions rather than generic errors.
//
//   - DBFactory: A function type that abstracts the creation of underlying db.KVDB
//     instances, providing dependency injection and flexible configuration of
//     storage backends.
//
// Implementations:
//
//	- Local Store (lstore): directly utilizes a db.KVDB instance.
//	  Available in the "github.com/ValentinKolb/mKV/lib/store/lstore" package.
//
// Users of the interface:
//   - lib/secrets: the generic string-keyed property store of the credential provider
//   - rpc/server: the backing store of the reference settings service
package store

// Package db provides a standardized interface for low level key-value database implementations.
// It defines the KVDB interface that allows for consistent interaction with various
// database backends while abstracting implementation details.
//
// KVDB is intentionally small: it backs the property store of the credential
// provider (lib/secrets) and the reference settings service (rpc/server). The
// transactional, multi-store embedded database used by the application itself
// lives in lib/idb and is not a KVDB.
//
// Key Components:
//
//   - KVDB Interface: The core interface that all database implementations must satisfy.
//     It provides methods for basic operations (Set, Get, Has, Delete, Keys),
//     metadata retrieval (GetInfo) and lifecycle (Close).
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     can advertise through the SupportsFeature method. This allows clients to
//     discover supported operations at runtime.
//
//   - Implementation Identifiers: The Implementation type provides string constants
//     for the database backends ("memory", "bolt").
//
// Engines:
//
//   - engines/memory (github.com/ValentinKolb/mKV/lib/db/engines/memory): a concurrent
//     in-memory map, nothing survives Close.
//   - engines/bolt (github.com/ValentinKolb/mKV/lib/db/engines/bolt): a single bucket in a
//     bbolt file, every write is its own durable transaction.
//
// The testing package (github.com/ValentinKolb/mKV/lib/db/testing) provides a
// standardized test suite every engine runs:
//   - RunKVDBTests: validates an implementation against the KVDB contract
package db

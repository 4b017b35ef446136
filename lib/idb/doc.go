// Package idb implements a small embedded database with IndexedDB semantics on
// top of bbolt: named, versioned databases made of object stores, transactions
// in read-only or read-write mode with atomic commit and abort, and a cursor
// reader for whole stores.
//
// On top of that, a Database can be given a RemoteRouter. Keys the router
// claims are never persisted locally; requests for them are recorded inside
// the transaction and executed remotely once the local part has committed.
// Callers see one consistent store.
//
// Lifecycle:
//
//   - Open(ctx, name, version, stores, opts) opens or creates the database file
//     <opts.Dir>/<name>.db. Stores are created only during an upgrade, i.e. when
//     the database is new or opened at a higher version. If a required store is
//     still missing after opening, the database is deleted and recreated exactly
//     once; a second failure is returned as *MissingStoresError.
//   - Close aborts every pending transaction and closes the file. Every later
//     call fails with *DBClosedError (errors.Is(err, ErrDBClosed)).
//
// Transactions:
//
//	res, err := database.RunInTransactionBatch(ctx, "ItemTable", idb.ReadOnly,
//		func(s idb.ObjectStore) []*idb.Request {
//			return []*idb.Request{s.Get("a"), s.Get("memento/webviewView.membrane.logs")}
//		})
//
// The function receives a proxy store. Every Get and Put is recorded as a
// RequestRecord in issuance order. Local keys are executed immediately in the
// engine transaction; redirected keys are handed to RemoteRouter.Route as one
// batch after commit. Each Request carries its own result, so the returned
// slice always matches the order of the requests fn returned.
//
// Failure semantics:
//
//   - local failures (read-only violation, engine error, abort) roll the whole
//     transaction back and surface as *TransactionError.
//   - remote failures never fail the transaction: a failed read is presented as
//     absent (Ok == false), a failed write as not confirmed (Ok == false).
//   - GetKeyValues never fails after the closed check; it logs and returns what
//     it read so far.
//
// Thread Safety:
//
//	A Database can be used from many goroutines. Read-only transactions run
//	concurrently, read-write transactions are serialized by the engine.
package idb

package idb

import (
	"context"
	"errors"
	"fmt"

	"github.com/VictoriaMetrics/metrics"
	"go.etcd.io/bbolt"
)

// Mode is the access mode of a transaction.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "readonly"
	case ReadWrite:
		return "readwrite"
	default:
		return "unknown"
	}
}

// Result is the caller-visible outcome of one request.
// For a get, Ok reports whether a value was found. For a put, Ok reports
// whether the write was applied locally or confirmed by the remote side.
type Result struct {
	Key   string
	Value []byte
	Ok    bool
}

// Request is the handle returned by the object store proxy for every call.
// Its result is final once the transaction function returned; results of
// redirected keys are filled in when the transaction completes.
type Request struct {
	record     RequestRecord
	redirected bool
	result     Result
	err        error
}

// Record returns what was intercepted for this request.
func (r *Request) Record() RequestRecord {
	return r.record
}

// Redirected reports whether the request was routed to the remote side.
func (r *Request) Redirected() bool {
	return r.redirected
}

// Result returns the outcome of the request.
func (r *Request) Result() Result {
	return r.result
}

// Err returns the local failure of the request, if any.
func (r *Request) Err() error {
	return r.err
}

// ObjectStore is the handle passed to transaction functions.
// Every call is recorded before it is executed.
type ObjectStore interface {
	// Name returns the name of the object store.
	Name() string
	// Get reads the value stored under key.
	Get(key string) *Request
	// Put stores value under key. It fails in a ReadOnly transaction.
	Put(key string, value []byte) *Request
}

// --------------------------------------------------------------------------
// Object store proxy
// --------------------------------------------------------------------------

// storeProxy records every request of one transaction in issuance order and
// executes the ones for local keys directly on the bucket.
type storeProxy struct {
	txn     *transaction
	bucket  *bbolt.Bucket
	router  RemoteRouter
	records []*Request
	err     error // first local failure, rolls the transaction back
}

func (p *storeProxy) Name() string {
	return p.txn.store
}

func (p *storeProxy) Get(key string) *Request {
	req := p.record(RequestRecord{Operation: OpGet, Key: key})
	if p.inactive(req) || req.redirected {
		return req
	}

	req.result = Result{Key: key}
	if v := p.bucket.Get([]byte(key)); v != nil {
		// values are only valid for the lifetime of the transaction
		req.result.Value = make([]byte, len(v))
		copy(req.result.Value, v)
		req.result.Ok = true
	}
	return req
}

func (p *storeProxy) Put(key string, value []byte) *Request {
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	req := p.record(RequestRecord{Operation: OpPut, Key: key, Value: valueCopy})
	if p.inactive(req) {
		return req
	}
	if p.txn.mode == ReadOnly {
		p.fail(req, ErrReadOnly)
		return req
	}
	if req.redirected {
		return req
	}

	if err := p.bucket.Put([]byte(key), valueCopy); err != nil {
		p.fail(req, fmt.Errorf("put '%s': %w", key, err))
		return req
	}
	req.result = Result{Key: key, Ok: true}
	return req
}

// record appends a new request and classifies its key.
func (p *storeProxy) record(record RequestRecord) *Request {
	req := &Request{
		record:     record,
		redirected: p.router != nil && p.router.IsRedirected(record.Key),
	}
	p.records = append(p.records, req)
	return req
}

// inactive fails req if the transaction was aborted or already failed.
func (p *storeProxy) inactive(req *Request) bool {
	switch {
	case p.err != nil:
		req.err = ErrAborted
	case p.txn.aborted():
		p.fail(req, ErrAborted)
	default:
		return false
	}
	return true
}

func (p *storeProxy) fail(req *Request, err error) {
	req.err = err
	if p.err == nil {
		p.err = err
	}
}

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

// RunInTransaction runs fn in a single transaction on store and returns the
// result of the request fn returned. See RunInTransactionBatch.
func (d *Database) RunInTransaction(ctx context.Context, store string, mode Mode, fn func(store ObjectStore) *Request) (Result, error) {
	requests, err := d.runTransaction(ctx, store, mode, func(s ObjectStore) []*Request {
		if req := fn(s); req != nil {
			return []*Request{req}
		}
		return nil
	})
	if err != nil || len(requests) == 0 {
		return Result{}, err
	}
	return requests[0].result, nil
}

// RunInTransactionBatch runs fn in a single transaction on store and returns
// the results of the requests fn returned, in the same order.
//
// Requests for local keys run inside the engine transaction. Requests for
// redirected keys never touch the engine: they are handed to the router as
// one batch after the engine transaction committed, and their results are
// substituted in place. A failing local request rolls the transaction back and
// fails the call with a *TransactionError; remote failures never do.
func (d *Database) RunInTransactionBatch(ctx context.Context, store string, mode Mode, fn func(store ObjectStore) []*Request) ([]Result, error) {
	requests, err := d.runTransaction(ctx, store, mode, fn)
	if err != nil {
		return nil, err
	}
	results := make([]Result, len(requests))
	for i, req := range requests {
		results[i] = req.result
	}
	return results, nil
}

func (d *Database) runTransaction(ctx context.Context, store string, mode Mode, fn func(store ObjectStore) []*Request) ([]*Request, error) {
	boltDB, txn, err := d.begin(ctx, store, mode)
	if err != nil {
		return nil, err
	}
	defer d.pending.remove(txn)

	run := boltDB.View
	if mode == ReadWrite {
		run = boltDB.Update
	}

	var requests []*Request
	var proxy *storeProxy
	err = run(func(tx *bbolt.Tx) error {
		if txn.aborted() {
			return ErrAborted
		}
		bucket := tx.Bucket([]byte(store))
		if bucket == nil || store == metaBucket {
			return &StoreNotFoundError{Name: d.name, Store: store}
		}

		proxy = &storeProxy{txn: txn, bucket: bucket, router: d.router}
		requests = fn(proxy)

		if proxy.err != nil {
			return proxy.err
		}
		if txn.aborted() {
			return ErrAborted
		}
		return nil
	})
	if err != nil {
		metrics.GetOrCreateCounter(fmt.Sprintf(`mkv_idb_transactions_total{mode=%q,status="failed"}`, mode)).Inc()
		return nil, d.transactionError(store, mode, err)
	}
	metrics.GetOrCreateCounter(fmt.Sprintf(`mkv_idb_transactions_total{mode=%q,status="committed"}`, mode)).Inc()

	d.complete(ctx, proxy.records)
	return requests, nil
}

// complete hands the redirected requests to the router and stores the
// outcome in each request.
func (d *Database) complete(ctx context.Context, requests []*Request) {
	var redirected []*Request
	for _, req := range requests {
		if req.redirected {
			redirected = append(redirected, req)
		}
	}
	if len(redirected) == 0 {
		return
	}

	records := make([]RequestRecord, len(redirected))
	for i, req := range redirected {
		records[i] = req.record
	}

	results := d.router.Route(ctx, records)
	for i, req := range redirected {
		res := RemoteResult{Status: RemoteFailed}
		if i < len(results) {
			res = results[i]
		}
		req.result = res.toResult(req.record)
	}
}

func (d *Database) transactionError(store string, mode Mode, err error) error {
	var notFound *StoreNotFoundError
	switch {
	case errors.Is(err, bbolt.ErrDatabaseNotOpen):
		return &DBClosedError{Name: d.name}
	case errors.As(err, &notFound):
		return err
	default:
		return &TransactionError{Store: store, Mode: mode, Cause: err}
	}
}

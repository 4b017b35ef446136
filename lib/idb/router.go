package idb

import "context"

// --------------------------------------------------------------------------
// Request records
// --------------------------------------------------------------------------

// Operation is the kind of an intercepted object store call.
type Operation int

const (
	OpGet Operation = iota
	OpPut
)

func (o Operation) String() string {
	switch o {
	case OpGet:
		return "get"
	case OpPut:
		return "put"
	default:
		return "unknown"
	}
}

// RequestRecord is one intercepted call inside a transaction, in issuance order.
// Value is only set for OpPut.
type RequestRecord struct {
	Operation Operation
	Key       string
	Value     []byte
}

// --------------------------------------------------------------------------
// Remote routing
// --------------------------------------------------------------------------

// RemoteStatus classifies the outcome of a routed request.
type RemoteStatus int

const (
	// RemoteOK means the value was read or the write was confirmed.
	RemoteOK RemoteStatus = iota
	// RemoteAbsent means the remote side has no value for the key.
	RemoteAbsent
	// RemoteFailed means the remote call failed; the write is not confirmed
	// and a read is presented as absent.
	RemoteFailed
)

func (s RemoteStatus) String() string {
	switch s {
	case RemoteOK:
		return "ok"
	case RemoteAbsent:
		return "absent"
	case RemoteFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RemoteResult is the typed outcome of one routed RequestRecord.
type RemoteResult struct {
	Status RemoteStatus
	Value  []byte
	Err    error
}

// RemoteRouter decides which keys bypass the embedded engine and executes
// them once the local part of a transaction has committed.
type RemoteRouter interface {
	// IsRedirected reports whether key lives on the remote side.
	IsRedirected(key string) bool
	// Route executes the redirected records of one transaction as a single batch.
	// The returned slice must have one entry per record, in the same order.
	// Route never fails as a whole: failures are reported per record.
	Route(ctx context.Context, records []RequestRecord) []RemoteResult
}

// toResult presents a remote outcome in the shape of a local request result.
func (r RemoteResult) toResult(record RequestRecord) Result {
	res := Result{Key: record.Key, Ok: r.Status == RemoteOK}
	if record.Operation == OpGet && r.Status == RemoteOK {
		res.Value = r.Value
	}
	return res
}

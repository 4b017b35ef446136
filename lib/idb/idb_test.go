package idb

import (
	"context"
	"sync"
	"testing"
)

const (
	testStore   = "ItemTable"
	remoteKey   = "memento/webviewView.membrane.logs"
	remoteKey2  = "/User/settings.json"
	testVersion = 1
)

// fakeRouter redirects a fixed key set and answers from an in-memory map.
type fakeRouter struct {
	mu      sync.Mutex
	keys    map[string]bool
	values  map[string][]byte
	fail    bool
	batches [][]RequestRecord
}

func newFakeRouter(keys ...string) *fakeRouter {
	r := &fakeRouter{keys: map[string]bool{}, values: map[string][]byte{}}
	for _, k := range keys {
		r.keys[k] = true
	}
	return r
}

func (r *fakeRouter) IsRedirected(key string) bool {
	return r.keys[key]
}

func (r *fakeRouter) Route(_ context.Context, records []RequestRecord) []RemoteResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.batches = append(r.batches, records)
	results := make([]RemoteResult, len(records))
	for i, rec := range records {
		switch {
		case r.fail:
			results[i] = RemoteResult{Status: RemoteFailed}
		case rec.Operation == OpPut:
			r.values[rec.Key] = rec.Value
			results[i] = RemoteResult{Status: RemoteOK}
		default:
			if v, ok := r.values[rec.Key]; ok {
				results[i] = RemoteResult{Status: RemoteOK, Value: v}
			} else {
				results[i] = RemoteResult{Status: RemoteAbsent}
			}
		}
	}
	return results
}

func (r *fakeRouter) batchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

// openTestDB opens a database in a temporary directory and closes it on cleanup.
func openTestDB(t *testing.T, dir string, router RemoteRouter, stores ...string) *Database {
	t.Helper()
	if len(stores) == 0 {
		stores = []string{testStore}
	}
	database, err := Open(context.Background(), "vscode-web-state-db-test", testVersion, stores, &Options{
		Dir:    dir,
		NoSync: true,
		Router: router,
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// put writes key=value in a read-write transaction and fails the test on error.
func put(t *testing.T, database *Database, key, value string) {
	t.Helper()
	_, err := database.RunInTransaction(context.Background(), testStore, ReadWrite, func(s ObjectStore) *Request {
		return s.Put(key, []byte(value))
	})
	if err != nil {
		t.Fatalf("Put(%s) failed: %v", key, err)
	}
}

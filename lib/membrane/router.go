package membrane

import (
	"context"
	"errors"
	"fmt"

	"github.com/ValentinKolb/mKV/lib/idb"
	"github.com/ValentinKolb/mKV/rpc/client"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/sourcegraph/conc/iter"
)

var Logger = logger.GetLogger("membrane")

// Router sends the redirected keys of a transaction to the settings service.
// It implements idb.RemoteRouter.
type Router struct {
	bridge client.IBridge
}

// NewRouter creates a router that talks to the settings service through bridge.
func NewRouter(bridge client.IBridge) *Router {
	return &Router{bridge: bridge}
}

// IsRedirected reports whether key is one of the RedirectedKeys.
func (r *Router) IsRedirected(key string) bool {
	return IsRedirectedKey(key)
}

// Route executes every record concurrently and returns the results in record
// order. Failures are logged and reported per record, never for the batch.
func (r *Router) Route(ctx context.Context, records []idb.RequestRecord) []idb.RemoteResult {
	return iter.Map(records, func(record *idb.RequestRecord) idb.RemoteResult {
		var res idb.RemoteResult
		switch record.Operation {
		case idb.OpGet:
			res = r.Get(ctx, record.Key)
		case idb.OpPut:
			res = r.Put(ctx, record.Key, record.Value)
		default:
			res = idb.RemoteResult{Status: idb.RemoteFailed, Err: fmt.Errorf("unsupported operation %s", record.Operation)}
		}
		metrics.GetOrCreateCounter(fmt.Sprintf(`mkv_membrane_requests_total{op=%q,status=%q}`, record.Operation, res.Status)).Inc()
		return res
	})
}

// Get reads key from the settings service. A 404, or a response without the
// key, is RemoteAbsent.
func (r *Router) Get(ctx context.Context, key string) idb.RemoteResult {
	values, err := FetchSettings(ctx, r.bridge, key)
	switch {
	case errors.Is(err, ErrAbsent):
		return idb.RemoteResult{Status: idb.RemoteAbsent}
	case err != nil:
		Logger.Warningf("Error fetching data for key %s: %v", key, err)
		return idb.RemoteResult{Status: idb.RemoteFailed, Err: err}
	}

	raw, ok := values[key]
	if !ok || string(raw) == "null" {
		return idb.RemoteResult{Status: idb.RemoteAbsent}
	}
	return idb.RemoteResult{Status: idb.RemoteOK, Value: DecodeValue(raw)}
}

// Put writes value under key. Anything but a 2xx answer leaves the write unconfirmed.
func (r *Router) Put(ctx context.Context, key string, value []byte) idb.RemoteResult {
	if err := StoreSetting(ctx, r.bridge, key, value); err != nil {
		Logger.Warningf("Error putting data for key %s: %v", key, err)
		return idb.RemoteResult{Status: idb.RemoteFailed, Err: err}
	}
	return idb.RemoteResult{Status: idb.RemoteOK}
}

package membrane

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ValentinKolb/mKV/lib/idb"
	"github.com/ValentinKolb/mKV/rpc/client"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/google/go-cmp/cmp"
)

const logsKey = "memento/webviewView.membrane.logs"

type staticTokens string

func (s staticTokens) GetAuthToken(context.Context) (string, error) {
	return string(s), nil
}

// settingsService is a minimal in-memory implementation of the settings HTTP contract.
type settingsService struct {
	mu     sync.Mutex
	values map[string]json.RawMessage
	posts  []map[string]string
	status int // forced status code, 0 = normal behavior
}

func newSettingsService(t *testing.T) (*settingsService, client.IBridge) {
	t.Helper()
	s := &settingsService{values: map[string]json.RawMessage{}}
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	bridge := client.NewBridge(common.ClientConfig{Endpoint: srv.URL}, staticTokens("token"))
	t.Cleanup(func() { _ = bridge.Close() })
	return s, bridge
}

func (s *settingsService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != 0 {
		w.WriteHeader(s.status)
		return
	}

	switch r.Method {
	case http.MethodGet:
		found := map[string]json.RawMessage{}
		for _, k := range r.URL.Query()["keys"] {
			if v, ok := s.values[k]; ok {
				found[k] = v
			}
		}
		if len(found) == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(found)
	case http.MethodPost:
		data, _ := io.ReadAll(r.Body)
		body := map[string]string{}
		if err := json.Unmarshal(data, &body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.posts = append(s.posts, body)
		s.values[body["key"]], _ = json.Marshal(body["value"])
		w.WriteHeader(http.StatusNoContent)
	}
}

func TestRouterGet(t *testing.T) {
	service, bridge := newSettingsService(t)
	service.values[logsKey] = json.RawMessage(`"X"`)
	service.values["/User/settings.json"] = json.RawMessage(`{"editor.fontSize":14}`)
	service.values["memento/webviewView.membrane.packages"] = json.RawMessage(`null`)
	router := NewRouter(bridge)

	tests := []struct {
		key  string
		want idb.RemoteResult
	}{
		{logsKey, idb.RemoteResult{Status: idb.RemoteOK, Value: []byte("X")}},
		{"/User/settings.json", idb.RemoteResult{Status: idb.RemoteOK, Value: []byte(`{"editor.fontSize":14}`)}},
		{"memento/webviewView.membrane.navigator", idb.RemoteResult{Status: idb.RemoteAbsent}},
		{"memento/webviewView.membrane.packages", idb.RemoteResult{Status: idb.RemoteAbsent}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, router.Get(context.Background(), tt.key)); diff != "" {
				t.Errorf("unexpected result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRouterFailuresAreAbsorbed(t *testing.T) {
	service, bridge := newSettingsService(t)
	service.status = http.StatusInternalServerError
	router := NewRouter(bridge)

	results := router.Route(context.Background(), []idb.RequestRecord{
		{Operation: idb.OpGet, Key: logsKey},
		{Operation: idb.OpPut, Key: logsKey, Value: []byte("v")},
	})
	for i, res := range results {
		if res.Status != idb.RemoteFailed || res.Err == nil {
			t.Errorf("result %d: expected RemoteFailed with an error, got %+v", i, res)
		}
	}

	// unreachable service
	offline := NewRouter(client.NewBridge(common.ClientConfig{Endpoint: "http://127.0.0.1:1"}, staticTokens("t")))
	if res := offline.Get(context.Background(), logsKey); res.Status != idb.RemoteFailed {
		t.Errorf("expected RemoteFailed for an unreachable service, got %+v", res)
	}

	// no token
	tokenless := NewRouter(client.NewBridge(common.ClientConfig{Endpoint: "http://127.0.0.1:1"}, staticTokens("")))
	if res := tokenless.Put(context.Background(), logsKey, []byte("v")); res.Status != idb.RemoteFailed {
		t.Errorf("expected RemoteFailed without a token, got %+v", res)
	}
}

func TestRouterPutSendsText(t *testing.T) {
	service, bridge := newSettingsService(t)
	router := NewRouter(bridge)

	res := router.Put(context.Background(), logsKey, []byte{'o', 'k', 0xff})
	if res.Status != idb.RemoteOK {
		t.Fatalf("Put failed: %+v", res)
	}
	want := []map[string]string{{"key": logsKey, "value": "ok\uFFFD"}}
	if diff := cmp.Diff(want, service.posts); diff != "" {
		t.Errorf("unexpected POST bodies (-want +got):\n%s", diff)
	}
}

func TestRouteKeepsOrder(t *testing.T) {
	service, bridge := newSettingsService(t)
	service.values["/User/settings.json"] = json.RawMessage(`"settings"`)
	router := NewRouter(bridge)

	results := router.Route(context.Background(), []idb.RequestRecord{
		{Operation: idb.OpGet, Key: "/User/settings.json"},
		{Operation: idb.OpPut, Key: logsKey, Value: []byte("L")},
		{Operation: idb.OpGet, Key: "memento/webviewView.membrane.navigator"},
	})

	want := []idb.RemoteResult{
		{Status: idb.RemoteOK, Value: []byte("settings")},
		{Status: idb.RemoteOK},
		{Status: idb.RemoteAbsent},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("unexpected results (-want +got):\n%s", diff)
	}
}

func TestTransactionThroughRouter(t *testing.T) {
	service, bridge := newSettingsService(t)
	service.values[logsKey] = json.RawMessage(`"X"`)

	database, err := idb.Open(context.Background(), "vscode-web-state-db-global", 1, []string{"ItemTable"}, &idb.Options{
		Dir:    t.TempDir(),
		NoSync: true,
		Router: NewRouter(bridge),
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer database.Close()

	results, err := database.RunInTransactionBatch(context.Background(), "ItemTable", idb.ReadWrite, func(s idb.ObjectStore) []*idb.Request {
		return []*idb.Request{
			s.Put("local", []byte("1")),
			s.Get(logsKey),
			s.Get("memento/webviewView.membrane.navigator"),
			s.Put("/User/settings.json", []byte(`{"a":1}`)),
		}
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}

	want := []idb.Result{
		{Key: "local", Ok: true},
		{Key: logsKey, Value: []byte("X"), Ok: true},
		{Key: "memento/webviewView.membrane.navigator"},
		{Key: "/User/settings.json", Ok: true},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("unexpected results (-want +got):\n%s", diff)
	}

	items, _ := database.GetKeyValues(context.Background(), "ItemTable", nil)
	if diff := cmp.Diff(map[string][]byte{"local": []byte("1")}, items); diff != "" {
		t.Errorf("only local keys may be persisted (-want +got):\n%s", diff)
	}
	if string(service.values["/User/settings.json"]) != `"{\"a\":1}"` {
		t.Errorf("settings document not stored remotely: %s", service.values["/User/settings.json"])
	}
}

package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/mKV/lib/idb"
	"github.com/ValentinKolb/mKV/lib/membrane"
	"github.com/ValentinKolb/mKV/rpc/client"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/google/go-cmp/cmp"
)

const secret = "test-secret"

func newTestServer(t *testing.T, config common.ServerConfig) *httptest.Server {
	t.Helper()
	s, err := NewSettingsServer(config, nil)
	if err != nil {
		t.Fatalf("NewSettingsServer failed: %v", err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = s.store.Close()
	})
	return srv
}

func do(t *testing.T, method, url, token, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, strings.TrimSpace(string(data))
}

func TestSettingsContract(t *testing.T) {
	srv := newTestServer(t, common.ServerConfig{Engine: common.EngineMemory})
	url := srv.URL + "/settings"

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"get unknown key", http.MethodGet, "?keys=a", "", http.StatusNotFound, "not found"},
		{"get without keys", http.MethodGet, "", "", http.StatusBadRequest, "missing keys parameter"},
		{"post string", http.MethodPost, "", `{"key":"a","value":"X"}`, http.StatusNoContent, ""},
		{"post object", http.MethodPost, "", `{"key":"/User/settings.json","value":{"x":1}}`, http.StatusNoContent, ""},
		{"post without key", http.MethodPost, "", `{"value":"X"}`, http.StatusBadRequest, "missing key"},
		{"post without value", http.MethodPost, "", `{"key":"a"}`, http.StatusBadRequest, "missing value"},
		{"post garbage", http.MethodPost, "", `not json`, http.StatusBadRequest, ""},
		{"get one", http.MethodGet, "?keys=a", "", http.StatusOK, `{"a":"X"}`},
		{"get some", http.MethodGet, "?keys=a&keys=%2FUser%2Fsettings.json&keys=b", "", http.StatusOK, `{"/User/settings.json":{"x":1},"a":"X"}`},
		{"overwrite", http.MethodPost, "", `{"key":"a","value":"Y"}`, http.StatusNoContent, ""},
		{"get overwritten", http.MethodGet, "?keys=a", "", http.StatusOK, `{"a":"Y"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, tt.method, url+tt.path, "any-token", tt.body)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %q)", status, tt.wantStatus, body)
			}
			if tt.wantBody != "" && !strings.HasPrefix(body, tt.wantBody) {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestAuthentication(t *testing.T) {
	open := newTestServer(t, common.ServerConfig{})
	if status, _ := do(t, http.MethodGet, open.URL+"/settings?keys=a", "", ""); status != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d, want 401", status)
	}

	guarded := newTestServer(t, common.ServerConfig{AuthSecret: secret})
	valid, err := MintToken(secret, "tester", time.Minute)
	if err != nil {
		t.Fatalf("MintToken failed: %v", err)
	}
	expired, _ := MintToken(secret, "tester", -time.Minute)
	foreign, _ := MintToken("other-secret", "tester", time.Minute)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"valid", valid, http.StatusNotFound},
		{"expired", expired, http.StatusUnauthorized},
		{"wrong secret", foreign, http.StatusUnauthorized},
		{"not a jwt", "abc", http.StatusUnauthorized},
		{"none", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, _ := do(t, http.MethodGet, guarded.URL+"/settings?keys=a", tt.token, ""); status != tt.want {
				t.Errorf("status = %d, want %d", status, tt.want)
			}
		})
	}
}

func TestVerifyToken(t *testing.T) {
	token, err := MintToken(secret, "alice", 0)
	if err != nil {
		t.Fatalf("MintToken failed: %v", err)
	}
	claims, err := VerifyToken(secret, token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if claims.Subject != "alice" || claims.ExpiresAt != nil {
		t.Errorf("unexpected claims: %+v", claims)
	}

	if _, err := VerifyToken("wrong", token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := MintToken("", "alice", 0); err == nil {
		t.Errorf("minting without a secret must fail")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, common.ServerConfig{})
	do(t, http.MethodGet, srv.URL+"/settings?keys=a", "t", "")

	status, body := do(t, http.MethodGet, srv.URL+"/metrics", "", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if !strings.Contains(body, `mkv_settings_requests_total{method="GET",status="404"}`) {
		t.Errorf("request counter missing from metrics output")
	}
}

func TestNewStore(t *testing.T) {
	for _, engine := range []common.ServerEngine{common.EngineMemory, common.EngineBolt} {
		t.Run(string(engine), func(t *testing.T) {
			s, err := NewStore(common.ServerConfig{Engine: engine, DataDir: t.TempDir()})
			if err != nil {
				t.Fatalf("NewStore failed: %v", err)
			}
			defer s.Close()
			if err := s.Set("k", []byte(`"v"`)); err != nil {
				t.Errorf("Set failed: %v", err)
			}
		})
	}

	if _, err := NewStore(common.ServerConfig{Engine: "redis"}); err == nil {
		t.Errorf("expected an error for an unknown engine")
	}
}

type staticTokens string

func (s staticTokens) GetAuthToken(context.Context) (string, error) {
	return string(s), nil
}

// TestBridgeRoundTrip runs the membrane router against the real handler.
func TestBridgeRoundTrip(t *testing.T) {
	srv := newTestServer(t, common.ServerConfig{AuthSecret: secret, Engine: common.EngineBolt, DataDir: t.TempDir()})
	token, _ := MintToken(secret, "ide", time.Minute)

	bridge := client.NewBridge(common.ClientConfig{Endpoint: srv.URL}, staticTokens(token))
	defer bridge.Close()
	router := membrane.NewRouter(bridge)

	// the records of one batch run concurrently, so the read goes first on its own
	if res := router.Get(context.Background(), "memento/webviewView.membrane.logs"); res.Status != idb.RemoteAbsent {
		t.Errorf("expected RemoteAbsent before the first write, got %+v", res)
	}

	results := router.Route(context.Background(), []idb.RequestRecord{
		{Operation: idb.OpPut, Key: "memento/webviewView.membrane.logs", Value: []byte("X")},
		{Operation: idb.OpGet, Key: "/User/settings.json"},
	})
	want := []idb.RemoteResult{{Status: idb.RemoteOK}, {Status: idb.RemoteAbsent}}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("unexpected results (-want +got):\n%s", diff)
	}

	got := router.Get(context.Background(), "memento/webviewView.membrane.logs")
	if diff := cmp.Diff(idb.RemoteResult{Status: idb.RemoteOK, Value: []byte("X")}, got); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}
}

package seed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ValentinKolb/mKV/lib/idb"
	"github.com/ValentinKolb/mKV/lib/membrane"
	"github.com/ValentinKolb/mKV/rpc/client"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/google/go-cmp/cmp"
)

const dbName = "vscode-web-state-db-global"

// read returns the content of store and the version of the database
func read(t *testing.T, dir, store string) (map[string][]byte, uint64) {
	t.Helper()
	database, err := idb.Open(context.Background(), dbName, 0, nil, &idb.Options{Dir: dir, NoSync: true})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer database.Close()
	items, _ := database.GetKeyValues(context.Background(), store, nil)
	return items, database.Version()
}

func TestWrite(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{"string", `{"workbench.colorTheme":"Dark"}`, `{"workbench.colorTheme":"Dark"}`},
		{"bytes", []byte("raw"), "raw"},
		{"object", map[string]int{"editor.fontSize": 14}, `{"editor.fontSize":14}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			target := Target{DBName: dbName, StoreName: "vscode-userdata-store", Key: "/User/settings.json"}

			if err := Write(context.Background(), tt.data, target, idb.Options{Dir: dir, NoSync: true}); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			items, version := read(t, dir, target.StoreName)
			if diff := cmp.Diff(map[string][]byte{target.Key: []byte(tt.want)}, items); diff != "" {
				t.Errorf("unexpected store content (-want +got):\n%s", diff)
			}
			if version != Version {
				t.Errorf("version = %d, want %d", version, Version)
			}
		})
	}
}

func TestWriteCreatesMissingStore(t *testing.T) {
	dir := t.TempDir()
	target := Target{DBName: dbName, StoreName: "ItemTable", Key: "k"}

	if err := Write(context.Background(), "v", target, idb.Options{Dir: dir, NoSync: true}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	items, version := read(t, dir, "ItemTable")
	if string(items["k"]) != "v" {
		t.Errorf("value not written: %v", items)
	}
	if version != Version+1 {
		t.Errorf("version = %d, want %d", version, Version+1)
	}

	// the predefined stores survive the upgrade, a second write needs no upgrade
	if err := Write(context.Background(), "w", Target{DBName: dbName, StoreName: "vscode-logs-store", Key: "k"}, idb.Options{Dir: dir, NoSync: true}); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}
	if _, version := read(t, dir, "vscode-logs-store"); version != Version+1 {
		t.Errorf("version = %d, want %d", version, Version+1)
	}
}

func TestWriteKeepsExistingData(t *testing.T) {
	dir := t.TempDir()

	// a database at the seed version that lacks the predefined stores
	database, err := idb.Open(context.Background(), dbName, Version, []string{"ItemTable"}, &idb.Options{Dir: dir, NoSync: true})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_, err = database.RunInTransaction(context.Background(), "ItemTable", idb.ReadWrite, func(s idb.ObjectStore) *idb.Request {
		return s.Put("existing", []byte("precious"))
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	_ = database.Close()

	tests := []struct {
		name        string
		target      Target
		wantVersion uint64
	}{
		{"existing store", Target{DBName: dbName, StoreName: "ItemTable", Key: "seeded"}, Version},
		{"new store", Target{DBName: dbName, StoreName: membrane.UserDataStore, Key: "seeded"}, Version + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Write(context.Background(), "v", tt.target, idb.Options{Dir: dir, NoSync: true}); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			items, version := read(t, dir, "ItemTable")
			if string(items["existing"]) != "precious" {
				t.Errorf("existing key lost: %v", items)
			}
			if version != tt.wantVersion {
				t.Errorf("version = %d, want %d", version, tt.wantVersion)
			}
			seeded, _ := read(t, dir, tt.target.StoreName)
			if string(seeded["seeded"]) != "v" {
				t.Errorf("value not written: %v", seeded)
			}
		})
	}
}

func TestWriteNewerDatabase(t *testing.T) {
	dir := t.TempDir()
	database, err := idb.Open(context.Background(), dbName, 7, PredefinedStores, &idb.Options{Dir: dir, NoSync: true})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_ = database.Close()

	target := Target{DBName: dbName, StoreName: "vscode-userdata-store", Key: "k"}
	if err := Write(context.Background(), "v", target, idb.Options{Dir: dir, NoSync: true}); err != nil {
		t.Fatalf("Write into a newer database failed: %v", err)
	}
	if items, version := read(t, dir, target.StoreName); string(items["k"]) != "v" || version != 7 {
		t.Errorf("unexpected state: %v at version %d", items, version)
	}
}

type staticTokens string

func (s staticTokens) GetAuthToken(context.Context) (string, error) {
	return string(s), nil
}

func TestFromSettings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("keys") != "/User/settings.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"/User/settings.json": `{"a":1}`})
	}))
	defer srv.Close()
	bridge := client.NewBridge(common.ClientConfig{Endpoint: srv.URL}, staticTokens("t"))

	dir := t.TempDir()
	target := Target{DBName: dbName, StoreName: membrane.UserDataStore, Key: "/User/settings.json"}

	if err := FromSettings(context.Background(), bridge, "/User/settings.json", target, idb.Options{Dir: dir, NoSync: true}); err != nil {
		t.Fatalf("FromSettings failed: %v", err)
	}
	items, _ := read(t, dir, membrane.UserDataStore)
	if got := string(items["/User/settings.json"]); got != `{"a":1}` {
		t.Errorf("seeded value = %q", got)
	}

	err := FromSettings(context.Background(), bridge, "unknown", target, idb.Options{Dir: dir, NoSync: true})
	if !errors.Is(err, membrane.ErrAbsent) {
		t.Errorf("expected membrane.ErrAbsent, got %v", err)
	}
}

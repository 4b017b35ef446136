package util

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/mKV/lib/secrets"
	"github.com/ValentinKolb/mKV/rpc/common"
)

func TestWrapString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"short", "one two", "one two"},
		{"collapses spaces", "one   two\nthree", "one two three"},
		{"wraps", strings.Repeat("word ", 12), strings.TrimSpace(strings.Repeat("word ", 10)) + "\n" + "word word"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WrapString(tt.in); got != tt.want {
				t.Errorf("WrapString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDatabaseOptions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	opts, err := DatabaseOptions(&common.StoreConfig{DataDir: dir, OpenTimeoutSecond: 2}, nil)
	if err != nil {
		t.Fatalf("DatabaseOptions failed: %v", err)
	}
	if opts.Dir != dir || opts.Timeout != 2*time.Second || opts.Router != nil {
		t.Errorf("unexpected options: %+v", opts)
	}
}

func TestNewProviderServesConfiguredToken(t *testing.T) {
	provider, local, err := NewProvider(
		&common.ClientConfig{Token: "t0k3n"},
		&common.StoreConfig{DataDir: t.TempDir(), OpenTimeoutSecond: 1},
	)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	defer local.Close()

	token, ok, err := provider.Get(context.Background(), secrets.APITokenKey.String())
	if err != nil || !ok || token != "t0k3n" {
		t.Errorf("Get(APITokenKey) = %q, %v, %v", token, ok, err)
	}

	if err := provider.Set(context.Background(), "other", "value"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, ok, err := provider.Get(context.Background(), "other")
	if err != nil || !ok || value != "value" {
		t.Errorf("Get(other) = %q, %v, %v", value, ok, err)
	}
}

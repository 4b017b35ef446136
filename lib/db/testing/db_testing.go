package testing

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/ValentinKolb/mKV/lib/db"
	"github.com/google/go-cmp/cmp"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func(t *testing.T) db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory(t))
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory(t))
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory(t))
		})

		t.Run("Keys", func(t *testing.T) {
			testKeys(t, factory(t))
		})

		t.Run("Closed", func(t *testing.T) {
			testClosed(t, factory(t))
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory(t))
		})

		t.Run("ConcurrentUsage", func(t *testing.T) {
			testConcurrentUsage(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

func mustSet(t testing.TB, database db.KVDB, key string, value []byte) {
	t.Helper()
	if err := database.Set(key, value); err != nil {
		t.Fatalf("Set(%q) failed: %v", key, err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	mustSet(t, database, testKey, testValue1)

	result, exists, err := database.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	mustSet(t, database, testKey, testValue2)

	result, exists, _ = database.Get(testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	_, exists, _ = database.Get("nonexistent-key")
	if exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	retrievedValue, _, _ := database.Get(testKey)
	retrievedValue[0] = 'X'
	originalValue, _, _ := database.Get(testKey)
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}

	input := []byte("mutable")
	mustSet(t, database, "mutable-key", input)
	input[0] = 'X'
	stored, _, _ := database.Get("mutable-key")
	if !bytes.Equal(stored, []byte("mutable")) {
		t.Errorf("Set should store a copy of the value, got %s", stored)
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete)

	mustSet(t, database, "to-delete", []byte("value"))
	if err := database.Delete("to-delete"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, exists, _ := database.Get("to-delete"); exists {
		t.Errorf("Key should not exist after Delete")
	}

	if err := database.Delete("never-existed"); err != nil {
		t.Errorf("Deleting a missing key should not fail, got %v", err)
	}
}

func testHas(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureHas)

	if has, _ := database.Has("has-key"); has {
		t.Errorf("Has should be false before Set")
	}
	mustSet(t, database, "has-key", []byte("value"))
	if has, _ := database.Has("has-key"); !has {
		t.Errorf("Has should be true after Set")
	}
}

func testKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureKeys)

	keys, err := database.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("Expected no keys in a new database, got %v", keys)
	}

	want := []string{"a", "b", "c"}
	for _, k := range want {
		mustSet(t, database, k, []byte(k))
	}

	keys, _ = database.Keys()
	sort.Strings(keys)
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}

	if info := database.GetInfo(); info.Keys != len(want) {
		t.Errorf("GetInfo().Keys = %d, want %d", info.Keys, len(want))
	}
}

func testClosed(t *testing.T, database db.KVDB) {
	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	if err := database.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := database.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}

	if err := database.Set("k", []byte("v")); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Set after Close: expected ErrClosed, got %v", err)
	}
	if _, _, err := database.Get("k"); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Get after Close: expected ErrClosed, got %v", err)
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	mustSet(t, database, "empty-value", []byte{})
	value, exists, _ := database.Get("empty-value")
	if !exists {
		t.Errorf("Key with empty value should exist")
	}
	if len(value) != 0 {
		t.Errorf("Expected empty value, got %v", value)
	}

	unicodeKey := "memento/webviewView.ünïcödé"
	mustSet(t, database, unicodeKey, []byte("unicode"))
	if value, _, _ := database.Get(unicodeKey); string(value) != "unicode" {
		t.Errorf("Unicode key returned %q", value)
	}

	largeValue := bytes.Repeat([]byte("x"), 1<<20)
	mustSet(t, database, "large", largeValue)
	if value, _, _ := database.Get("large"); !bytes.Equal(value, largeValue) {
		t.Errorf("Large value was not stored intact")
	}
}

func testConcurrentUsage(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := fmt.Sprintf("worker-%d-key-%d", w, i)
				if err := database.Set(key, []byte(key)); err != nil {
					t.Errorf("Set(%s) failed: %v", key, err)
				}
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i++ {
			key := fmt.Sprintf("worker-%d-key-%d", w, i)
			value, exists, err := database.Get(key)
			if err != nil || !exists || string(value) != key {
				t.Errorf("Get(%s) = %q, %v, %v", key, value, exists, err)
			}
		}
	}
}

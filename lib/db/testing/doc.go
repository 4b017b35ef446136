// Package testing provides a standardized test suite for implementations of
// the db.KVDB interface.
//
// Every engine runs the same suite from its own package test:
//
//	func Test(t *testing.T) {
//		dbtesting.RunKVDBTests(t, "MemoryDB", func(t *testing.T) db.KVDB {
//			return NewMemoryDB()
//		})
//	}
//
// Tests that need a feature the engine does not advertise through
// SupportsFeature are skipped instead of failed.
package testing

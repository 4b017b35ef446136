// Package seed pre-populates the embedded databases before anything reads
// them, typically with a value fetched from the settings service.
//
//	err := seed.FromSettings(ctx, bridge, "/User/settings.json", seed.Target{
//		DBName:    "vscode-web-state-db-global",
//		StoreName: "vscode-userdata-store",
//		Key:       "/User/settings.json",
//	}, idb.Options{Dir: dataDir})
//
// Callers usually log a failure and continue; a missing seed is not fatal.
package seed

// Package cmd implements the mkv command-line interface. It provides a
// hierarchical command structure for running the reference settings service
// and for working with the embedded databases as a client.
//
// The package is organized into several subpackages:
//
//   - serve: start the reference settings service
//   - kv: read and write keys through the transaction proxy (get, put, dump, perf)
//   - seed: pre-populate a database from the settings service
//   - secret: read and write secrets through the credential provider
//   - token: mint a bearer token for the settings service
//   - util: shared utilities for flags, configuration and wiring (internal use)
//
// Every flag can also be set as environment variable MKV_<FLAG> (dashes become
// underscores), also from a .env or .env.local file.
//
// See mkv -help for a list of all commands.
package cmd

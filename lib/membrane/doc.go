// Package membrane decides which keys of the embedded database belong to the
// remote settings service and talks to that service.
//
// RedirectedKeys is a fixed allow-list. Router implements idb.RemoteRouter on
// top of the rpc/client bridge: a get asks GET /settings?keys=<key>, a put sends
// POST /settings {"key": ..., "value": ...}. Failures never fail a transaction;
// they become idb.RemoteFailed and are logged.
//
// The package also holds the naming helpers of the web IDE state databases
// (IsWorkspaceDB, IsUserDataStore).
package membrane

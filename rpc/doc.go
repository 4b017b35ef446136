// Package rpc holds the HTTP side of mKV: the settings service that owns the
// redirected keys and the bridge the embedded side uses to reach it.
//
// The package is organized into several subpackages:
//
//   - common: configuration structures and the logger factory shared by the
//     command line tools, the client and the server.
//
//   - client: the settings bridge. It resolves the service endpoint from the
//     host name and sends authenticated JSON requests.
//
//   - server: a reference settings service implementing the same HTTP
//     contract on top of a store.IStore, with bearer token verification and
//     a Prometheus /metrics endpoint.
//
// Wire contract:
//
//	GET  /settings?keys=<k1>&keys=<k2>   -> 200 {"<k>": <value>, ...} | 404 if none exist
//	POST /settings {"key": k, "value": v} -> 2xx
//
// Every request carries "Authorization: Bearer <token>".
package rpc

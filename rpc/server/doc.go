// Package server implements a reference settings service: the remote side of
// the redirected keys. It exists so the settings bridge can be exercised end
// to end; the production service only has to honor the same wire contract.
//
// Routes:
//
//	GET  /settings?keys=<key>[&keys=<key>...]  -> 200 {"<key>": <value>, ...} | 404
//	POST /settings {"key": "<key>", "value": <json>} -> 204
//	GET  /metrics                               -> Prometheus text format
//
// Values are stored as the raw JSON they were posted with, in a store.IStore
// on top of the memory or the bolt engine (see NewStore). There is a single
// backing store and the last write wins.
//
// Authentication:
//
//	Every /settings request needs "Authorization: Bearer <token>". With an
//	AuthSecret configured the token must be an HS256 JWT issued by MintToken;
//	without one any non-empty token is accepted.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Endpoint:   "0.0.0.0:8091",
//	  Engine:     common.EngineBolt,
//	  DataDir:    "./data",
//	  AuthSecret: "change-me",
//	  LogLevel:   "info",
//	}
//
//	s, err := server.NewSettingsServer(config, nil)
//	if err != nil {
//	  log.Fatal(err)
//	}
//	if err := s.Serve(ctx); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	Requests are handled concurrently; the underlying store must be safe for
//	concurrent use, which both engines are.
package server

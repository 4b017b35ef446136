// Package common holds the configuration structures and the logging setup
// shared by the settings client, the settings server and the CLI.
//
// Key Components:
//
//   - ServerConfig: parameters of the reference settings server (listen
//     endpoint, storage engine, auth secret).
//
//   - ClientConfig: parameters of the remote settings bridge (endpoint
//     override, host name used for endpoint resolution, token, timeout).
//
//   - StoreConfig: where the embedded databases are kept.
//
//   - Logger: custom implementation of dragonboats logger.ILogger. Every
//     package of this module creates its logger with logger.GetLogger(name);
//     InitLoggers installs the factory and sets the level of all of them.
//
// Every config struct implements String() with the same section/field layout,
// secrets are never printed.
package common

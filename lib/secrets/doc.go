// Package secrets implements the credential provider.
//
// The host installs its token accessor in a TokenSlot at startup. NewProvider
// takes the accessor out of the slot and replaces it with a function that
// always fails with ErrAccessorUnavailable, so from then on the token can only
// be read through the Provider. The Provider is created once and injected into
// everything that needs a token, e.g. the settings bridge of rpc/client.
//
// Secrets are kept in a store.IStore. The single exception is APITokenKey
// ({"extensionId":"membrane.membrane","key":"membraneApiToken"}): a Get for it
// returns the captured token. That key is read-only; Set and Delete always go
// to the local store.
package secrets

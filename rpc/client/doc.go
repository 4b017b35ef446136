// Package client implements the remote settings bridge: the HTTP client that
// carries redirected keys to the settings service.
//
// Key Components:
//
//   - NewBridge: creates an IBridge for a common.ClientConfig. The base URL is
//     chosen by ResolveEndpoint: an explicit endpoint, otherwise LocalEndpoint
//     when the host name is "localhost" and ProductionEndpoint everywhere else.
//
//   - TokenSource: the credential provider of lib/secrets. A token is a hard
//     precondition; without one Call fails with ErrMissingToken and nothing is
//     sent.
//
// Every request carries "Authorization: Bearer <token>" and a JSON content
// type. The bridge never retries and returns the raw *http.Response.
//
// Usage Example:
//
//	bridge := client.NewBridge(common.ClientConfig{Host: "localhost"}, provider)
//	resp, err := bridge.Call(ctx, http.MethodGet, "/settings?keys=a", nil)
//	if err != nil {
//		return err
//	}
//	defer resp.Body.Close()
//
// Thread Safety:
//
//	A bridge can be used concurrently from multiple goroutines.
package client

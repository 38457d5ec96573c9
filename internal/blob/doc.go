// Package blob provides an HTTP client for the remote JSON blob store
// that carries a shared booking list between devices.
//
// # Protocol
//
// The store exposes one collection URL (remote_url in the config):
//
//	POST {base}        create a blob from a JSON array, answer with its id
//	GET  {base}/{id}   read the JSON array
//	PUT  {base}/{id}   overwrite the JSON array
//
// The id comes back either as the last path segment of a Location header
// or as {"id": "..."} in the response body. A 404 on GET or PUT means the
// blob expired or never existed and is reported as ErrNotFound.
//
// # Usage
//
//	client, err := blob.NewClient(cfg.RemoteURL, cfg.RequestTimeout())
//	if err != nil {
//		return err
//	}
//	key, err := client.Create(ctx, snapshot)
//
// The client holds no session state. Keys, retries, and reconciliation
// belong to the syncer package.
//
// # Error Handling
//
// Transport failures are wrapped as "execute request: ...", non-2xx
// responses as "api <path> returned status <code>", and malformed bodies
// as "decode response: ...". Callers match ErrNotFound with errors.Is.
package blob

// Package client talks to the authcore server on behalf of authctl.
//
// HTTPClient covers the public credential flows (register, login,
// refresh, revoke) over the JSON API. GRPCClient reaches the internal
// session service, attaching the shared internal token to every call.
// OpenSessionDB opens the local SQLite cache where the CLI keeps its
// token pair.
//
// Failures that callers branch on are returned as sentinel errors:
// ErrUnauthorized, ErrConflict, ErrUnavailable and ErrNoSession.
package client

package common

// InternalTokenHeaderName is the HTTP header carrying the shared secret of
// trusted internal callers (the gateway).
const InternalTokenHeaderName = "X-Internal-Token"

// InternalTokenMetadataKey is the gRPC metadata key carrying the same secret.
const InternalTokenMetadataKey = "x-internal-token"

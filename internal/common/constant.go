package common

// RequestIDHeaderName is the gRPC metadata key carrying the caller's request id.
// The server generates one when it is absent.
const RequestIDHeaderName = "x-request-id"

// ServiceName identifies this service in logs and fault details.
const ServiceName = "gophauth"

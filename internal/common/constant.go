package common

// TokenKey is the well-known metadata slot the session token is persisted under.
const TokenKey = "token"

// RequestIDHeaderName carries a per-call correlation id on outbound requests.
const RequestIDHeaderName = "X-Request-Id"

package common

// AuthorizationHeaderName carries the bearer token on inbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the literal prefix the request filter strips from
// AuthorizationHeaderName. Its length (7) includes the trailing space.
const BearerPrefix = "Bearer "

// Package token provides token hashing primitives for sessiond.
//
// Session rows never carry the bearer token itself. They carry a stable
// 64-char hex digest of it:
// - SHA-256(token) when no HMAC key is configured (dev mode).
// - HMAC-SHA256(token, key) when SESSIOND_TOKEN_HMAC_KEY is set.
//
// Two tokens map to the same digest only if they are byte-identical, so
// matching on the digest is matching on the exact token string.
package token

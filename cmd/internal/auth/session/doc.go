// Package session issues, validates and invalidates device-scoped sessions.
//
// Each successful login produces one session row and one signed bearer token
// that carries {sessionId, userId, deviceId} and a seven-day expiry. A device
// holds at most one session: issuing a new one deletes the device's previous
// rows in the same transaction, so a token from an earlier login on that
// device stops working immediately.
//
// Rows store a digest of the token (see cmd/security/token), never the token
// itself. Logout flips is_valid to false for the row whose id and digest both
// match the presented token.
//
// Tokens are JWT HS256 by default, or PASETO v4.local. Both are keyed by the
// same process-wide secret.
package session

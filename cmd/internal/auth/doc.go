// Package auth is the session and device lifecycle engine: it chains
// credential checks, device resolution and session issuance into Login, and
// token verification and invalidation into Logout.
//
// Transport concerns (HTTP, JSON, headers) live in auth/api.
package auth

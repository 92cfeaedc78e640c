// Package identity owns user accounts: registration and credential checks.
//
// Usernames and emails are matched exactly after trimming surrounding
// whitespace. "Alice" and "alice" are different accounts.
//
// Passwords are hashed with Argon2id through cmd/security/password. Both
// failure modes of Authenticate (unknown email, wrong password) return the
// same ErrInvalidCredentials, and both take comparable time.
package identity

// Package password hashes and verifies user passwords for sessiond.
//
// New hashes are always Argon2id in a PHC-like encoded string:
//
//	$argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
//
// Verify also accepts bcrypt hashes ($2a$, $2b$, $2y$) so accounts imported
// from older deployments keep working until their next password change.
//
// Hash strings are untrusted input during Verify. Parameters far above the
// configured cost are refused with ErrInvalidHash.
//
// Policy.MinLength is a request-boundary check (see Validate); Hash itself
// only rejects empty and oversized input.
package password

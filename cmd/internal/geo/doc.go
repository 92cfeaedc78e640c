// Package geo resolves the caller's public IP and a coarse location for it.
//
// Both lookups talk to free third-party HTTP services (ipify and ip-api.com)
// and may fail at any time. Callers treat failure as "unknown" and move on.
package geo

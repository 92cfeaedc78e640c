// Package device tracks the devices a user logs in from.
//
// A device is identified by the exact (user id, user-agent) pair. The first
// login from an unseen pair creates a row carrying the device class, the
// public IP and a coarse location; later logins only refresh last_login_at,
// is_active and updated_at.
//
// Two concurrent first logins from the same new device can both insert a
// row. Lookups then resolve to the oldest one, so sessions converge on it.
package device

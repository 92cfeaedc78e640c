package device

import "strings"

// Class is the coarse device category derived from the user-agent.
type Class string

const (
	Smartphone Class = "smartphone"
	Tablet     Class = "tablet"
	PC         Class = "pc"
)

// UnknownUserAgent is stored when the request carries no user-agent.
const UnknownUserAgent = "unknown"

// Classify maps a user-agent to a Class. "mobile" wins over "tablet";
// matching is case-insensitive.
func Classify(userAgent string) Class {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "mobile"):
		return Smartphone
	case strings.Contains(ua, "tablet"):
		return Tablet
	default:
		return PC
	}
}

// Valid reports whether c is one of the known classes.
func (c Class) Valid() bool {
	switch c {
	case Smartphone, Tablet, PC:
		return true
	default:
		return false
	}
}

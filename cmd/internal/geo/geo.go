package geo

import (
	"context"
	"errors"
	"net/netip"
	"strings"
)

// Unknown is the placeholder for any value a lookup could not produce.
const Unknown = "unknown"

// ErrLookup wraps every lookup failure (transport, status, payload, throttling).
var ErrLookup = errors.New("geo: lookup failed")

// Location is a coarse geolocation.
type Location struct {
	Region  string `json:"region"`
	Country string `json:"country"`
}

// UnknownLocation is stored when geolocation fails.
var UnknownLocation = Location{Region: Unknown, Country: Unknown}

// String renders "region, country".
func (l Location) String() string {
	region, country := strings.TrimSpace(l.Region), strings.TrimSpace(l.Country)
	if region == "" {
		region = Unknown
	}
	if country == "" {
		country = Unknown
	}
	return region + ", " + country
}

// IPLookup discovers the public IP address of the calling host.
type IPLookup interface {
	PublicIP(ctx context.Context) (string, error)
}

// GeoLookup maps an IP address to a coarse location.
type GeoLookup interface {
	Lookup(ctx context.Context, ip string) (Location, error)
}

// IsPublicIP reports whether s is a globally routable unicast address.
func IsPublicIP(s string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return addr.IsGlobalUnicast() && !addr.IsPrivate() && !addr.IsLoopback() && !addr.IsLinkLocalUnicast()
}

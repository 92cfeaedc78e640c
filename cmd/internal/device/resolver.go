package device

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"sessiond/cmd/identity/ids"
	"sessiond/cmd/internal/geo"
	"sessiond/cmd/internal/storage"
)

// DefaultLookupTimeout bounds each external lookup made during a login.
const DefaultLookupTimeout = 3 * time.Second

// Info is what the resolver can tell about a client without persisting anything.
type Info struct {
	UserAgent string       `json:"user_agent"`
	Class     Class        `json:"device_class"`
	IP        string       `json:"ip"`
	Location  geo.Location `json:"location"`
}

// Resolver maps a login to a Device row, creating it on first sight.
type Resolver struct {
	store   Store
	ips     geo.IPLookup
	geo     geo.GeoLookup
	log     *slog.Logger
	timeout time.Duration
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLookupTimeout overrides DefaultLookupTimeout.
func WithLookupTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewResolver wires a Resolver. ips and geoLookup may be nil, in which case
// the corresponding value always resolves to "unknown".
func NewResolver(store Store, ips geo.IPLookup, geoLookup geo.GeoLookup, log *slog.Logger, opts ...ResolverOption) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("device: nil store")
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Resolver{
		store:   store,
		ips:     ips,
		geo:     geoLookup,
		log:     log,
		timeout: DefaultLookupTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Resolve returns the device for (userID, userAgent). An existing device is
// refreshed. A new one is created with its class, public IP and location;
// lookup failures are recorded as "unknown" and never fail the login.
// Store failures propagate.
func (r *Resolver) Resolve(ctx context.Context, now time.Time, userID, userAgent, remoteHint string) (Device, error) {
	const op = "device.Resolve"

	if err := ctx.Err(); err != nil {
		return Device{}, err
	}
	if strings.TrimSpace(userID) == "" {
		return Device{}, errors.New(op + ": missing user id")
	}
	ua := normalizeUserAgent(userAgent)

	existing, err := r.store.FindByUserAgent(ctx, userID, ua)
	switch {
	case err == nil:
		return r.store.Touch(ctx, existing.ID, now)
	case !errors.Is(err, storage.ErrNotFound):
		return Device{}, err
	}

	info := r.Describe(ctx, ua, remoteHint)

	id, err := ids.NewULID(now)
	if err != nil {
		return Device{}, err
	}
	d, err := r.store.Create(ctx, Device{
		ID:        id,
		UserID:    userID,
		Class:     info.Class,
		UserAgent: ua,
		IP:        info.IP,
		Location:  info.Location.String(),
		CreatedAt: now,
	})
	if err != nil {
		return Device{}, err
	}
	r.log.Info("device.created", "user_id", userID, "device_id", d.ID, "device_class", string(d.Class))
	return d, nil
}

// Describe classifies the client and resolves its IP and location.
func (r *Resolver) Describe(ctx context.Context, userAgent, remoteHint string) Info {
	ua := normalizeUserAgent(userAgent)
	ip := r.publicIP(ctx, remoteHint)
	return Info{
		UserAgent: ua,
		Class:     Classify(ua),
		IP:        ip,
		Location:  r.locate(ctx, ip),
	}
}

// publicIP prefers a routable remote address; private or missing hints
// (local dev, internal proxies) fall back to the IP lookup service.
func (r *Resolver) publicIP(ctx context.Context, hint string) string {
	if geo.IsPublicIP(hint) {
		return strings.TrimSpace(hint)
	}
	if r.ips == nil {
		return geo.Unknown
	}

	lctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ip, err := r.ips.PublicIP(lctx)
	if err != nil {
		r.log.Warn("device.ip_lookup.fail", "err", err)
		return geo.Unknown
	}
	return ip
}

func (r *Resolver) locate(ctx context.Context, ip string) geo.Location {
	if r.geo == nil || ip == geo.Unknown {
		return geo.UnknownLocation
	}

	lctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	loc, err := r.geo.Lookup(lctx, ip)
	if err != nil {
		r.log.Warn("device.geo_lookup.fail", "err", err)
		return geo.UnknownLocation
	}
	return loc
}

// List returns the user's devices, most recently used first.
func (r *Resolver) List(ctx context.Context, userID string) ([]Device, error) {
	return r.store.ListByUser(ctx, userID)
}

func normalizeUserAgent(ua string) string {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return UnknownUserAgent
	}
	return ua
}

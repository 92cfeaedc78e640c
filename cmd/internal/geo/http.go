package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultIPLookupURL is the ipify JSON endpoint.
	DefaultIPLookupURL = "https://api64.ipify.org?format=json"
	// DefaultGeoLookupURL is the ip-api.com JSON base; the IP is appended as a path segment.
	DefaultGeoLookupURL = "http://ip-api.com/json"

	maxBodyBytes = 16 << 10
)

func getJSON(ctx context.Context, hc *http.Client, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLookup, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLookup, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrLookup, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrLookup, err)
	}
	return nil
}

// Ipify calls an ipify-compatible endpoint ({"ip":"..."}).
type Ipify struct {
	url string
	hc  *http.Client
}

// NewIpify returns an IPLookup. Empty rawURL selects DefaultIPLookupURL.
func NewIpify(rawURL string, timeout time.Duration) *Ipify {
	if strings.TrimSpace(rawURL) == "" {
		rawURL = DefaultIPLookupURL
	}
	return &Ipify{url: rawURL, hc: &http.Client{Timeout: timeout}}
}

func (c *Ipify) PublicIP(ctx context.Context) (string, error) {
	var body struct {
		IP string `json:"ip"`
	}
	if err := getJSON(ctx, c.hc, c.url, &body); err != nil {
		return "", err
	}
	ip := strings.TrimSpace(body.IP)
	if ip == "" {
		return "", fmt.Errorf("%w: empty ip", ErrLookup)
	}
	return ip, nil
}

// IPAPI calls an ip-api.com-compatible endpoint.
// The free tier allows 45 requests per minute; the limiter keeps us under it
// and turns excess calls into immediate failures instead of queueing logins.
type IPAPI struct {
	base    string
	hc      *http.Client
	limiter *rate.Limiter
}

// NewIPAPI returns a GeoLookup. rpm <= 0 disables throttling.
func NewIPAPI(base string, timeout time.Duration, rpm int) *IPAPI {
	if strings.TrimSpace(base) == "" {
		base = DefaultGeoLookupURL
	}
	c := &IPAPI{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: timeout},
	}
	if rpm > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
	}
	return c
}

func (c *IPAPI) Lookup(ctx context.Context, ip string) (Location, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" || ip == Unknown {
		return Location{}, fmt.Errorf("%w: no ip", ErrLookup)
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return Location{}, fmt.Errorf("%w: throttled", ErrLookup)
	}

	var body struct {
		Status     string `json:"status"`
		Message    string `json:"message"`
		RegionName string `json:"regionName"`
		Country    string `json:"country"`
	}
	u := c.base + "/" + url.PathEscape(ip) + "?fields=status,message,regionName,country"
	if err := getJSON(ctx, c.hc, u, &body); err != nil {
		return Location{}, err
	}
	if body.Status != "" && body.Status != "success" {
		return Location{}, fmt.Errorf("%w: %s", ErrLookup, body.Message)
	}
	return Location{Region: body.RegionName, Country: body.Country}, nil
}

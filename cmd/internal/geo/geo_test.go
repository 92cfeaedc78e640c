package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestLocationString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   Location
		want string
	}{
		{Location{Region: "Ontario", Country: "Canada"}, "Ontario, Canada"},
		{Location{Region: "", Country: "Canada"}, "unknown, Canada"},
		{UnknownLocation, "unknown, unknown"},
	}
	for _, tc := range cases {
		if got := tc.in.String(); got != tc.want {
			t.Fatalf("%+v: got %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsPublicIP(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"8.8.8.8":          true,
		"2606:4700::1111":  true,
		"10.0.0.1":         false,
		"192.168.1.10":     false,
		"127.0.0.1":        false,
		"::1":              false,
		"fe80::1":          false,
		"::ffff:10.1.2.3":  false,
		"not-an-ip":        false,
		"":                 false,
		"::ffff:203.0.1.5": true,
	}
	for in, want := range cases {
		if got := IsPublicIP(in); got != want {
			t.Fatalf("IsPublicIP(%q)=%v want %v", in, got, want)
		}
	}
}

func TestIpify_PublicIP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ip":"203.0.113.7"}`))
	}))
	defer srv.Close()

	ip, err := NewIpify(srv.URL, time.Second).PublicIP(context.Background())
	if err != nil || ip != "203.0.113.7" {
		t.Fatalf("PublicIP=(%q,%v)", ip, err)
	}
}

func TestIpify_Failures(t *testing.T) {
	t.Parallel()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer bad.Close()
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ip":""}`))
	}))
	defer empty.Close()

	for _, u := range []string{bad.URL, empty.URL, "http://127.0.0.1:1"} {
		if _, err := NewIpify(u, time.Second).PublicIP(context.Background()); !errors.Is(err, ErrLookup) {
			t.Fatalf("%s: expected ErrLookup, got %v", u, err)
		}
	}
}

func TestIPAPI_Lookup(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/203.0.113.7"):
			_, _ = w.Write([]byte(`{"status":"success","regionName":"Ontario","country":"Canada"}`))
		default:
			_, _ = w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
		}
	}))
	defer srv.Close()

	c := NewIPAPI(srv.URL, time.Second, 0)

	loc, err := c.Lookup(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if loc.String() != "Ontario, Canada" {
		t.Fatalf("loc=%q", loc.String())
	}

	if _, err := c.Lookup(context.Background(), "10.0.0.1"); !errors.Is(err, ErrLookup) {
		t.Fatalf("expected ErrLookup on fail status, got %v", err)
	}
	if _, err := c.Lookup(context.Background(), Unknown); !errors.Is(err, ErrLookup) {
		t.Fatalf("expected ErrLookup for unknown ip, got %v", err)
	}
}

func TestIPAPI_Throttled(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"status":"success","regionName":"R","country":"C"}`))
	}))
	defer srv.Close()

	c := NewIPAPI(srv.URL, time.Second, 1)
	if _, err := c.Lookup(context.Background(), "203.0.113.7"); err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	if _, err := c.Lookup(context.Background(), "203.0.113.7"); !errors.Is(err, ErrLookup) {
		t.Fatalf("expected throttled ErrLookup, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls.Load())
	}
}

type countingLookup struct {
	n   atomic.Int32
	loc Location
	err error
}

func (c *countingLookup) Lookup(context.Context, string) (Location, error) {
	c.n.Add(1)
	return c.loc, c.err
}

func TestCachedLookup_RedisDownFallsBack(t *testing.T) {
	t.Parallel()

	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = rdb.Close() }()

	inner := &countingLookup{loc: Location{Region: "R", Country: "C"}}
	c := NewCachedLookup(inner, rdb, time.Minute, nil)

	loc, err := c.Lookup(context.Background(), "203.0.113.7")
	if err != nil || loc != inner.loc {
		t.Fatalf("Lookup=(%+v,%v)", loc, err)
	}
	if inner.n.Load() != 1 {
		t.Fatalf("expected inner lookup, got %d calls", inner.n.Load())
	}
}

func TestCachedLookup_InnerErrorPropagates(t *testing.T) {
	t.Parallel()

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer func() { _ = rdb.Close() }()

	inner := &countingLookup{err: ErrLookup}
	if _, err := NewCachedLookup(inner, rdb, time.Minute, nil).Lookup(context.Background(), "203.0.113.7"); !errors.Is(err, ErrLookup) {
		t.Fatalf("expected ErrLookup, got %v", err)
	}
}

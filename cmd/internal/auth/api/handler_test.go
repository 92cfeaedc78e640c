package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sessiond/cmd/identity"
	"sessiond/cmd/internal/auth"
	"sessiond/cmd/internal/auth/session"
	"sessiond/cmd/internal/device"
	"sessiond/cmd/internal/geo"
	"sessiond/cmd/security/password"
	"sessiond/cmd/security/token"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	iphoneUA   = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148"
)

type fixedIP string

func (f fixedIP) PublicIP(context.Context) (string, error) { return string(f), nil }

type fixedGeo geo.Location

func (f fixedGeo) Lookup(context.Context, string) (geo.Location, error) { return geo.Location(f), nil }

func fastPasswords() password.Config {
	cfg := password.DefaultConfig()
	cfg.Params.MemoryKiB = 8 * 1024
	cfg.Params.Iterations = 1
	cfg.Params.Parallelism = 1
	return cfg
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	pw := fastPasswords()

	users, err := identity.NewVerifier(identity.NewMemoryStore(), pw, log)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	resolver, err := device.NewResolver(device.NewMemoryStore(), fixedIP("203.0.113.7"), fixedGeo{Region: "Ontario", Country: "Canada"}, log)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	scfg := session.DefaultConfig()
	scfg.Secret = []byte(testSecret)
	codec, err := session.NewTokenCodec(scfg)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	sessions, err := session.NewService(scfg, session.NewMemoryStore(), codec, token.NewHasher([]byte(testSecret)), log)
	if err != nil {
		t.Fatalf("session.NewService: %v", err)
	}
	svc, err := auth.NewService(users, resolver, sessions, auth.WithLogger(log))
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}
	h, err := NewHandler(log, svc, cfg, pw)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	mux := http.NewServeMux()
	h.Register(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, bearer string, body any) (int, map[string]any) {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, rdr)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("User-Agent", iphoneUA)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()

	var out map[string]any
	if raw, _ := io.ReadAll(res.Body); len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return res.StatusCode, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func register(t *testing.T, ts *httptest.Server) {
	t.Helper()
	status, body := do(t, ts, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "pw123456",
	})
	if status != http.StatusCreated {
		t.Fatalf("register: status=%d body=%v", status, body)
	}
}

func login(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	status, body := do(t, ts, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "pw123456",
	})
	if status != http.StatusOK {
		t.Fatalf("login: status=%d body=%v", status, body)
	}
	sess, _ := body["session"].(map[string]any)
	tok, _ := sess["token"].(string)
	if tok == "" {
		t.Fatalf("login: missing token in %v", body)
	}
	return tok
}

func TestAuthAPI_RegisterValidation(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, DefaultConfig())
	register(t, ts)

	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"duplicate", map[string]string{"username": "alice", "email": "alice@example.com", "password": "pw123456"}, http.StatusConflict, "conflict"},
		{"bad email", map[string]string{"username": "bob", "email": "not-an-email", "password": "pw123456"}, http.StatusBadRequest, "invalid_email"},
		{"short password", map[string]string{"username": "bob", "email": "bob@example.com", "password": "short"}, http.StatusBadRequest, "invalid_password"},
		{"missing username", map[string]string{"email": "bob@example.com", "password": "pw123456"}, http.StatusBadRequest, "invalid_request"},
		{"unknown field", `{"username":"bob","email":"bob@example.com","password":"pw123456","admin":true}`, http.StatusBadRequest, "invalid_json"},
		{"trailing data", `{"username":"bob","email":"bob@example.com","password":"pw123456"}{}`, http.StatusBadRequest, "invalid_json"},
	}
	for _, tc := range cases {
		status, body := do(t, ts, http.MethodPost, "/auth/register", "", tc.body)
		if status != tc.status || errorCode(body) != tc.code {
			t.Fatalf("%s: status=%d code=%q, want %d %q", tc.name, status, errorCode(body), tc.status, tc.code)
		}
	}
}

func TestAuthAPI_LoginLogoutLifecycle(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, DefaultConfig())
	register(t, ts)

	status, body := do(t, ts, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	if status != http.StatusUnauthorized || errorCode(body) != "invalid_credentials" {
		t.Fatalf("bad password: status=%d body=%v", status, body)
	}

	tok := login(t, ts)

	status, body = do(t, ts, http.MethodGet, "/me", tok, nil)
	if status != http.StatusOK {
		t.Fatalf("/me: status=%d body=%v", status, body)
	}
	u, _ := body["user"].(map[string]any)
	if u["username"] != "alice" || u["email"] != "alice@example.com" {
		t.Fatalf("/me: unexpected user %v", u)
	}

	status, body = do(t, ts, http.MethodGet, "/auth/devices", tok, nil)
	if status != http.StatusOK {
		t.Fatalf("/auth/devices: status=%d body=%v", status, body)
	}
	devs, _ := body["devices"].([]any)
	if len(devs) != 1 {
		t.Fatalf("expected one device, got %v", body)
	}
	d, _ := devs[0].(map[string]any)
	if d["device_class"] != "smartphone" || d["location"] != "Ontario, Canada" || d["ip_address"] != "203.0.113.7" {
		t.Fatalf("unexpected device: %v", d)
	}

	status, body = do(t, ts, http.MethodPost, "/auth/logout", tok, nil)
	if status != http.StatusOK || body["invalidated"] != true {
		t.Fatalf("logout: status=%d body=%v", status, body)
	}
	status, body = do(t, ts, http.MethodPost, "/auth/logout", tok, nil)
	if status != http.StatusOK || body["invalidated"] != false {
		t.Fatalf("second logout: status=%d body=%v", status, body)
	}

	status, body = do(t, ts, http.MethodGet, "/me", tok, nil)
	if status != http.StatusUnauthorized || errorCode(body) != "session_not_active" {
		t.Fatalf("/me after logout: status=%d body=%v", status, body)
	}
}

func TestAuthAPI_BearerErrors(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, DefaultConfig())

	status, body := do(t, ts, http.MethodPost, "/auth/logout", "", nil)
	if status != http.StatusUnauthorized || errorCode(body) != "unauthorized" {
		t.Fatalf("no bearer: status=%d body=%v", status, body)
	}
	status, body = do(t, ts, http.MethodPost, "/auth/logout", "garbage.token.value", nil)
	if status != http.StatusUnauthorized || errorCode(body) != "invalid_token" {
		t.Fatalf("garbage bearer: status=%d body=%v", status, body)
	}
	status, body = do(t, ts, http.MethodGet, "/me", "", nil)
	if status != http.StatusUnauthorized || errorCode(body) != "unauthorized" {
		t.Fatalf("/me no bearer: status=%d body=%v", status, body)
	}
}

func TestAuthAPI_DeviceInfo(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, DefaultConfig())

	status, body := do(t, ts, http.MethodGet, "/auth/device-info", "", nil)
	if status != http.StatusOK {
		t.Fatalf("device-info: status=%d body=%v", status, body)
	}
	if body["device_class"] != "smartphone" || body["client_ip"] != "203.0.113.7" || body["location"] != "Ontario, Canada" {
		t.Fatalf("unexpected device-info: %v", body)
	}
}

func TestAuthAPI_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, DefaultConfig())
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/auth/register"},
		{http.MethodGet, "/auth/login"},
		{http.MethodGet, "/auth/logout"},
		{http.MethodPost, "/me"},
		{http.MethodPost, "/auth/devices"},
	} {
		if status, _ := do(t, ts, tc.method, tc.path, "", nil); status != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: status=%d", tc.method, tc.path, status)
		}
	}
}

func TestAuthAPI_BodyTooLarge(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 32
	ts := newTestServer(t, cfg)

	status, body := do(t, ts, http.MethodPost, "/auth/register", "", map[string]string{
		"username": strings.Repeat("a", 64),
		"email":    "alice@example.com",
		"password": "pw123456",
	})
	if status != http.StatusRequestEntityTooLarge || errorCode(body) != "body_too_large" {
		t.Fatalf("status=%d body=%v", status, body)
	}
}

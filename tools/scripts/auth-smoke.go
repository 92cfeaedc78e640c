// Package main provides a CI-friendly smoke test for the sessiond auth API.
//
// It validates:
//   - register (and conflict on repeat)
//   - login returns a token, device and session
//   - /me accepts the token
//   - logout invalidates, a second logout reports nothing to invalidate
//   - /me rejects the token afterwards
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

type smokeClient struct {
	base    string
	hc      *http.Client
	ua      string
	verbose bool
}

func main() {
	var (
		baseURL  = flag.String("url", "http://127.0.0.1:8080", "sessiond base URL")
		password = flag.String("password", "smoke-Password-1", "Password for the throwaway account")
		ua       = flag.String("ua", "sessiond-smoke/1.0 (X11; Linux x86_64)", "User-Agent to log in with")
		timeout  = flag.Duration("timeout", 10*time.Second, "Per-request timeout")
		verbose  = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}

	c := &smokeClient{
		base:    strings.TrimRight(*baseURL, "/"),
		hc:      &http.Client{Timeout: *timeout},
		ua:      *ua,
		verbose: *verbose,
	}

	suffix := strings.ToLower(ulid.Make().String())
	username := "smoke_" + suffix
	email := "smoke+" + suffix + "@example.com"

	status, _ := c.mustDo(http.MethodPost, "/auth/register", "", map[string]string{
		"username": username, "email": email, "password": *password,
	})
	expectStatus("register", status, http.StatusCreated)

	status, body := c.mustDo(http.MethodPost, "/auth/register", "", map[string]string{
		"username": username, "email": email, "password": *password,
	})
	expectStatus("register conflict", status, http.StatusConflict)
	expectErrorCode("register conflict", body, "conflict")

	status, body = c.mustDo(http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": *password,
	})
	expectStatus("login", status, http.StatusOK)
	var login struct {
		Session struct {
			SessionID string `json:"session_id"`
			Token     string `json:"token"`
		} `json:"session"`
		Device struct {
			ID       string `json:"id"`
			Class    string `json:"device_class"`
			Location string `json:"location"`
		} `json:"device"`
	}
	if err := json.Unmarshal(body, &login); err != nil {
		fatalf("decode login: %v", err)
	}
	if login.Session.Token == "" || login.Session.SessionID == "" || login.Device.ID == "" {
		fatalf("login response incomplete: %s", body)
	}
	c.logf("login ok: session=%s device=%s class=%s location=%q",
		login.Session.SessionID, login.Device.ID, login.Device.Class, login.Device.Location)

	status, _ = c.mustDo(http.MethodGet, "/me", login.Session.Token, nil)
	expectStatus("me", status, http.StatusOK)

	status, body = c.mustDo(http.MethodPost, "/auth/logout", login.Session.Token, nil)
	expectStatus("logout", status, http.StatusOK)
	expectInvalidated("logout", body, true)

	status, body = c.mustDo(http.MethodPost, "/auth/logout", login.Session.Token, nil)
	expectStatus("second logout", status, http.StatusOK)
	expectInvalidated("second logout", body, false)

	status, _ = c.mustDo(http.MethodGet, "/me", login.Session.Token, nil)
	expectStatus("me after logout", status, http.StatusUnauthorized)

	fmt.Println("OK: auth smoke passed")
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func (c *smokeClient) mustDo(method, path, bearer string, payload any) (int, []byte) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			fatalf("marshal %s: %v", path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		fatalf("build %s %s: %v", method, path, err)
	}
	req.Header.Set("User-Agent", c.ua)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		fatalf("read %s %s: %v", method, path, err)
	}
	c.logf("%s %s -> %d %s", method, path, res.StatusCode, strings.TrimSpace(string(raw)))
	return res.StatusCode, raw
}

func expectStatus(step string, got, want int) {
	if got != want {
		fatalf("%s: status=%d want=%d", step, got, want)
	}
}

func expectErrorCode(step string, body []byte, want string) {
	var e struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		fatalf("%s: decode error body: %v", step, err)
	}
	if e.Error.Code != want {
		fatalf("%s: error code=%q want=%q", step, e.Error.Code, want)
	}
}

func expectInvalidated(step string, body []byte, want bool) {
	var r struct {
		Invalidated bool `json:"invalidated"`
	}
	if err := json.Unmarshal(body, &r); err != nil {
		fatalf("%s: decode: %v", step, err)
	}
	if r.Invalidated != want {
		fatalf("%s: invalidated=%v want=%v", step, r.Invalidated, want)
	}
}

func (c *smokeClient) logf(format string, args ...any) {
	if c.verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}

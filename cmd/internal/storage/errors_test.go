package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestWrap_MatchesKindAndCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("dial tcp: connection refused")
	err := Wrap("session.Replace", cause)

	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved")
	}
	var se *Error
	if !errors.As(err, &se) || se.Op != "session.Replace" {
		t.Fatalf("expected *Error with op, got %#v", err)
	}
	if !IsStorage(err) {
		t.Fatalf("IsStorage=false")
	}
}

func TestWrap_NilAndAlreadyWrapped(t *testing.T) {
	t.Parallel()

	if Wrap("x", nil) != nil {
		t.Fatalf("Wrap(nil) must be nil")
	}
	inner := Wrap("inner", context.DeadlineExceeded)
	if got := Wrap("outer", inner); got != inner {
		t.Fatalf("expected already-wrapped error to pass through")
	}
	if !errors.Is(inner, context.DeadlineExceeded) {
		t.Fatalf("expected deadline cause")
	}
}

func TestCheckSchema(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"sessiond", "sessiond", true},
		{"  it_01 ", "it_01", true},
		{"", "", false},
		{"bad-name", "", false},
		{`x"; DROP TABLE users; --`, "", false},
	}
	for _, tc := range cases {
		got, err := CheckSchema(tc.in)
		if tc.ok != (err == nil) || got != tc.want {
			t.Fatalf("CheckSchema(%q)=(%q,%v) want (%q, ok=%v)", tc.in, got, err, tc.want, tc.ok)
		}
	}
}

func TestIdent_Quotes(t *testing.T) {
	t.Parallel()

	if got := Ident("sessiond", "sessions"); got != `"sessiond"."sessions"` {
		t.Fatalf("Ident=%s", got)
	}
}

func TestSchemaFilesEmbedded(t *testing.T) {
	t.Parallel()

	raw, err := schemaFS.ReadFile("schema/0001_init.sql")
	if err != nil {
		t.Fatalf("read embedded schema: %v", err)
	}
	if len(raw) == 0 {
		t.Fatalf("embedded schema is empty")
	}
}

package storage

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultSchema is the Postgres schema used when none is configured.
const DefaultSchema = "sessiond"

var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidIdent reports whether s is a plain, safe Postgres identifier.
func ValidIdent(s string) bool { return identRe.MatchString(s) }

// CheckSchema trims and validates a schema name.
func CheckSchema(schema string) (string, error) {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		return "", fmt.Errorf("storage: empty schema")
	}
	if !ValidIdent(schema) {
		return "", fmt.Errorf("storage: invalid schema identifier %q", schema)
	}
	return schema, nil
}

// Ident quotes a schema-qualified identifier: "schema"."name".
func Ident(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

// ReadWriteTx is the transaction mode used by every multi-statement write.
var ReadWriteTx = pgx.TxOptions{
	IsoLevel:   pgx.ReadCommitted,
	AccessMode: pgx.ReadWrite,
}

// UniqueViolation returns the violated constraint name for a 23505 error.
func UniqueViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(pgErr.ConstraintName)), true
}

// ForeignKeyViolation reports a 23503 error.
func ForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

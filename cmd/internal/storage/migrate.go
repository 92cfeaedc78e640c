package storage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// schemaPlaceholder is replaced by the quoted schema name in every file.
const schemaPlaceholder = "{{schema}}"

// Migrate applies the embedded schema files in lexical order inside the
// given schema. Every statement is idempotent, so running it on each boot is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	const op = "storage.Migrate"

	if pool == nil {
		return fmt.Errorf("%s: nil pool", op)
	}
	schema, err := CheckSchema(schema)
	if err != nil {
		return err
	}

	files, err := fs.Glob(schemaFS, "schema/*.sql")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	sort.Strings(files)

	quoted := pgx.Identifier{schema}.Sanitize()
	for _, name := range files {
		raw, err := schemaFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("%s: read %s: %w", op, name, err)
		}
		sql := strings.ReplaceAll(string(raw), schemaPlaceholder, quoted)
		// No arguments: pgx runs this over the simple protocol, which allows
		// several statements per call.
		if _, err := pool.Exec(ctx, sql); err != nil {
			return Wrap(op+" "+name, err)
		}
	}
	return nil
}

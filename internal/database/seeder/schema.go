package seeder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"quickjob/internal/database"
)

// Schema maps a table name to the columns it must carry.
type Schema map[string][]string

// ApplicationSchema covers the tables the application workflow writes to.
var ApplicationSchema = Schema{
	"application":       {"email", "id_city", "id_job_position", "linkedin"},
	"application_files": {"file_src", "id_application"},
}

// MissingColumnsError lists every required column a table lacks.
type MissingColumnsError struct {
	Table   string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	qualified := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		qualified[i] = e.Table + "." + c
	}
	return "schema mismatch: missing columns " + strings.Join(qualified, ", ")
}

// VerifySchema checks every table of s, in name order, and joins the
// mismatches it finds.
func VerifySchema(ctx context.Context, db database.DB, s Schema) error {
	tables := make([]string, 0, len(s))
	for t := range s {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	var errs []error
	for _, t := range tables {
		if err := requireColumns(ctx, db, t, s[t]...); err != nil {
			var missing *MissingColumnsError
			if !errors.As(err, &missing) {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func requireColumns(ctx context.Context, db database.DB, table string, columns ...string) error {
	if db == nil {
		return database.ErrNilDB
	}
	if table == "" {
		return errors.New("schema check: empty table name")
	}

	rows, err := db.Query(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1`,
		table,
	)
	if err != nil {
		return fmt.Errorf("read columns of %s: %w", table, err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var absent []string
	for _, c := range columns {
		if !present[c] {
			absent = append(absent, c)
		}
	}
	if len(absent) > 0 {
		return &MissingColumnsError{Table: table, Columns: absent}
	}
	return nil
}

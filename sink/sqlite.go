package sink

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/siri"
)

const sqliteTable = "stop_monitoring"

// SQLiteSink appends rows to a SQLite table. The table is created from the
// first batch's columns; later batches widen it with ALTER TABLE ADD COLUMN.
// All values are stored as TEXT.
type SQLiteSink struct {
	db      *sql.DB
	path    string
	columns []string
}

// NewSQLiteSink opens (or creates) the database at path and picks up the
// schema of a previously created table.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	s := &SQLiteSink{db: db, path: path}
	if err := s.loadColumns(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteSink) Path() string { return s.path }

// Close closes the database handle.
func (s *SQLiteSink) Close() error { return s.db.Close() }

// Append inserts rows, creating or widening the table first.
func (s *SQLiteSink) Append(rows []siri.Row) error {
	if len(rows) == 0 {
		return nil
	}

	incoming := columnUnion(rows)
	if err := s.ensureColumns(incoming); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(s.columns)), ",")
	quoted := make([]string, len(s.columns))
	for i, col := range s.columns {
		quoted[i] = quoteIdent(col)
	}
	stmt, err := tx.Prepare(fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s)`,
		sqliteTable, strings.Join(quoted, ", "), placeholders,
	))
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range rows {
		values := make([]any, len(s.columns))
		for i, col := range s.columns {
			values[i] = row[col]
		}
		if _, err := stmt.Exec(values...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteSink) ensureColumns(incoming []string) error {
	if s.columns == nil {
		defs := make([]string, len(incoming))
		for i, col := range incoming {
			defs[i] = quoteIdent(col) + " TEXT"
		}
		_, err := s.db.Exec(fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (%s)`,
			sqliteTable, strings.Join(defs, ", "),
		))
		if err != nil {
			return fmt.Errorf("create table: %w", err)
		}
		s.columns = incoming
		return nil
	}

	existing := make(map[string]struct{}, len(s.columns))
	for _, col := range s.columns {
		existing[col] = struct{}{}
	}
	for _, col := range incoming {
		if _, ok := existing[col]; ok {
			continue
		}
		_, err := s.db.Exec(fmt.Sprintf(
			`ALTER TABLE %s ADD COLUMN %s TEXT`,
			sqliteTable, quoteIdent(col),
		))
		if err != nil {
			return fmt.Errorf("add column %s: %w", col, err)
		}
		s.columns = append(s.columns, col)
	}
	return nil
}

func (s *SQLiteSink) loadColumns() error {
	rows, err := s.db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, sqliteTable))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return err
		}
		columns = append(columns, name)
	}
	s.columns = columns
	return rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

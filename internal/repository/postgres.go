package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresSource reads the listing table from PostgreSQL. Every column is
// fetched and stringified so the Loader types it exactly like a CSV export.
type PostgresSource struct {
	dsn         string
	table       string
	maxConn     int
	maxIdleConn int
}

// NewPostgresSource creates a new PostgreSQL dataset source
func NewPostgresSource(dsn, table string, maxConn, maxIdleConn int) *PostgresSource {
	if maxConn <= 0 {
		maxConn = 4
	}
	if maxIdleConn < 0 {
		maxIdleConn = 0
	}
	return &PostgresSource{dsn: dsn, table: table, maxConn: maxConn, maxIdleConn: maxIdleConn}
}

func (s *PostgresSource) Name() string { return "postgres:" + s.table }

func (s *PostgresSource) connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", s.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(s.maxConn)
	db.SetMaxIdleConns(s.maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)
	return db, nil
}

// ReadRecords runs SELECT * against the configured table. The connection is
// held only for the duration of the load.
func (s *PostgresSource) ReadRecords(ctx context.Context) ([]string, [][]string, error) {
	table, err := quoteTable(s.table)
	if err != nil {
		return nil, nil, err
	}

	db, err := s.connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	rows, err := db.QueryxContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("read columns: %w", err)
	}
	header := normalizeHeader(columns)

	var records [][]string
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, nil, fmt.Errorf("scan row %d: %w", len(records)+1, err)
		}
		rec := make([]string, len(values))
		for i, v := range values {
			rec[i] = stringifySQL(v)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", err)
	}
	return header, records, nil
}

// quoteTable quotes an optionally schema-qualified table name.
func quoteTable(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("dataset table name is empty")
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "" {
			return "", fmt.Errorf("invalid table name %q", name)
		}
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, "."), nil
}

// stringifySQL renders a scanned value the way it would appear in a CSV
// export. NULL becomes the empty cell.
func stringifySQL(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

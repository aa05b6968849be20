package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"travelchat/internal/config"
)

// RecordSource yields the raw dataset: a header row and string records.
// Typing happens later in the Loader.
type RecordSource interface {
	Name() string
	ReadRecords(ctx context.Context) (header []string, records [][]string, err error)
}

// LoadError reports an unreadable or malformed dataset source
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load dataset from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// NewSource picks the dataset source from configuration. A DSN selects
// PostgreSQL; otherwise the file extension chooses between Excel and CSV.
func NewSource(cfg config.DatasetConfig) (RecordSource, error) {
	if cfg.DSN != "" {
		return NewPostgresSource(cfg.DSN, cfg.Table, cfg.MaxConnections, cfg.MaxIdleConnections), nil
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("no dataset path or DSN configured")
	}

	switch strings.ToLower(filepath.Ext(cfg.Path)) {
	case ".xlsx", ".xlsm":
		return NewXLSXSource(cfg.Path), nil
	default:
		return NewFileSource(cfg.Path), nil
	}
}

// normalizeHeader names blank header cells the way spreadsheet exports do
// and drops a leading byte order mark.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		out[i] = h
	}
	return out
}

// padRecord extends short records with empty cells so every row lines up
// with the header.
func padRecord(record []string, width int) ([]string, error) {
	switch {
	case len(record) == width:
		return record, nil
	case len(record) < width:
		padded := make([]string, width)
		copy(padded, record)
		return padded, nil
	default:
		return nil, fmt.Errorf("row has %d fields, header has %d", len(record), width)
	}
}

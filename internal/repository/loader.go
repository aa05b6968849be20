package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"travelchat/internal/catalog"
	"travelchat/internal/model"
)

// Snapshot is one immutable load of the dataset.
type Snapshot struct {
	Schema   *catalog.Schema
	Table    *model.Table
	Source   string
	LoadedAt time.Time
}

// Loader reads a source and types its cells according to the manifest.
type Loader struct {
	source   RecordSource
	manifest *catalog.Manifest
}

func NewLoader(source RecordSource, manifest *catalog.Manifest) *Loader {
	if manifest == nil {
		manifest = catalog.DefaultManifest()
	}
	return &Loader{source: source, manifest: manifest}
}

// Load reads the whole source. Values that cannot be coerced to their
// column's type are absent; only an unreadable source is an error.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	header, records, err := l.source.ReadRecords(ctx)
	if err != nil {
		return nil, &LoadError{Source: l.source.Name(), Err: err}
	}

	schema := catalog.NewSchema(l.manifest, header)
	columns := schema.Columns()

	rows := make([]model.Row, len(records))
	for i, rec := range records {
		row := make(model.Row, len(columns))
		for j, col := range columns {
			if j < len(rec) {
				row[j] = coerce(rec[j], col.Type)
			}
		}
		rows[i] = row
	}

	return &Snapshot{
		Schema:   schema,
		Table:    model.NewTable(schema.Names(), rows),
		Source:   l.source.Name(),
		LoadedAt: time.Now(),
	}, nil
}

func coerce(raw string, t catalog.ColumnType) model.Value {
	switch t {
	case catalog.Numeric:
		s := strings.TrimSpace(raw)
		if s == "" {
			return model.Absent()
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.Absent()
		}
		return model.Number(f, s)
	case catalog.Boolean:
		switch strings.TrimSpace(raw) {
		case "True", "true", "1", "1.0":
			return model.Bool(true)
		case "False", "false", "0", "0.0":
			return model.Bool(false)
		default:
			return model.Absent()
		}
	default:
		if raw == "" {
			return model.Absent()
		}
		return model.Text(raw)
	}
}

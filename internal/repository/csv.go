package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// FileSource reads a CSV file, optionally gzip, bzip2 or xz compressed.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return s.path }

// ReadRecords parses the whole file. Short rows are padded; rows with more
// fields than the header are malformed.
func (s *FileSource) ReadRecords(ctx context.Context) ([]string, [][]string, error) {
	rc, _, err := openDecompressed(s.path)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = false

	first, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	header := normalizeHeader(first)

	var records [][]string
	for {
		if len(records)%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		rec, err = padRecord(rec, len(header))
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return header, records, nil
}

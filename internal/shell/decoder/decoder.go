// Package decoder turns a compressed tabular export payload into a
// lazy sequence of rows. Bytes flow gzip reader -> CSV reader -> Row,
// one data line at a time; the decompressed payload is never
// materialized, so arbitrarily large exports run in bounded memory.
package decoder

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"reporting-sync/internal/core/domain"
	"reporting-sync/internal/core/ports"
)

// RowReader reads one Row per data line of a gzip-compressed CSV
// payload. It is finite and not restartable; a retry re-opens the
// download.
type RowReader struct {
	gz     *gzip.Reader
	csv    *csv.Reader
	header []string
	line   int
}

// NewRowReader wraps a compressed payload stream. It consumes the
// gzip header and the CSV header line, which defines column order for
// every subsequent row. An empty or non-gzip payload fails here.
func NewRowReader(r io.Reader) (*RowReader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, &domain.DecodeError{Err: fmt.Errorf("payload is not gzip: %w", err)}
	}

	cr := csv.NewReader(gz)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, &domain.DecodeError{Err: fmt.Errorf("failed to read header line: %w", err)}
	}

	columns := make([]string, len(header))
	copy(columns, header)

	return &RowReader{
		gz:     gz,
		csv:    cr,
		header: columns,
		line:   1,
	}, nil
}

// Columns returns the field names from the header line.
func (r *RowReader) Columns() []string {
	return r.header
}

// Next returns the next row, or io.EOF after the final row. A data
// line whose field count disagrees with the header, or a byte stream
// that terminates abnormally, yields a DecodeError: the whole window
// is treated as failed and reprocessed later.
func (r *RowReader) Next() (domain.Row, error) {
	record, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			// Verify gzip trailer integrity: a truncated stream can
			// surface as a clean EOF from the CSV layer.
			if _, gzErr := r.gz.Read(make([]byte, 1)); gzErr != nil && gzErr != io.EOF {
				return domain.Row{}, &domain.DecodeError{Line: r.line, Err: gzErr}
			}
			return domain.Row{}, io.EOF
		}
		return domain.Row{}, &domain.DecodeError{Line: r.line + 1, Err: err}
	}

	r.line++
	values := make([]string, len(record))
	copy(values, record)

	return domain.Row{Columns: r.header, Values: values}, nil
}

// Close releases the gzip reader. The underlying byte source is owned
// by the caller.
func (r *RowReader) Close() error {
	return r.gz.Close()
}

// Decode adapts NewRowReader to the ports.RowDecoder shape.
func Decode(r io.Reader) (ports.RowIterator, error) {
	return NewRowReader(r)
}

package domain

// Row is one parsed line of a decoded export payload: an ordered
// mapping of column name to raw string value. Rows are transient;
// ownership passes to the sink upsert call.
type Row struct {
	Columns []string
	Values  []string
}

// Get returns the raw value for a column and whether the column exists.
func (r Row) Get(column string) (string, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return "", false
}

// SinkRecord converts the row into the sink's record shape. Field
// mapping is identity. Empty strings become nil so the sink can infer
// types for absent values.
func (r Row) SinkRecord() map[string]any {
	record := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		if r.Values[i] == "" {
			record[c] = nil
		} else {
			record[c] = r.Values[i]
		}
	}
	return record
}

package usecases

import (
	"context"
	"errors"
	"io"

	"reporting-sync/internal/core/domain"
	"reporting-sync/internal/core/ports"
)

// EmitAll drains the row iterator into the sink, one synchronous
// upsert per row in payload order, and returns the number of rows
// emitted. The first sink failure aborts with an EmitError; rows
// already written are not retracted, since upsert idempotence makes
// reprocessing the same window safe.
func EmitAll(ctx context.Context, table string, rows ports.RowIterator, sink ports.Sink) (int, error) {
	count := 0
	for {
		row, err := rows.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return count, nil
			}
			return count, err
		}

		if err := sink.Upsert(ctx, table, row.SinkRecord()); err != nil {
			return count, &domain.EmitError{Table: table, Row: count + 1, Err: err}
		}
		count++
	}
}

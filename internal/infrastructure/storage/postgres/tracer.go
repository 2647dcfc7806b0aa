package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"salesboard/pkg/logger"
)

// slowQueryTracer logs statements that take at least threshold, and failed
// statements at debug level.
type slowQueryTracer struct {
	threshold time.Duration
}

var _ pgx.QueryTracer = slowQueryTracer{}

type queryStartKey struct{}

type queryStart struct {
	sql string
	at  time.Time
}

func (t slowQueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{sql: data.SQL, at: time.Now()})
}

func (t slowQueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	elapsed := time.Since(start.at)

	if data.Err != nil {
		logger.Debug(ctx, "query failed", "sql", start.sql, "duration", elapsed, "error", data.Err)
		return
	}
	if elapsed >= t.threshold {
		logger.Warn(ctx, "slow query",
			"sql", start.sql,
			"duration", elapsed,
			"rows", data.CommandTag.RowsAffected(),
		)
	}
}

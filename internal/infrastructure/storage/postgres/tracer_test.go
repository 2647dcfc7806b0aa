package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"salesboard/pkg/logger"
)

func TestSlowQueryTracer(t *testing.T) {
	prev := logger.Default()
	t.Cleanup(func() { logger.SetDefault(prev) })
	core, logs := observer.New(zap.DebugLevel)
	logger.SetDefault(&logger.Logger{SugaredLogger: zap.New(core).Sugar()})

	ctx := context.Background()
	const sql = "SELECT sold_on FROM sales_transactions"

	fast := slowQueryTracer{threshold: time.Hour}
	qctx := fast.TraceQueryStart(ctx, nil, pgx.TraceQueryStartData{SQL: sql})
	fast.TraceQueryEnd(qctx, nil, pgx.TraceQueryEndData{CommandTag: pgconn.NewCommandTag("SELECT 3")})
	assert.Zero(t, logs.Len())

	slow := slowQueryTracer{threshold: 0}
	qctx = slow.TraceQueryStart(ctx, nil, pgx.TraceQueryStartData{SQL: sql})
	slow.TraceQueryEnd(qctx, nil, pgx.TraceQueryEndData{CommandTag: pgconn.NewCommandTag("SELECT 3")})
	require.Equal(t, 1, logs.FilterMessage("slow query").Len())
	entry := logs.FilterMessage("slow query").All()[0]
	assert.Equal(t, sql, entry.ContextMap()["sql"])
	assert.EqualValues(t, 3, entry.ContextMap()["rows"])

	qctx = slow.TraceQueryStart(ctx, nil, pgx.TraceQueryStartData{SQL: sql})
	slow.TraceQueryEnd(qctx, nil, pgx.TraceQueryEndData{Err: errors.New("relation does not exist")})
	assert.Equal(t, 1, logs.FilterMessage("query failed").Len())

	// End without a matching start is ignored.
	slow.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})
	assert.Equal(t, 2, logs.Len())
}

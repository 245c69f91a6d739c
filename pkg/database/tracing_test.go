package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func spanNames(spans tracetest.SpanStubs) []string {
	names := make([]string, 0, len(spans))
	for _, s := range spans {
		names = append(names, s.Name)
	}
	return names
}

func TestTraceQuery_RecordsAttributes(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceQuery(context.Background(), "SELECT", "SELECT id FROM products WHERE id = $1")
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.SELECT", spans[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)

	attrs := map[string]string{}
	for _, a := range spans[0].Attributes {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	assert.Equal(t, "postgresql", attrs["db.system"])
	assert.Equal(t, "SELECT id FROM products WHERE id = $1", attrs["db.statement"])
}

func TestTraceQuery_Error(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceQuery(context.Background(), "UPDATE", "UPDATE products SET name = $1")
	end(errors.New("connection refused"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.NotEmpty(t, spans[0].Events)
}

func TestSlowQueryLogging(t *testing.T) {
	setupTestTracer(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	SetSlowQueryLogging(time.Hour, logger)
	_, end := TraceQuery(context.Background(), "SELECT", "SELECT 1")
	end(nil)
	assert.Empty(t, buf.String())

	SetSlowQueryLogging(time.Nanosecond, logger)
	_, end = TraceQuery(context.Background(), "INSERT", "INSERT INTO t VALUES ($1)")
	end(errors.New("unique constraint violation"))

	out := buf.String()
	assert.Contains(t, out, "slow query detected")
	assert.Contains(t, out, "INSERT INTO t VALUES ($1)")
	assert.Contains(t, out, "unique constraint violation")
}

func TestOperationName(t *testing.T) {
	tests := map[string]string{
		"SELECT 1":                       "SELECT",
		"\n\t  insert into products ...": "INSERT",
		"WITH RECURSIVE ancestors AS":    "WITH",
		"DELETE":                         "DELETE",
		"   ":                            "QUERY",
	}
	for sql, want := range tests {
		assert.Equal(t, want, operationName(sql), sql)
	}
}

func TestTraced_WrapsStatementsAndTransactions(t *testing.T) {
	exporter := setupTestTracer(t)
	mock := newMockPool(t)
	db := Traced(mock)

	mock.ExpectExec("DELETE FROM product_images").WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM categories").WithArgs("Apparel").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(4)))
	mock.ExpectCommit()

	ctx := context.Background()
	_, err := db.Exec(ctx, "DELETE FROM product_images WHERE id = $1", int64(1))
	require.NoError(t, err)

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	var id int64
	require.NoError(t, tx.QueryRow(ctx, "SELECT id FROM categories WHERE name = $1", "Apparel").Scan(&id))
	assert.Equal(t, int64(4), id)
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, []string{"db.DELETE", "db.BEGIN", "db.SELECT", "db.COMMIT"}, spanNames(exporter.GetSpans()))
	assert.Same(t, db, Traced(db))
}

func TestTraced_NoRowsIsNotAnError(t *testing.T) {
	exporter := setupTestTracer(t)
	mock := newMockPool(t)
	db := Traced(mock)

	mock.ExpectQuery("SELECT id FROM categories").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	var id int64
	err := db.QueryRow(context.Background(), "SELECT id FROM categories WHERE name = $1", "Missing").Scan(&id)
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}

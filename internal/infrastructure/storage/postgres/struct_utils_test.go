package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type importStamp struct {
	ImportedAt time.Time `db:"imported_at"`
}

type mockRecord struct {
	importStamp
	Code    string `db:"code"`
	Name    string `db:"name"`
	Skipped string `db:"-"`
	Plain   string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockRecord]()
	assert.Equal(t, []string{"imported_at", "code", "name"}, cols)

	// Pointer and value types share metadata.
	assert.Equal(t, cols, ExtractDBColumns[*mockRecord]())
}

func TestRowValues(t *testing.T) {
	now := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	rec := mockRecord{
		importStamp: importStamp{ImportedAt: now},
		Code:        "P1",
		Name:        "PENNE",
		Skipped:     "x",
		Plain:       "y",
	}

	assert.Equal(t, []any{now, "P1", "PENNE"}, RowValues(rec))
	assert.Equal(t, []any{now, "P1", "PENNE"}, RowValues(&rec))
	assert.Nil(t, RowValues(42))
}

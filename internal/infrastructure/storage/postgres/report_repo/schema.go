package report_repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"salesboard/internal/infrastructure/storage/postgres"
)

// NotifyChannel is signalled after every statement that changes the table.
const NotifyChannel = "sales_changed"

// schemaStatements creates the table, its date index and the change trigger.
func schemaStatements(table string) []postgres.BatchQuery {
	ident := pgx.Identifier{table}.Sanitize()
	fn := pgx.Identifier{table + "_notify"}.Sanitize()
	trigger := pgx.Identifier{table + "_changed"}.Sanitize()
	index := pgx.Identifier{table + "_sold_on_idx"}.Sanitize()

	return []postgres.BatchQuery{
		{SQL: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id                  bigserial PRIMARY KEY,
	sold_on             date NOT NULL,
	client              text NOT NULL,
	salesperson         text NOT NULL DEFAULT '',
	channel             text NOT NULL DEFAULT '',
	product_code        text NOT NULL,
	product_description text NOT NULL DEFAULT '',
	product_line        text NOT NULL DEFAULT '',
	quantity            numeric(18,4) NOT NULL,
	sale_amount         numeric(18,4) NOT NULL
)`, ident)},
		{SQL: fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (sold_on)`, index, ident)},
		{SQL: fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s() RETURNS trigger LANGUAGE plpgsql AS $$
BEGIN
	PERFORM pg_notify('%s', TG_TABLE_NAME);
	RETURN NULL;
END
$$`, fn, NotifyChannel)},
		{SQL: fmt.Sprintf(`DROP TRIGGER IF EXISTS %s ON %s`, trigger, ident)},
		{SQL: fmt.Sprintf(`CREATE TRIGGER %s AFTER INSERT OR UPDATE OR DELETE OR TRUNCATE ON %s
	FOR EACH STATEMENT EXECUTE FUNCTION %s()`, trigger, ident, fn)},
	}
}

// EnsureSchema creates the sales table and its notify trigger if missing.
func (r *SalesRepo) EnsureSchema(ctx context.Context) error {
	exec := postgres.NewBatchExecutor(r.txm)
	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := exec.ExecuteBatch(ctx, schemaStatements(r.table)); err != nil {
			return fmt.Errorf("ensure %s schema: %w", r.table, err)
		}
		return nil
	})
}

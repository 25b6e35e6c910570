package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Seed upserts the catalog into Postgres so user_languages rows can
// reference it by code. Removed languages stay in the table; rows may
// still point at them.
func Seed(ctx context.Context, db *pgxpool.Pool, c *Catalog) error {
	batch := &pgx.Batch{}
	for _, l := range c.All() {
		batch.Queue(`
			INSERT INTO languages (code, name, native_name)
			VALUES ($1, $2, $3)
			ON CONFLICT (code) DO UPDATE
			SET name = EXCLUDED.name, native_name = EXCLUDED.native_name`,
			l.Code, l.Name, l.NativeName,
		)
	}

	results := db.SendBatch(ctx, batch)
	defer results.Close()
	for range c.All() {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("seed languages: %w", err)
		}
	}
	return nil
}

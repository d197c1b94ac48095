package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	"henbot/core"
	"henbot/models"
)

type PostgresWhitelistSnapshotsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for whitelist_snapshots table
var whitelistSnapshotsColumns = []string{
	"id",
	"version",
	"raw_json",
	"created_at",
}

func NewPostgresWhitelistSnapshotsRepository(db *sqlx.DB, schema string) *PostgresWhitelistSnapshotsRepository {
	return &PostgresWhitelistSnapshotsRepository{db: db, schema: schema}
}

// InsertSnapshot stores an accepted configuration blob as the next version.
func (r *PostgresWhitelistSnapshotsRepository) InsertSnapshot(
	ctx context.Context,
	rawJSON string,
) (*models.WhitelistSnapshot, error) {
	id := core.NewID("wls")
	returningStr := strings.Join(whitelistSnapshotsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.whitelist_snapshots (id, version, raw_json)
		VALUES ($1, (
			SELECT COALESCE(MAX(version), 0) + 1 FROM %s.whitelist_snapshots
		), $2)
		RETURNING %s
	`, r.schema, r.schema, returningStr)

	var snapshot models.WhitelistSnapshot
	err := r.db.QueryRowxContext(ctx, query, id, rawJSON).StructScan(&snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to insert whitelist snapshot: %w", err)
	}

	return &snapshot, nil
}

// GetLatestSnapshot returns the highest-version snapshot, if any exists.
func (r *PostgresWhitelistSnapshotsRepository) GetLatestSnapshot(
	ctx context.Context,
) (mo.Option[models.WhitelistSnapshot], error) {
	selectStr := strings.Join(whitelistSnapshotsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s FROM %s.whitelist_snapshots
		ORDER BY version DESC
		LIMIT 1
	`, selectStr, r.schema)

	var snapshot models.WhitelistSnapshot
	err := r.db.GetContext(ctx, &snapshot, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mo.None[models.WhitelistSnapshot](), nil
		}
		return mo.None[models.WhitelistSnapshot](), fmt.Errorf("failed to get latest whitelist snapshot: %w", err)
	}

	return mo.Some(snapshot), nil
}

package gallery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/BioInfo/chronoscope/internal/tracing"
)

// Table names.
const (
	ImagesTable = "chronoscope_gallery_images"
	SchemaTable = "chronoscope_gallery_schema"
)

// Postgres error codes handled by the repository.
const (
	pqUniqueViolation = "23505"
	pqUndefinedTable  = "42P01"
	pqUndefinedColumn = "42703"
)

// PostgresRepository implements Repository on PostgreSQL.
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRepository creates a repository over db. Call Migrate before use.
func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

const imageColumns = `id, image_data, latitude, longitude, year, month, day, hour, minute,
	location_name, description, created_at_ms, COALESCE(fingerprint, '')`

// imageColumnsV1 is the projection before the fingerprint column existed.
const imageColumnsV1 = `id, image_data, latitude, longitude, year, month, day, hour, minute,
	location_name, description, created_at_ms, ''`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner) (*Image, error) {
	var img Image
	err := row.Scan(
		&img.ID,
		&img.ImageData,
		&img.Coordinates.Spatial.Latitude,
		&img.Coordinates.Spatial.Longitude,
		&img.Coordinates.Temporal.Year,
		&img.Coordinates.Temporal.Month,
		&img.Coordinates.Temporal.Day,
		&img.Coordinates.Temporal.Hour,
		&img.Coordinates.Temporal.Minute,
		&img.LocationName,
		&img.Description,
		&img.Timestamp,
		&img.Fingerprint,
	)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// Migrate creates the schema bookkeeping table if needed and applies every
// pending migration, each in its own transaction together with the version bump.
func (r *PostgresRepository) Migrate(ctx context.Context) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, SchemaTable, tracing.DBOperationExec)
	defer func() { endSpan(err) }()

	_, err = r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+SchemaTable+` (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		version INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create schema table: %w", err)
	}

	version, err := r.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	pending, err := Pending(r.migrations(), version)
	if err != nil {
		return err
	}

	for _, m := range pending {
		if err = r.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("failed to migrate gallery schema %d->%d: %w", m.From, m.To, err)
		}
		r.logger.Info("applied gallery migration",
			slog.Int("from", m.From),
			slog.Int("to", m.To),
			slog.String("name", m.Name))
	}
	return nil
}

// migrations is the Postgres schema ladder. Each step runs in the
// transaction that also records its version.
func (r *PostgresRepository) migrations() []Migration[*sql.Tx] {
	return []Migration[*sql.Tx]{
		{From: 0, To: 1, Name: "create images table with timestamp index", Apply: createImagesTable},
		{From: 1, To: 2, Name: "add unique fingerprint index", Apply: r.addFingerprintIndex},
	}
}

func (r *PostgresRepository) applyMigration(ctx context.Context, m Migration[*sql.Tx]) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			r.logger.Error("failed to rollback migration", "error", err)
		}
	}()

	if err := m.Apply(ctx, tx); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO `+SchemaTable+` (id, version) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version`, m.To)
	if err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}

func createImagesTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+ImagesTable+` (
		id UUID PRIMARY KEY,
		image_data TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		day INTEGER NOT NULL,
		hour INTEGER NOT NULL,
		minute INTEGER NOT NULL,
		location_name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at_ms BIGINT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create images table: %w", err)
	}
	_, err = tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_`+ImagesTable+`_timestamp
		ON `+ImagesTable+` (created_at_ms)`)
	if err != nil {
		return fmt.Errorf("failed to create timestamp index: %w", err)
	}
	return nil
}

// addFingerprintIndex adds the fingerprint column, backfills it and creates
// the unique index. Where legacy images collide only the oldest gets the
// fingerprint; the rest keep a NULL one, which the unique index allows.
func (r *PostgresRepository) addFingerprintIndex(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `ALTER TABLE `+ImagesTable+` ADD COLUMN IF NOT EXISTS fingerprint TEXT`); err != nil {
		return fmt.Errorf("failed to add fingerprint column: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT `+imageColumns+` FROM `+ImagesTable)
	if err != nil {
		return fmt.Errorf("failed to read images for backfill: %w", err)
	}
	var images []*Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan image for backfill: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate images for backfill: %w", err)
	}
	rows.Close()

	unindexed := 0
	for id, fp := range assignFingerprints(images) {
		value := sql.NullString{String: fp, Valid: fp != ""}
		if !value.Valid {
			unindexed++
		}
		if _, err := tx.ExecContext(ctx, `UPDATE `+ImagesTable+` SET fingerprint = $1 WHERE id = $2`, value, id); err != nil {
			return fmt.Errorf("failed to backfill fingerprint for %s: %w", id, err)
		}
	}
	if unindexed > 0 {
		r.logger.Warn("legacy gallery images share a fingerprint and were left unindexed", slog.Int("images", unindexed))
	}

	if _, err := tx.ExecContext(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS idx_`+ImagesTable+`_fingerprint
		ON `+ImagesTable+` (fingerprint)`); err != nil {
		return fmt.Errorf("failed to create fingerprint index: %w", err)
	}
	return nil
}

// SchemaVersion reads the stored version. A missing schema table or row is version 0.
func (r *PostgresRepository) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := r.db.QueryRowContext(ctx, `SELECT version FROM `+SchemaTable+` WHERE id = 1`).Scan(&version)
	if err != nil {
		if err == sql.ErrNoRows || pqCode(err) == pqUndefinedTable {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Insert stores img. A unique violation on the fingerprint index is
// reported as ErrDuplicateFingerprint.
func (r *PostgresRepository) Insert(ctx context.Context, img *Image) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, ImagesTable, tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	_, err = r.db.ExecContext(ctx, `INSERT INTO `+ImagesTable+` (
			id, image_data, latitude, longitude, year, month, day, hour, minute,
			location_name, description, created_at_ms, fingerprint
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		img.ID,
		img.ImageData,
		img.Coordinates.Spatial.Latitude,
		img.Coordinates.Spatial.Longitude,
		img.Coordinates.Temporal.Year,
		img.Coordinates.Temporal.Month,
		img.Coordinates.Temporal.Day,
		img.Coordinates.Temporal.Hour,
		img.Coordinates.Temporal.Minute,
		img.LocationName,
		img.Description,
		img.Timestamp,
		img.Fingerprint,
	)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return ErrDuplicateFingerprint
		}
		return fmt.Errorf("failed to insert gallery image: %w", err)
	}
	return nil
}

// Get returns the image with id. An id that is not a UUID cannot exist.
func (r *PostgresRepository) Get(ctx context.Context, id string) (img *Image, err error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrImageNotFound
	}

	ctx, endSpan := tracing.StartDBSpan(ctx, ImagesTable, tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	img, err = scanImage(r.db.QueryRowContext(ctx,
		`SELECT `+imageColumns+` FROM `+ImagesTable+` WHERE id = $1`, key))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to get gallery image: %w", err)
	}
	return img, nil
}

// FindByFingerprint queries through the unique fingerprint index. A schema
// without the fingerprint column reports ErrIndexUnavailable.
func (r *PostgresRepository) FindByFingerprint(ctx context.Context, fingerprint string) (img *Image, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, ImagesTable, tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	img, err = scanImage(r.db.QueryRowContext(ctx,
		`SELECT `+imageColumns+` FROM `+ImagesTable+` WHERE fingerprint = $1`, fingerprint))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrImageNotFound
		}
		if pqCode(err) == pqUndefinedColumn {
			return nil, ErrIndexUnavailable
		}
		return nil, fmt.Errorf("failed to find gallery image by fingerprint: %w", err)
	}
	return img, nil
}

// ListByTimestamp returns every image, oldest first.
func (r *PostgresRepository) ListByTimestamp(ctx context.Context) (images []*Image, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, ImagesTable, tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := `SELECT ` + imageColumns + ` FROM ` + ImagesTable + ` ORDER BY created_at_ms ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if pqCode(err) == pqUndefinedColumn {
		query = `SELECT ` + imageColumnsV1 + ` FROM ` + ImagesTable + ` ORDER BY created_at_ms ASC, id ASC`
		rows, err = r.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gallery image: %w", err)
		}
		images = append(images, img)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate gallery images: %w", err)
	}
	return images, nil
}

// Delete removes the image with id. An id that is not a UUID is a no-op.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (err error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return nil
	}

	ctx, endSpan := tracing.StartDBSpan(ctx, ImagesTable, tracing.DBOperationDelete)
	defer func() { endSpan(err) }()

	if _, err = r.db.ExecContext(ctx, `DELETE FROM `+ImagesTable+` WHERE id = $1`, key); err != nil {
		return fmt.Errorf("failed to delete gallery image: %w", err)
	}
	return nil
}

// Clear removes every image.
func (r *PostgresRepository) Clear(ctx context.Context) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, ImagesTable, tracing.DBOperationDelete)
	defer func() { endSpan(err) }()

	if _, err = r.db.ExecContext(ctx, `DELETE FROM `+ImagesTable); err != nil {
		return fmt.Errorf("failed to clear gallery: %w", err)
	}
	return nil
}

// Count returns the number of stored images.
func (r *PostgresRepository) Count(ctx context.Context) (n int, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, ImagesTable, tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+ImagesTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count gallery images: %w", err)
	}
	return n, nil
}

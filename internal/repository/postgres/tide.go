package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tideflow/tideflow-server/internal/model"
)

var _ model.TideIndex = (*TideRepository)(nil)

type TideRepository struct {
	db *Connection
}

func NewTideRepository(db *Connection) *TideRepository {
	return &TideRepository{
		db: db,
	}
}

// Upsert inserts the tide if its id is absent and returns the stored row
// either way. The id is deterministic per (user, view_kind, bucket), so
// two racing creators collapse onto one row: the loser's insert is a
// no-op and it reads back the winner's row in the same statement.
func (r *TideRepository) Upsert(ctx context.Context, tide model.Tide) (model.Tide, bool, error) {
	query := `
		WITH ins AS (
			INSERT INTO tides (id, user_id, view_kind, name, bucket_start, bucket_end, status, auto_created)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO NOTHING
			RETURNING id, user_id, view_kind, name, bucket_start, bucket_end, status, auto_created, created_at, updated_at, TRUE AS inserted
		)
		SELECT id, user_id, view_kind, name, bucket_start, bucket_end, status, auto_created, created_at, updated_at, inserted
		FROM ins
		UNION ALL
		SELECT t.id, t.user_id, t.view_kind, t.name, t.bucket_start, t.bucket_end, t.status, t.auto_created, t.created_at, t.updated_at, FALSE
		FROM tides t
		WHERE NOT EXISTS (SELECT 1 FROM ins) AND t.id = $1
		LIMIT 1`

	var (
		saved                  model.Tide
		bucketStart, bucketEnd *time.Time
		inserted               bool
	)
	err := r.db.QueryRow(ctx, query,
		tide.ID, tide.UserID, string(tide.ViewKind), tide.Name,
		nullableDate(tide.BucketStart), nullableDate(tide.BucketEnd),
		string(tide.Status), tide.AutoCreated,
	).Scan(
		&saved.ID, &saved.UserID, &saved.ViewKind, &saved.Name,
		&bucketStart, &bucketEnd, &saved.Status, &saved.AutoCreated,
		&saved.CreatedAt, &saved.UpdatedAt, &inserted,
	)
	if err != nil {
		return model.Tide{}, false, fmt.Errorf("failed to upsert tide: %w", err)
	}

	setBucket(&saved, bucketStart, bucketEnd)

	return saved, inserted, nil
}

func (r *TideRepository) GetByKey(ctx context.Context, userID uuid.UUID, kind model.ViewKind, bucketStart time.Time) (model.Tide, error) {
	query := `
		SELECT id, user_id, view_kind, name, bucket_start, bucket_end, status, auto_created, created_at, updated_at
		FROM tides
		WHERE user_id = $1 AND view_kind = $2 AND bucket_start = $3`

	return r.scanTide(r.db.QueryRow(ctx, query, userID, string(kind), dateOnly(bucketStart)))
}

func (r *TideRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Tide, error) {
	query := `
		SELECT id, user_id, view_kind, name, bucket_start, bucket_end, status, auto_created, created_at, updated_at
		FROM tides
		WHERE id = $1`

	return r.scanTide(r.db.QueryRow(ctx, query, id))
}

// AppendEvent inserts the event row and bumps the tide's updated_at.
// Re-inserting the same (tide, event) pair is a no-op, so a retried
// distribution leg never duplicates an event.
func (r *TideRepository) AppendEvent(ctx context.Context, tideID uuid.UUID, event model.TideEvent) error {
	query := `
		WITH ev AS (
			INSERT INTO tide_events (id, tide_id, kind, intensity, duration_min, energy_level, work_context, started_at, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (tide_id, id) DO NOTHING
		)
		UPDATE tides SET updated_at = NOW() WHERE id = $2`

	cmd, err := r.db.Exec(ctx, query,
		event.ID, tideID, string(event.Kind), string(event.Intensity),
		event.DurationMin, event.EnergyLevel, event.WorkContext,
		event.StartedAt, event.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *TideRepository) ListForCharts(ctx context.Context, userID uuid.UUID, kind model.ViewKind, limit int) ([]model.ChartPoint, error) {
	query := `
		SELECT t.id, t.view_kind, t.bucket_start, t.bucket_end,
		       COUNT(e.id) FILTER (WHERE e.kind = 'flow'),
		       COALESCE(SUM(e.duration_min) FILTER (WHERE e.kind = 'flow'), 0),
		       COALESCE(AVG(e.energy_level) FILTER (WHERE e.energy_level > 0), 0)
		FROM tides t
		LEFT JOIN tide_events e ON e.tide_id = t.id
		WHERE t.user_id = $1 AND t.bucket_start IS NOT NULL AND ($2 = '' OR t.view_kind = $2)
		GROUP BY t.id, t.view_kind, t.bucket_start, t.bucket_end
		ORDER BY t.bucket_start DESC, t.view_kind
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, userID, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chart series: %w", err)
	}
	defer rows.Close()

	var points []model.ChartPoint
	for rows.Next() {
		var point model.ChartPoint
		err := rows.Scan(
			&point.TideID, &point.ViewKind, &point.BucketStart, &point.BucketEnd,
			&point.FlowCount, &point.TotalMinutes, &point.AvgEnergy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chart point: %w", err)
		}
		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chart series: %w", err)
	}

	return points, nil
}

func (r *TideRepository) scanTide(row pgx.Row) (model.Tide, error) {
	var (
		tide                   model.Tide
		bucketStart, bucketEnd *time.Time
	)
	err := row.Scan(
		&tide.ID, &tide.UserID, &tide.ViewKind, &tide.Name,
		&bucketStart, &bucketEnd, &tide.Status, &tide.AutoCreated,
		&tide.CreatedAt, &tide.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Tide{}, model.ErrNotFound
		}
		return model.Tide{}, fmt.Errorf("failed to get tide: %w", err)
	}

	setBucket(&tide, bucketStart, bucketEnd)

	return tide, nil
}

// nullableDate maps the zero time to NULL so project tides, which own no
// bucket, stay outside the (user, view_kind, bucket_start) unique index.
func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	d := dateOnly(t)
	return &d
}

// dateOnly keeps the calendar day of t's own location, re-anchored at
// UTC midnight. Bucket midnights arrive in the user's zone; encoding
// them verbatim would let the DATE cast shift them across a day line.
func dateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func setBucket(tide *model.Tide, start, end *time.Time) {
	if start != nil {
		tide.BucketStart = *start
	}
	if end != nil {
		tide.BucketEnd = *end
	}
}

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/CodecEval/internal/rd"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const calibrationColumns = `id, calibration, curve, created_at`

func (s *PostgresStore) SaveCalibration(ctx context.Context, rec *CalibrationRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	calJSON, err := json.Marshal(rec.Calibration)
	if err != nil {
		return fmt.Errorf("marshal calibration: %w", err)
	}
	curveJSON, err := json.Marshal(rec.Curve)
	if err != nil {
		return fmt.Errorf("marshal curve: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO codeceval_calibrations (id, codec, corpus, calibration, curve, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Calibration.Codec, rec.Calibration.Corpus, calJSON, curveJSON, rec.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetCalibration(ctx context.Context, id uuid.UUID) (*CalibrationRecord, error) {
	rec, err := scanCalibration(s.pool.QueryRow(ctx, `
		SELECT `+calibrationColumns+`
		FROM codeceval_calibrations WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func (s *PostgresStore) ListCalibrations(ctx context.Context, filter CalibrationFilter) ([]*CalibrationRecord, error) {
	query := `SELECT ` + calibrationColumns + ` FROM codeceval_calibrations WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Codec != "" {
		n++
		query += fmt.Sprintf(" AND codec = $%d", n)
		args = append(args, filter.Codec)
	}
	if filter.Corpus != "" {
		n++
		query += fmt.Sprintf(" AND corpus = $%d", n)
		args = append(args, filter.Corpus)
	}

	query += " ORDER BY created_at DESC, id ASC"

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*CalibrationRecord
	for rows.Next() {
		rec, err := scanCalibration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) LatestCalibration(ctx context.Context, codec, corpus string) (*CalibrationRecord, error) {
	recs, err := s.ListCalibrations(ctx, CalibrationFilter{Codec: codec, Corpus: corpus, Limit: 1})
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return recs[0], nil
}

func (s *PostgresStore) SaveFront(ctx context.Context, rec *FrontRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	frontJSON, err := json.Marshal(rec.Front)
	if err != nil {
		return fmt.Errorf("marshal front: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO codeceval_fronts (id, calibration_id, front, created_at)
		VALUES ($1, $2, $3, $4)`,
		rec.ID, rec.CalibrationID, frontJSON, rec.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetFront(ctx context.Context, id uuid.UUID) (*FrontRecord, error) {
	rec := &FrontRecord{}
	var frontJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, calibration_id, front, created_at
		FROM codeceval_fronts WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.CalibrationID, &frontJSON, &rec.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(frontJSON, &rec.Front); err != nil {
		return nil, fmt.Errorf("unmarshal front %s: %w", id, err)
	}
	return rec, nil
}

func scanCalibration(row pgx.Row) (*CalibrationRecord, error) {
	rec := &CalibrationRecord{}
	var calJSON, curveJSON []byte
	if err := row.Scan(&rec.ID, &calJSON, &curveJSON, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(calJSON, &rec.Calibration); err != nil {
		return nil, fmt.Errorf("unmarshal calibration %s: %w", rec.ID, err)
	}
	if curveJSON != nil {
		var curve []rd.CurvePoint
		if err := json.Unmarshal(curveJSON, &curve); err != nil {
			return nil, fmt.Errorf("unmarshal curve %s: %w", rec.ID, err)
		}
		rec.Curve = curve
	}
	return rec, nil
}

var _ Store = (*PostgresStore)(nil)

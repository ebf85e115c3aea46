package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/CodecEval/internal/rd"
)

// CalibrationRecord is a stored calibration plus the aggregate curve it was
// computed from, kept so charts can be re-rendered later.
type CalibrationRecord struct {
	ID          uuid.UUID        `json:"id"`
	Calibration rd.RDCalibration `json:"calibration"`
	Curve       []rd.CurvePoint  `json:"curve,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

type CalibrationFilter struct {
	Codec  string
	Corpus string
	Limit  int
	Offset int
}

// FrontRecord is a stored configured Pareto front. CalibrationID is nil when
// the front was interpreted with a measured default.
type FrontRecord struct {
	ID            uuid.UUID                `json:"id"`
	CalibrationID *uuid.UUID               `json:"calibration_id,omitempty"`
	Front         rd.ConfiguredParetoFront `json:"front"`
	CreatedAt     time.Time                `json:"created_at"`
}

const defaultListLimit = 100

type Store interface {
	SaveCalibration(ctx context.Context, rec *CalibrationRecord) error
	GetCalibration(ctx context.Context, id uuid.UUID) (*CalibrationRecord, error)
	ListCalibrations(ctx context.Context, filter CalibrationFilter) ([]*CalibrationRecord, error)
	LatestCalibration(ctx context.Context, codec, corpus string) (*CalibrationRecord, error)

	SaveFront(ctx context.Context, rec *FrontRecord) error
	GetFront(ctx context.Context, id uuid.UUID) (*FrontRecord, error)

	Close() error
}

// stamp fills in the id and creation time of a new record.
func stamp(id *uuid.UUID, createdAt *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}

//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/CodecEval/internal/rd"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := MigrateUp(dbURL, nil); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, "TRUNCATE codeceval_fronts, codeceval_calibrations CASCADE")
		s.Close()
	})

	return s
}

func TestPostgresCalibrationRoundTrip(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	rec := &CalibrationRecord{
		Calibration: rd.MozjpegCID22(),
		Curve: []rd.CurvePoint{
			{Bpp: 0.5, Ssimulacra2: 60, Butteraugli: 4},
			{Bpp: 1.5, Ssimulacra2: 80, Butteraugli: 1.8},
		},
	}
	if err := s.SaveCalibration(ctx, rec); err != nil {
		t.Fatalf("SaveCalibration failed: %v", err)
	}
	if rec.ID == uuid.Nil {
		t.Fatal("expected id after save")
	}

	got, err := s.GetCalibration(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetCalibration failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected calibration, got nil")
	}
	if got.Calibration.Ssimulacra2.Bpp != rec.Calibration.Ssimulacra2.Bpp {
		t.Errorf("s2 knee bpp: got %v, want %v", got.Calibration.Ssimulacra2.Bpp, rec.Calibration.Ssimulacra2.Bpp)
	}
	if len(got.Curve) != 2 {
		t.Errorf("expected 2 curve points, got %d", len(got.Curve))
	}

	missing, err := s.GetCalibration(ctx, uuid.New())
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil) for missing id, got (%v, %v)", missing, err)
	}
}

func TestPostgresLatestCalibration(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 3; i++ {
		rec := &CalibrationRecord{Calibration: rd.MozjpegCID22(), CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.SaveCalibration(ctx, rec); err != nil {
			t.Fatalf("SaveCalibration failed: %v", err)
		}
	}

	cal := rd.MozjpegCID22()
	latest, err := s.LatestCalibration(ctx, cal.Codec, cal.Corpus)
	if err != nil {
		t.Fatalf("LatestCalibration failed: %v", err)
	}
	if latest == nil || !latest.CreatedAt.Equal(base.Add(2*time.Minute)) {
		t.Errorf("expected newest calibration, got %+v", latest)
	}

	list, err := s.ListCalibrations(ctx, CalibrationFilter{Codec: cal.Codec, Limit: 2})
	if err != nil {
		t.Fatalf("ListCalibrations failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 results, got %d", len(list))
	}
}

func TestPostgresFrontRoundTrip(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	calRec := &CalibrationRecord{Calibration: rd.MozjpegCID22()}
	if err := s.SaveCalibration(ctx, calRec); err != nil {
		t.Fatalf("SaveCalibration failed: %v", err)
	}

	cfg := rd.NewCodecConfig("mozjpeg", "4.1").WithParam("quality", rd.IntParam(80))
	front := rd.ComputeConfiguredFront([]rd.ConfiguredRDPoint{
		{Position: rd.WebFrame.Position(1.2, 75, 2.1), Config: cfg},
	}, calRec.Calibration, rd.DefaultBins())

	rec := &FrontRecord{CalibrationID: &calRec.ID, Front: front}
	if err := s.SaveFront(ctx, rec); err != nil {
		t.Fatalf("SaveFront failed: %v", err)
	}

	got, err := s.GetFront(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetFront failed: %v", err)
	}
	if got == nil || len(got.Front.Points) != 1 {
		t.Fatalf("expected one front point, got %+v", got)
	}
	if fp := got.Front.Points[0].Config.Fingerprint(); fp != cfg.Fingerprint() {
		t.Errorf("fingerprint: got %s, want %s", fp, cfg.Fingerprint())
	}
}

func TestPostgresMigrateVersion(t *testing.T) {
	setupTestDB(t)

	version, dirty, err := MigrateVersion(os.Getenv("DATABASE_URL"), nil)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("expected clean version 1, got %d (dirty=%v)", version, dirty)
	}
}

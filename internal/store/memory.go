package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process. It backs tests and deployments
// without a database URL.
type MemoryStore struct {
	mu           sync.RWMutex
	calibrations map[uuid.UUID]*CalibrationRecord
	fronts       map[uuid.UUID]*FrontRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		calibrations: make(map[uuid.UUID]*CalibrationRecord),
		fronts:       make(map[uuid.UUID]*FrontRecord),
	}
}

func (s *MemoryStore) SaveCalibration(_ context.Context, rec *CalibrationRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	cp := *rec
	s.mu.Lock()
	s.calibrations[rec.ID] = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetCalibration(_ context.Context, id uuid.UUID) (*CalibrationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.calibrations[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// ListCalibrations returns matches newest first.
func (s *MemoryStore) ListCalibrations(_ context.Context, filter CalibrationFilter) ([]*CalibrationRecord, error) {
	s.mu.RLock()
	var out []*CalibrationRecord
	for _, rec := range s.calibrations {
		if filter.Codec != "" && rec.Calibration.Codec != filter.Codec {
			continue
		}
		if filter.Corpus != "" && rec.Calibration.Corpus != filter.Corpus {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) LatestCalibration(ctx context.Context, codec, corpus string) (*CalibrationRecord, error) {
	recs, err := s.ListCalibrations(ctx, CalibrationFilter{Codec: codec, Corpus: corpus, Limit: 1})
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return recs[0], nil
}

func (s *MemoryStore) SaveFront(_ context.Context, rec *FrontRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	cp := *rec
	s.mu.Lock()
	s.fronts[rec.ID] = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetFront(_ context.Context, id uuid.UUID) (*FrontRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.fronts[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

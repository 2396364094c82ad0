package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/tideflow/tideflow-server/internal/model"
)

// MockTideIndex mocks the TideIndex interface
type MockTideIndex struct {
	mock.Mock
}

func (m *MockTideIndex) Upsert(ctx context.Context, tide model.Tide) (model.Tide, bool, error) {
	args := m.Called(ctx, tide)
	return args.Get(0).(model.Tide), args.Bool(1), args.Error(2)
}

func (m *MockTideIndex) GetByKey(ctx context.Context, userID uuid.UUID, kind model.ViewKind, bucketStart time.Time) (model.Tide, error) {
	args := m.Called(ctx, userID, kind, bucketStart)
	return args.Get(0).(model.Tide), args.Error(1)
}

func (m *MockTideIndex) GetByID(ctx context.Context, id uuid.UUID) (model.Tide, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Tide), args.Error(1)
}

func (m *MockTideIndex) AppendEvent(ctx context.Context, tideID uuid.UUID, event model.TideEvent) error {
	args := m.Called(ctx, tideID, event)
	return args.Error(0)
}

func (m *MockTideIndex) ListForCharts(ctx context.Context, userID uuid.UUID, kind model.ViewKind, limit int) ([]model.ChartPoint, error) {
	args := m.Called(ctx, userID, kind, limit)
	return args.Get(0).([]model.ChartPoint), args.Error(1)
}

// MockTideDocuments mocks the TideDocuments interface
type MockTideDocuments struct {
	mock.Mock
}

func (m *MockTideDocuments) Save(ctx context.Context, tide model.Tide) error {
	args := m.Called(ctx, tide)
	return args.Error(0)
}

func (m *MockTideDocuments) Load(ctx context.Context, id uuid.UUID) (model.Tide, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Tide), args.Error(1)
}

func (m *MockTideDocuments) AppendEvent(ctx context.Context, tideID uuid.UUID, event model.TideEvent) error {
	args := m.Called(ctx, tideID, event)
	return args.Error(0)
}

// memIndex is an in-memory TideIndex with the same conditional-insert
// semantics as the postgres repository. Error hooks simulate backend
// failures per call.
type memIndex struct {
	mu        sync.Mutex
	tides     map[uuid.UUID]model.Tide
	events    map[uuid.UUID][]model.TideEvent
	upsertErr func(model.Tide) error
	appendErr func(uuid.UUID) error
	getErr    error
}

func newMemIndex() *memIndex {
	return &memIndex{
		tides:  make(map[uuid.UUID]model.Tide),
		events: make(map[uuid.UUID][]model.TideEvent),
	}
}

func (s *memIndex) Upsert(ctx context.Context, tide model.Tide) (model.Tide, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		if err := s.upsertErr(tide); err != nil {
			return model.Tide{}, false, err
		}
	}
	if existing, ok := s.tides[tide.ID]; ok {
		return existing, false, nil
	}
	now := time.Now()
	tide.CreatedAt = now
	tide.UpdatedAt = now
	s.tides[tide.ID] = tide
	return tide, true, nil
}

func (s *memIndex) GetByKey(ctx context.Context, userID uuid.UUID, kind model.ViewKind, bucketStart time.Time) (model.Tide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return model.Tide{}, s.getErr
	}
	for _, tide := range s.tides {
		if tide.UserID == userID && tide.ViewKind == kind && tide.BucketStart.Equal(bucketStart) {
			return tide, nil
		}
	}
	return model.Tide{}, model.ErrNotFound
}

func (s *memIndex) GetByID(ctx context.Context, id uuid.UUID) (model.Tide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return model.Tide{}, s.getErr
	}
	tide, ok := s.tides[id]
	if !ok {
		return model.Tide{}, model.ErrNotFound
	}
	return tide, nil
}

func (s *memIndex) AppendEvent(ctx context.Context, tideID uuid.UUID, event model.TideEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		if err := s.appendErr(tideID); err != nil {
			return err
		}
	}
	if _, ok := s.tides[tideID]; !ok {
		return model.ErrNotFound
	}
	for _, existing := range s.events[tideID] {
		if existing.ID == event.ID {
			return nil
		}
	}
	s.events[tideID] = append(s.events[tideID], event)
	return nil
}

func (s *memIndex) ListForCharts(ctx context.Context, userID uuid.UUID, kind model.ViewKind, limit int) ([]model.ChartPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var points []model.ChartPoint
	for id, tide := range s.tides {
		if tide.UserID != userID || !tide.ViewKind.Bucketed() {
			continue
		}
		if kind != "" && tide.ViewKind != kind {
			continue
		}
		point := model.ChartPoint{
			TideID:      id,
			ViewKind:    tide.ViewKind,
			BucketStart: tide.BucketStart,
			BucketEnd:   tide.BucketEnd,
		}
		for _, event := range s.events[id] {
			if event.Kind == model.EventKindFlow {
				point.FlowCount++
				point.TotalMinutes += event.DurationMin
			}
		}
		points = append(points, point)
		if len(points) == limit {
			break
		}
	}
	return points, nil
}

func (s *memIndex) tideCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tides)
}

// memDocs is an in-memory TideDocuments.
type memDocs struct {
	mu        sync.Mutex
	docs      map[uuid.UUID]model.Tide
	saveErr   func(model.Tide) error
	loadErr   error
	appendErr func(uuid.UUID) error
}

func newMemDocs() *memDocs {
	return &memDocs{docs: make(map[uuid.UUID]model.Tide)}
}

func (s *memDocs) Save(ctx context.Context, tide model.Tide) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		if err := s.saveErr(tide); err != nil {
			return err
		}
	}
	s.docs[tide.ID] = tide
	return nil
}

func (s *memDocs) Load(ctx context.Context, id uuid.UUID) (model.Tide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return model.Tide{}, s.loadErr
	}
	tide, ok := s.docs[id]
	if !ok {
		return model.Tide{}, model.ErrNotFound
	}
	return tide, nil
}

func (s *memDocs) AppendEvent(ctx context.Context, tideID uuid.UUID, event model.TideEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		if err := s.appendErr(tideID); err != nil {
			return err
		}
	}
	tide, ok := s.docs[tideID]
	if !ok {
		return model.ErrNotFound
	}
	for _, existing := range tide.Events {
		if existing.ID == event.ID {
			return nil
		}
	}
	tide.Events = append(tide.Events, event)
	s.docs[tideID] = tide
	return nil
}

func (s *memDocs) get(id uuid.UUID) (model.Tide, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tide, ok := s.docs[id]
	return tide, ok
}

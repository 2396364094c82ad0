package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tideflow/tideflow-server/internal/logger"
	"github.com/tideflow/tideflow-server/internal/model"
	"github.com/tideflow/tideflow-server/internal/timeframe"
)

// DefaultBackendTimeout bounds each backend call of a dual write.
const DefaultBackendTimeout = 5 * time.Second

// DualStore fans every mutation out to the indexed and the document
// backend without a shared transaction. A write succeeds when at least
// one backend accepted it; the backends may transiently diverge and read
// paths choose which side to trust.
type DualStore struct {
	index   model.TideIndex
	docs    model.TideDocuments
	timeout time.Duration
	logger  *logger.Logger
}

func NewDualStore(
	index model.TideIndex,
	docs model.TideDocuments,
	timeout time.Duration,
	logger *logger.Logger,
) *DualStore {
	if timeout <= 0 {
		timeout = DefaultBackendTimeout
	}
	return &DualStore{
		index:   index,
		docs:    docs,
		timeout: timeout,
		logger:  logger,
	}
}

// UpsertTide writes the tide to both backends as a conditional insert:
// an existing record on either side is kept, never overwritten. Returns
// the stored tide, whether this call created it, and the per-backend
// report.
func (s *DualStore) UpsertTide(ctx context.Context, tide model.Tide) (model.Tide, bool, model.WriteReport, error) {
	var (
		saved    model.Tide
		inserted bool
	)

	report, err := s.dual(ctx, "upsert_tide", tide.ID,
		func(ctx context.Context) error {
			var err error
			saved, inserted, err = s.index.Upsert(ctx, tide)
			return err
		},
		func(ctx context.Context) error {
			_, err := s.docs.Load(ctx, tide.ID)
			if err == nil {
				return nil
			}
			if errors.Is(err, model.ErrNotFound) {
				return s.docs.Save(ctx, tide)
			}
			return err
		},
	)
	if err != nil {
		return model.Tide{}, false, report, err
	}

	if report.IndexedErr != nil {
		// Document side carried the write; report the tide as given.
		saved = tide
		inserted = true
	}

	return saved, inserted, report, nil
}

// FindTide reads the indexed backend first. A missing row is a miss: the
// caller's subsequent upsert is idempotent on both sides, so a record
// that survived only in the document store is re-indexed on the next
// create. Only when the indexed backend is unavailable does the lookup
// fall back to the document store, keyed by the same deterministic id.
func (s *DualStore) FindTide(ctx context.Context, userID uuid.UUID, kind model.ViewKind, bucketStart time.Time) (model.Tide, error) {
	indexCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tide, err := s.index.GetByKey(indexCtx, userID, kind, bucketStart)
	if err == nil {
		return tide, nil
	}
	if errors.Is(err, model.ErrNotFound) {
		return model.Tide{}, model.ErrNotFound
	}

	s.logger.Error("indexed backend unavailable, falling back to document store",
		"op", "find_tide", "user_id", userID, "view_kind", kind, "error", err)

	docCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tide, docErr := s.docs.Load(docCtx, timeframe.TideID(userID, kind, bucketStart))
	if docErr != nil {
		if errors.Is(docErr, model.ErrNotFound) {
			return model.Tide{}, model.ErrNotFound
		}
		return model.Tide{}, fmt.Errorf("failed to find tide: %w", docErr)
	}

	return tide, nil
}

// AppendEvent appends the event to the tide on both backends.
func (s *DualStore) AppendEvent(ctx context.Context, tideID uuid.UUID, event model.TideEvent) (model.WriteReport, error) {
	return s.dual(ctx, "append_event", tideID,
		func(ctx context.Context) error {
			return s.index.AppendEvent(ctx, tideID, event)
		},
		func(ctx context.Context) error {
			return s.docs.AppendEvent(ctx, tideID, event)
		},
	)
}

// dual runs both backend writes concurrently, each under its own
// timeout, and waits for both outcomes. Overall latency is bounded by
// the slower backend, not the sum.
func (s *DualStore) dual(ctx context.Context, op string, tideID uuid.UUID, indexed, document func(context.Context) error) (model.WriteReport, error) {
	run := func(fn func(context.Context) error) <-chan error {
		out := make(chan error, 1)
		go func() {
			opCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			out <- fn(opCtx)
		}()
		return out
	}

	indexCh := run(indexed)
	docCh := run(document)

	report := model.ReportFor(<-indexCh, <-docCh)

	if report.Partial() {
		s.logger.Error("partial dual write, surviving backend carries the record",
			"op", op, "tide_id", tideID, "outcome", report.Outcome,
			"indexed_error", report.IndexedErr, "document_error", report.DocumentErr)
	}
	if !report.Succeeded() {
		s.logger.Error("dual write failed on both backends",
			"op", op, "tide_id", tideID,
			"indexed_error", report.IndexedErr, "document_error", report.DocumentErr)
		return report, fmt.Errorf("%s: %w", op, model.ErrDualWriteFailed)
	}

	return report, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tideflow/tideflow-server/internal/logger"
	"github.com/tideflow/tideflow-server/internal/model"
)

const (
	defaultChartLimit = 30
	maxChartLimit     = 366
)

// Query is the read-only reporting facade. Chart series come from the
// indexed backend only; full nested records come from the document
// backend only. No write paths live here.
type Query struct {
	index  model.TideIndex
	docs   model.TideDocuments
	logger *logger.Logger
}

func NewQuery(index model.TideIndex, docs model.TideDocuments, logger *logger.Logger) *Query {
	return &Query{
		index:  index,
		docs:   docs,
		logger: logger,
	}
}

// ListForCharts returns an ordered aggregate series for the user,
// newest bucket first. An empty kind spans all bucketed view kinds.
func (s *Query) ListForCharts(ctx context.Context, userID uuid.UUID, kind model.ViewKind, limit int) ([]model.ChartPoint, error) {
	if userID == uuid.Nil {
		return nil, model.NewValidationError("user_id", "required")
	}
	if kind != "" && !kind.Bucketed() {
		return nil, model.NewValidationError("view_kind", fmt.Sprintf("chart series require a bucketed view kind, got %q", kind))
	}
	if limit <= 0 {
		limit = defaultChartLimit
	}
	if limit > maxChartLimit {
		limit = maxChartLimit
	}

	points, err := s.index.ListForCharts(ctx, userID, kind, limit)
	if err != nil {
		s.logger.Error("failed to list chart series",
			"user_id", userID, "view_kind", kind, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to list chart series: %w", err)
	}

	return points, nil
}

// GetFullTide returns the complete nested record for one tide, full
// event list included. Fidelity over latency: this read trusts the
// document backend.
func (s *Query) GetFullTide(ctx context.Context, id uuid.UUID) (model.Tide, error) {
	tide, err := s.docs.Load(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Tide{}, model.ErrNotFound
		}
		s.logger.Error("failed to load tide document", "tide_id", id, "error", err)
		return model.Tide{}, fmt.Errorf("failed to load tide document: %w", err)
	}

	return tide, nil
}

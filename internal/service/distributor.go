package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tideflow/tideflow-server/internal/logger"
	"github.com/tideflow/tideflow-server/internal/model"
)

// Distributor fans a single recorded event out to the daily, weekly and
// monthly tides around its date. Legs are independent: a rollup tide
// that cannot be written never costs the user their work record, only
// the daily leg is load-bearing.
type Distributor struct {
	resolver *Resolver
	store    *DualStore
	logger   *logger.Logger
}

func NewDistributor(resolver *Resolver, store *DualStore, logger *logger.Logger) *Distributor {
	return &Distributor{
		resolver: resolver,
		store:    store,
		logger:   logger,
	}
}

// DistributeFlow records a flow session into all three view tides. The
// returned session id is the daily copy's event id.
func (s *Distributor) DistributeFlow(ctx context.Context, params model.FlowParams) (model.DistributionResult, error) {
	if err := validateFlowParams(params); err != nil {
		return model.DistributionResult{}, err
	}

	now := time.Now()
	startedAt := params.StartedAt
	if startedAt.IsZero() {
		startedAt = now
	}

	event := model.TideEvent{
		ID:          uuid.New(),
		Kind:        model.EventKindFlow,
		Intensity:   params.Intensity,
		DurationMin: params.DurationMin,
		EnergyLevel: params.EnergyLevel,
		WorkContext: params.WorkContext,
		StartedAt:   startedAt,
		RecordedAt:  now,
	}

	return s.distribute(ctx, params.UserID, params.Date, params.Timezone, event)
}

// DistributeEnergy records an energy check-in into all three view tides.
func (s *Distributor) DistributeEnergy(ctx context.Context, params model.EnergyParams) (model.DistributionResult, error) {
	if err := validateEnergyParams(params); err != nil {
		return model.DistributionResult{}, err
	}

	now := time.Now()
	event := model.TideEvent{
		ID:          uuid.New(),
		Kind:        model.EventKindEnergy,
		EnergyLevel: params.EnergyLevel,
		WorkContext: params.WorkContext,
		StartedAt:   now,
		RecordedAt:  now,
	}

	return s.distribute(ctx, params.UserID, params.Date, params.Timezone, event)
}

// distribute runs the three legs concurrently and joins their outcomes.
// One slow leg never blocks the others from reporting. The same event,
// id included, is appended on every leg, so copies carry identical
// payloads and a retry on any leg is idempotent.
func (s *Distributor) distribute(ctx context.Context, userID uuid.UUID, date time.Time, timezone string, event model.TideEvent) (model.DistributionResult, error) {
	legs := make([]model.LegResult, len(model.DistributionKinds))

	var wg sync.WaitGroup
	for i, kind := range model.DistributionKinds {
		wg.Add(1)
		go func(i int, kind model.ViewKind) {
			defer wg.Done()
			legs[i] = s.runLeg(ctx, userID, kind, date, timezone, event)
		}(i, kind)
	}
	wg.Wait()

	result := model.DistributionResult{
		SessionID: event.ID,
		Legs:      legs,
	}

	for _, leg := range legs {
		if leg.Err == nil {
			continue
		}
		if leg.ViewKind == model.ViewKindDaily {
			// Daily is the canonical home of the event; without it the
			// whole distribution failed.
			return result, fmt.Errorf("daily leg failed: %w", leg.Err)
		}
		s.logger.Error("rollup leg failed, record survives in the daily tide",
			"view_kind", leg.ViewKind, "session_id", event.ID, "user_id", userID, "error", leg.Err)
	}

	return result, nil
}

func (s *Distributor) runLeg(ctx context.Context, userID uuid.UUID, kind model.ViewKind, date time.Time, timezone string, event model.TideEvent) model.LegResult {
	leg := model.LegResult{ViewKind: kind}

	resolved, err := s.resolver.ResolveContext(ctx, model.ResolveParams{
		UserID:          userID,
		ViewKind:        kind,
		Date:            date,
		Timezone:        timezone,
		CreateIfMissing: true,
	})
	if err != nil {
		leg.Err = fmt.Errorf("failed to resolve %s tide: %w", kind, err)
		return leg
	}

	leg.TideID = resolved.Tide.ID
	leg.Created = resolved.Created

	if _, err := s.store.AppendEvent(ctx, resolved.Tide.ID, event); err != nil {
		leg.Err = fmt.Errorf("failed to append event to %s tide: %w", kind, err)
	}

	return leg
}

func validateFlowParams(params model.FlowParams) error {
	if params.UserID == uuid.Nil {
		return model.NewValidationError("user_id", "required")
	}
	if params.DurationMin <= 0 {
		return model.NewValidationError("duration_min", "must be positive")
	}
	switch params.Intensity {
	case model.IntensityGentle, model.IntensityModerate, model.IntensityStrong:
	default:
		return model.NewValidationError("intensity", fmt.Sprintf("unknown intensity %q", params.Intensity))
	}
	if params.Date.IsZero() {
		return model.NewValidationError("date", "required")
	}
	return nil
}

func validateEnergyParams(params model.EnergyParams) error {
	if params.UserID == uuid.Nil {
		return model.NewValidationError("user_id", "required")
	}
	if params.EnergyLevel < 1 || params.EnergyLevel > 10 {
		return model.NewValidationError("energy_level", "must be between 1 and 10")
	}
	if params.Date.IsZero() {
		return model.NewValidationError("date", "required")
	}
	return nil
}

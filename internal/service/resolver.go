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

// Resolver maps a (view-kind, date) pair to its tide, auto-vivifying the
// container on first access. Correctness under concurrent resolution
// comes from deterministic ids plus the store's conditional insert, not
// from locking.
type Resolver struct {
	store  *DualStore
	logger *logger.Logger
}

func NewResolver(store *DualStore, logger *logger.Logger) *Resolver {
	return &Resolver{
		store:  store,
		logger: logger,
	}
}

// ResolveContext finds or creates the tide owning the bucket around
// params.Date. Parent and child metadata is recomputed from boundaries
// on every call; nothing hierarchical is stored.
func (s *Resolver) ResolveContext(ctx context.Context, params model.ResolveParams) (model.ResolvedContext, error) {
	if err := validateResolveParams(params); err != nil {
		return model.ResolvedContext{}, err
	}

	loc, err := timeframe.Location(params.Timezone)
	if err != nil {
		return model.ResolvedContext{}, model.NewValidationError("timezone", fmt.Sprintf("unknown IANA zone %q", params.Timezone))
	}

	bucketStart, bucketEnd := timeframe.Bounds(params.ViewKind, params.Date, loc)
	id := timeframe.TideID(params.UserID, params.ViewKind, bucketStart)

	tide, err := s.store.FindTide(ctx, params.UserID, params.ViewKind, bucketStart)
	created := false
	switch {
	case err == nil:
	case errors.Is(err, model.ErrNotFound):
		if !params.CreateIfMissing {
			return model.ResolvedContext{}, model.ErrNotFound
		}
		fresh := model.Tide{
			ID:          id,
			UserID:      params.UserID,
			ViewKind:    params.ViewKind,
			BucketStart: bucketStart,
			BucketEnd:   bucketEnd,
			Status:      model.TideStatusActive,
			AutoCreated: true,
			Events:      []model.TideEvent{},
		}
		tide, created, _, err = s.store.UpsertTide(ctx, fresh)
		if err != nil {
			return model.ResolvedContext{}, fmt.Errorf("failed to create tide: %w", err)
		}
	default:
		return model.ResolvedContext{}, fmt.Errorf("failed to resolve tide: %w", err)
	}

	return s.withHierarchy(params, loc, tide, created), nil
}

// CreateProject explicitly creates a project tide. Project tides own no
// bucket and are never auto-created, so their ids are random rather than
// derived.
func (s *Resolver) CreateProject(ctx context.Context, userID uuid.UUID, name string) (model.Tide, error) {
	if userID == uuid.Nil {
		return model.Tide{}, model.NewValidationError("user_id", "required")
	}
	if name == "" {
		return model.Tide{}, model.NewValidationError("name", "required")
	}

	tide := model.Tide{
		ID:       uuid.New(),
		UserID:   userID,
		ViewKind: model.ViewKindProject,
		Name:     name,
		Status:   model.TideStatusActive,
		Events:   []model.TideEvent{},
	}

	saved, _, _, err := s.store.UpsertTide(ctx, tide)
	if err != nil {
		return model.Tide{}, fmt.Errorf("failed to create project tide: %w", err)
	}

	return saved, nil
}

// withHierarchy attaches the parent reference and child availability.
// The parent id is a pure function of the bucket, so navigation never
// needs a store roundtrip and never eagerly materializes the parent.
func (s *Resolver) withHierarchy(params model.ResolveParams, loc *time.Location, tide model.Tide, created bool) model.ResolvedContext {
	resolved := model.ResolvedContext{
		Tide:       tide,
		Created:    created,
		ChildKinds: timeframe.ChildKinds(params.ViewKind),
	}

	if parentKind := timeframe.ParentKind(params.ViewKind); parentKind != "" {
		parentStart, _ := timeframe.Bounds(parentKind, params.Date, loc)
		resolved.ParentKind = parentKind
		resolved.ParentID = timeframe.TideID(params.UserID, parentKind, parentStart)
	}

	return resolved
}

func validateResolveParams(params model.ResolveParams) error {
	if params.UserID == uuid.Nil {
		return model.NewValidationError("user_id", "required")
	}
	if !params.ViewKind.Valid() {
		return model.NewValidationError("view_kind", fmt.Sprintf("unknown view kind %q", params.ViewKind))
	}
	if params.ViewKind == model.ViewKindProject {
		return model.NewValidationError("view_kind", "project tides require an explicit id, not date-based resolution")
	}
	if params.Date.IsZero() {
		return model.NewValidationError("date", "required")
	}
	return nil
}

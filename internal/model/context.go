package model

import (
	"time"

	"github.com/google/uuid"
)

// ResolveParams contains parameters to resolve a view context.
type ResolveParams struct {
	UserID          uuid.UUID
	ViewKind        ViewKind
	Date            time.Time
	Timezone        string
	CreateIfMissing bool
}

// ResolvedContext is the result of resolving a (view-kind, date) pair to
// a tide. Parent and child relationships are computed from bucket
// boundaries on every resolution, never stored.
type ResolvedContext struct {
	Tide       Tide
	Created    bool
	ParentKind ViewKind  // zero for monthly and project tides
	ParentID   uuid.UUID // deterministic id of the parent bucket's tide
	ChildKinds []ViewKind
}

// FlowParams contains parameters to record a flow session.
type FlowParams struct {
	UserID      uuid.UUID
	Intensity   Intensity
	DurationMin int
	EnergyLevel int
	WorkContext string
	StartedAt   time.Time
	Date        time.Time
	Timezone    string
}

// EnergyParams contains parameters to record an energy check-in.
type EnergyParams struct {
	UserID      uuid.UUID
	EnergyLevel int
	WorkContext string
	Date        time.Time
	Timezone    string
}

// LegResult is the outcome of one distribution leg.
type LegResult struct {
	ViewKind ViewKind
	TideID   uuid.UUID
	Created  bool
	Err      error
}

// DistributionResult reports the per-view outcome of distributing one
// event. SessionID is the daily copy's event id.
type DistributionResult struct {
	SessionID uuid.UUID
	Legs      []LegResult
}

// Leg returns the result for the given view kind, if present.
func (r DistributionResult) Leg(kind ViewKind) (LegResult, bool) {
	for _, leg := range r.Legs {
		if leg.ViewKind == kind {
			return leg, true
		}
	}
	return LegResult{}, false
}

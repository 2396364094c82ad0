package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TideIndex defines persistence operations on the indexed backend.
// It is the low-latency side of the dual write: flat rows plus an
// aggregate table suitable for chart queries.
type TideIndex interface {
	Upsert(ctx context.Context, tide Tide) (Tide, bool, error)
	GetByKey(ctx context.Context, userID uuid.UUID, kind ViewKind, bucketStart time.Time) (Tide, error)
	GetByID(ctx context.Context, id uuid.UUID) (Tide, error)
	AppendEvent(ctx context.Context, tideID uuid.UUID, event TideEvent) error
	ListForCharts(ctx context.Context, userID uuid.UUID, kind ViewKind, limit int) ([]ChartPoint, error)
}

// TideDocuments defines persistence operations on the document backend,
// which holds the authoritative nested record per tide.
type TideDocuments interface {
	Save(ctx context.Context, tide Tide) error
	Load(ctx context.Context, id uuid.UUID) (Tide, error)
	AppendEvent(ctx context.Context, tideID uuid.UUID, event TideEvent) error
}

// Tide represents a stored container scoped to a time bucket or project.
type Tide struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	ViewKind    ViewKind    `json:"view_kind"`
	Name        string      `json:"name,omitempty"`
	BucketStart time.Time   `json:"bucket_start"`
	BucketEnd   time.Time   `json:"bucket_end"`
	Status      TideStatus  `json:"status"`
	AutoCreated bool        `json:"auto_created"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Events      []TideEvent `json:"events"`
}

// ViewKind enumerates the time-scale lenses tides are organized by.
type ViewKind string

const (
	// ViewKindDaily is a single calendar day.
	ViewKindDaily ViewKind = "daily"
	// ViewKindWeekly is an ISO week, Monday through Sunday.
	ViewKindWeekly ViewKind = "weekly"
	// ViewKindMonthly is a calendar month.
	ViewKindMonthly ViewKind = "monthly"
	// ViewKindProject has no bucket and is never auto-created.
	ViewKindProject ViewKind = "project"
)

// Bucketed reports whether the kind owns a date bucket.
func (k ViewKind) Bucketed() bool {
	switch k {
	case ViewKindDaily, ViewKindWeekly, ViewKindMonthly:
		return true
	}
	return false
}

// Valid reports whether the kind is one of the known view kinds.
func (k ViewKind) Valid() bool {
	return k.Bucketed() || k == ViewKindProject
}

// DistributionKinds is the fan-out order for recorded events. Daily comes
// first: its copy of the event is the canonical one.
var DistributionKinds = []ViewKind{ViewKindDaily, ViewKindWeekly, ViewKindMonthly}

// TideStatus enumerates container lifecycle states. This core never
// transitions a tide out of active on its own.
type TideStatus string

const (
	TideStatusActive    TideStatus = "active"
	TideStatusPaused    TideStatus = "paused"
	TideStatusCompleted TideStatus = "completed"
)

// EventKind enumerates recorded event kinds.
type EventKind string

const (
	// EventKindFlow is a recorded flow work session.
	EventKindFlow EventKind = "flow"
	// EventKindEnergy is an energy level check-in.
	EventKindEnergy EventKind = "energy"
)

// Intensity grades a flow session.
type Intensity string

const (
	IntensityGentle   Intensity = "gentle"
	IntensityModerate Intensity = "moderate"
	IntensityStrong   Intensity = "strong"
)

// TideEvent is a single recorded flow session or energy update. The same
// event, id included, is written into every tide it is distributed to.
type TideEvent struct {
	ID          uuid.UUID `json:"id"`
	Kind        EventKind `json:"kind"`
	Intensity   Intensity `json:"intensity,omitempty"`
	DurationMin int       `json:"duration_min,omitempty"`
	EnergyLevel int       `json:"energy_level,omitempty"`
	WorkContext string    `json:"work_context,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// ChartPoint is one aggregated row of a chart series, computed entirely
// on the indexed backend.
type ChartPoint struct {
	TideID       uuid.UUID
	ViewKind     ViewKind
	BucketStart  time.Time
	BucketEnd    time.Time
	FlowCount    int
	TotalMinutes int
	AvgEnergy    float64
}

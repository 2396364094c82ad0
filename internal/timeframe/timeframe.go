package timeframe

import (
	"time"

	"github.com/google/uuid"

	"github.com/tideflow/tideflow-server/internal/model"
)

// DateFormat is the canonical wire and key format for bucket dates.
const DateFormat = "2006-01-02"

// nsTide namespaces deterministic tide ids. Changing it would orphan
// every existing container, so it is fixed forever.
var nsTide = uuid.MustParse("9f2c1b34-7a6e-4d18-9c55-0e8b2f4a61d3")

// DateAtLocation truncates a moment to midnight of its calendar day in
// the given location.
func DateAtLocation(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	localized := value.In(location)
	year, month, day := localized.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

// Bounds returns the inclusive (bucketStart, bucketEnd) date range owned
// by a bucketed view kind for the given date. Both bounds are midnights
// in the given location; bucketEnd is the bucket's last day. Bounds is
// total for every valid date and location.
func Bounds(kind model.ViewKind, date time.Time, location *time.Location) (time.Time, time.Time) {
	day := DateAtLocation(date, location)
	switch kind {
	case model.ViewKindWeekly:
		// ISO week: Monday through Sunday.
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 6)
	case model.ViewKindMonthly:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return start, start.AddDate(0, 1, -1)
	default:
		return day, day
	}
}

// TideID derives the stable container id for one (user, view-kind,
// bucket) key. The id is a pure function of the key, so concurrent
// find-or-create attempts for the same bucket collapse onto one row
// without any locking.
func TideID(userID uuid.UUID, kind model.ViewKind, bucketStart time.Time) uuid.UUID {
	key := userID.String() + "/" + string(kind) + "/" + bucketStart.Format(DateFormat)
	return uuid.NewSHA1(nsTide, []byte(key))
}

// ParentKind returns the next coarser bucketed view kind, or the zero
// value when the kind has no parent.
func ParentKind(kind model.ViewKind) model.ViewKind {
	switch kind {
	case model.ViewKindDaily:
		return model.ViewKindWeekly
	case model.ViewKindWeekly:
		return model.ViewKindMonthly
	}
	return ""
}

// ChildKinds returns the finer view kinds available under the given
// kind. Availability only: children are resolved lazily, never eagerly
// materialized.
func ChildKinds(kind model.ViewKind) []model.ViewKind {
	switch kind {
	case model.ViewKindMonthly:
		return []model.ViewKind{model.ViewKindWeekly}
	case model.ViewKindWeekly:
		return []model.ViewKind{model.ViewKindDaily}
	}
	return nil
}

// Location resolves an IANA timezone name, defaulting to UTC for the
// empty string.
func Location(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

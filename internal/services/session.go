package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-livestock-backend/internal/domain"
	"github.com/tbourn/go-livestock-backend/internal/repo"
)

// ReplacePolicy decides which earlier sessions of a category an incoming
// write supersedes.
type ReplacePolicy int

const (
	// ReplaceToday supersedes sessions stamped on the current calendar day.
	ReplaceToday ReplacePolicy = iota + 1
	// ReplaceSuppliedDate supersedes sessions stamped on the caller's date;
	// the new session is stamped on that date too.
	ReplaceSuppliedDate
	// ReplaceHeatDate supersedes the session that recorded the same heat
	// date; distinct heat dates accrete.
	ReplaceHeatDate
	// ReplaceTodayWithCompanions is ReplaceToday plus companion rows fanned
	// out from a positive pregnancy detection.
	ReplaceTodayWithCompanions
)

var policies = map[domain.CategoryKind]ReplacePolicy{
	domain.KindBasic:              ReplaceToday,
	domain.KindBirth:              ReplaceToday,
	domain.KindBreeding:           ReplaceSuppliedDate,
	domain.KindMilk:               ReplaceSuppliedDate,
	domain.KindHealth:             ReplaceSuppliedDate,
	domain.KindHeat:               ReplaceHeatDate,
	domain.KindPregnancyDetection: ReplaceTodayWithCompanions,
	domain.KindDelivery:           ReplaceTodayWithCompanions,
}

// PolicyFor returns the replace policy of a category kind.
func PolicyFor(kind domain.CategoryKind) (ReplacePolicy, bool) {
	if !kind.Valid() {
		return 0, false
	}
	p, ok := policies[kind]
	return p, ok
}

func (p ReplacePolicy) String() string {
	switch p {
	case ReplaceToday:
		return "today"
	case ReplaceSuppliedDate:
		return "supplied_date"
	case ReplaceHeatDate:
		return "heat_date"
	case ReplaceTodayWithCompanions:
		return "today_with_companions"
	}
	return "unknown"
}

// RequiresDate reports whether writes must carry a date.
func (p ReplacePolicy) RequiresDate() bool { return p == ReplaceSuppliedDate }

// Write modes reported to callers and metrics.
const (
	ModeAppend  = "append"
	ModeReplace = "replace"
)

// stamp returns the session timestamp for a write under policy p. For
// supplied-date policies the session lands on that calendar day at the
// current clock time.
func stamp(p ReplacePolicy, now time.Time, supplied time.Time, loc *time.Location) time.Time {
	if p != ReplaceSuppliedDate {
		return now.UTC()
	}
	local := now.In(loc)
	return time.Date(supplied.Year(), supplied.Month(), supplied.Day(),
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), loc).UTC()
}

// dayBounds returns the UTC instants bounding the calendar day of at in loc.
func dayBounds(at time.Time, loc *time.Location) (time.Time, time.Time) {
	local := at.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// resolveSessions returns the sessions an incoming write to category cat at
// instant at supersedes. heatDate is the incoming heat-date answer ("" when
// absent). It must run inside the write transaction after LockInstance; the
// returned sessions' rows are locked.
func resolveSessions(ctx context.Context, tx *gorm.DB, key domain.InstanceKey, cat *domain.Category,
	p ReplacePolicy, at time.Time, heatDate string, loc *time.Location) ([]string, error) {
	switch p {
	case ReplaceToday, ReplaceTodayWithCompanions, ReplaceSuppliedDate:
		from, to := dayBounds(at, loc)
		return repo.SessionIDsInRange(ctx, tx, key, cat.ID, from, to)

	case ReplaceHeatDate:
		same, err := repo.SessionIDsAt(ctx, tx, key, cat.ID, at)
		if err != nil || len(same) > 0 {
			return same, err
		}
		if heatDate == "" {
			return nil, nil
		}
		prev, err := repo.LatestTaggedAnswer(ctx, tx, key, domain.TagHeatDate)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if sameDay(prev.Answer, heatDate) {
			return []string{prev.SessionID}, nil
		}
		return nil, nil
	}
	return nil, nil
}

package sessiondomain

import (
	"strings"
	"time"
)

// Founders is the governance group: the veto-capable voters and the scribe
// rotation, in a fixed order anchored at a reference Monday.
type Founders struct {
	IDs             []PlayerID
	ReferenceMonday time.Time
	Location        *time.Location
}

// NewFounders validates and builds a founders configuration.
func NewFounders(ids []PlayerID, referenceMonday time.Time, loc *time.Location) (Founders, error) {
	if len(ids) == 0 {
		return Founders{}, invalid("founders", "at least one founder is required")
	}
	seen := make(map[PlayerID]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return Founders{}, invalid("founders", "founder id must not be empty")
		}
		if strings.Contains(string(id), TeamKeySeparator) {
			return Founders{}, invalid("founders", "founder id %q must not contain %q", id, TeamKeySeparator)
		}
		if _, dup := seen[id]; dup {
			return Founders{}, invalid("founders", "duplicate founder %q", id)
		}
		seen[id] = struct{}{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return Founders{
		IDs:             append([]PlayerID(nil), ids...),
		ReferenceMonday: referenceMonday,
		Location:        loc,
	}, nil
}

// IsFounder reports whether id belongs to the group.
func (f Founders) IsFounder(id PlayerID) bool {
	for _, fid := range f.IDs {
		if fid == id {
			return true
		}
	}
	return false
}

// TierOf returns the governance tier the configuration assigns to id.
func (f Founders) TierOf(id PlayerID) Tier {
	if f.IsFounder(id) {
		return TierFounder
	}
	return TierOrdinary
}

// CurrentScribe returns founders[weeks mod n], where weeks is the number of
// whole weeks between the reference Monday and today's calendar date in the
// club time zone. Dates before the reference wrap backwards through the list.
func CurrentScribe(today time.Time, f Founders) (PlayerID, error) {
	n := len(f.IDs)
	if n == 0 {
		return "", invalid("founders", "at least one founder is required")
	}

	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}

	days := civilDays(today.In(loc)) - civilDays(f.ReferenceMonday.In(loc))
	weeks := floorDiv(days, 7)
	idx := ((weeks % n) + n) % n
	return f.IDs[idx], nil
}

// civilDays counts calendar days since the Unix epoch, ignoring clock time and
// DST so that every week is exactly seven days long.
func civilDays(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// DateOf truncates t to its calendar date in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

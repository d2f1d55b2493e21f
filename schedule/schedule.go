// Package schedule translates a doctor's recurring availability entries into
// concrete bookable slots on a given civil date.
//
// An availability entry is a string "HH:MM-HH:MM" (24h) describing one
// intra-day interval; the interval start is the bookable slot. No
// sub-slotting: one entry yields one slot per day.
package schedule

import (
	"sort"
	"time"

	"github.com/stephane-vergier/smart-clinic/model"
)

const minutesPerDay = 24 * 60

// Range is one availability entry reduced to minutes from midnight.
type Range struct {
	From int
	To   int
}

// ParseRange parses an "HH:MM-HH:MM" entry. A start of 24:00 or later, an
// inverted or empty interval, or any syntax deviation reports ok=false;
// callers skip malformed entries rather than failing the doctor record.
func ParseRange(entry string) (r Range, ok bool) {
	if len(entry) != 11 || entry[5] != '-' {
		return Range{}, false
	}
	from, ok := parseClock(entry[:5])
	if !ok {
		return Range{}, false
	}
	to, ok := parseClock(entry[6:])
	if !ok {
		return Range{}, false
	}
	if from >= minutesPerDay || from >= to || to > minutesPerDay {
		return Range{}, false
	}
	return Range{From: from, To: to}, true
}

// parseClock converts "HH:MM" to minutes from midnight.
func parseClock(s string) (int, bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, false
	}
	h, ok := atoi2(s[:2])
	if !ok {
		return 0, false
	}
	m, ok := atoi2(s[3:])
	if !ok || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func atoi2(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

// slotMinutes reduces AvailableTimes to deduplicated, ascending slot starts in
// minutes from midnight. Malformed entries are dropped.
func slotMinutes(doctor *model.Doctor) []int {
	seen := make(map[int]struct{}, len(doctor.AvailableTimes))
	starts := make([]int, 0, len(doctor.AvailableTimes))
	for _, entry := range doctor.AvailableTimes {
		r, ok := ParseRange(entry)
		if !ok {
			continue
		}
		if _, dup := seen[r.From]; dup {
			continue
		}
		seen[r.From] = struct{}{}
		starts = append(starts, r.From)
	}
	sort.Ints(starts)
	return starts
}

// SlotsOn returns the doctor's slots on date as absolute timestamps in loc,
// ascending, one per availability entry, duplicates removed.
func SlotsOn(doctor *model.Doctor, date time.Time, loc *time.Location) []time.Time {
	y, m, d := date.Date()
	starts := slotMinutes(doctor)
	slots := make([]time.Time, 0, len(starts))
	for _, start := range starts {
		slots = append(slots, time.Date(y, m, d, start/60, start%60, 0, 0, loc))
	}
	return slots
}

// IsOfferedSlot reports whether the intra-day time of at (hour:minute) equals
// the start of one of the doctor's availability entries.
func IsOfferedSlot(doctor *model.Doctor, at time.Time) bool {
	want := at.Hour()*60 + at.Minute()
	for _, start := range slotMinutes(doctor) {
		if start == want {
			return true
		}
	}
	return false
}

// AvailableSlotsOn returns SlotsOn minus every slot whose timestamp appears
// in booked (the times of the doctor's non-cancelled appointments).
func AvailableSlotsOn(doctor *model.Doctor, date time.Time, booked []time.Time, loc *time.Location) []time.Time {
	taken := make(map[int64]struct{}, len(booked))
	for _, b := range booked {
		taken[b.Unix()] = struct{}{}
	}

	free := make([]time.Time, 0)
	for _, slot := range SlotsOn(doctor, date, loc) {
		if _, ok := taken[slot.Unix()]; ok {
			continue
		}
		free = append(free, slot)
	}
	return free
}

// MatchesPeriod reports whether at least one availability entry starts in the
// requested bucket: "am" for start hour < 12, "pm" otherwise. An empty period
// is unconstrained.
func MatchesPeriod(doctor *model.Doctor, period string) bool {
	if period == "" {
		return true
	}
	wantAM := period == "am" || period == "AM"
	for _, start := range slotMinutes(doctor) {
		isAM := start < 12*60
		if isAM == wantAM {
			return true
		}
	}
	return false
}

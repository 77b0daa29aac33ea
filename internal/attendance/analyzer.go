package attendance

import (
	"math"
	"time"
)

// Analyzer derives dashboard attendance figures from raw check-in
// records. All methods are pure functions of their inputs and the
// injected clock: no I/O, no shared state, value-equal outputs for
// identical inputs.
type Analyzer struct {
	nowFunc func() time.Time
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		nowFunc: time.Now,
	}
}

// NewAnalyzerWithNow pins "today" to the given clock,
// for tests and reproducible recomputation.
func NewAnalyzerWithNow(nowFunc func() time.Time) *Analyzer {
	return &Analyzer{
		nowFunc: nowFunc,
	}
}

// StatusCounts holds per-status day counts (or integer percentages).
type StatusCounts struct {
	Present int `json:"present"`
	Late    int `json:"late"`
	Absent  int `json:"absent"`
}

func (c *StatusCounts) bump(s Status) {
	switch s {
	case StatusPresent:
		c.Present++
	case StatusLate:
		c.Late++
	default:
		c.Absent++
	}
}

func (c StatusCounts) total() int {
	return c.Present + c.Late + c.Absent
}

// DayRange is an inclusive span of calendar days.
type DayRange struct {
	Start DayKey `json:"start"`
	End   DayKey `json:"end"`
}

// Stats holds windowed attendance figures over the last N days.
type Stats struct {
	Counts      StatusCounts `json:"counts"`
	Percentages StatusCounts `json:"percentages"`
	TotalDays   int          `json:"totalDays"`
	Range       *DayRange    `json:"range"`
}

// Totals holds lifetime attendance figures, enrollment through today.
type Totals struct {
	Counts    StatusCounts `json:"counts"`
	TotalDays int          `json:"totalDays"`
	Range     *DayRange    `json:"range"`
}

// BuildMap merges the sparse records into one map entry per calendar
// day. Records with an unusable timestamp are skipped, later records
// for the same day overwrite earlier ones. When the enrollment start is
// known, every day from it through today with no recorded entry is
// filled in as absent; without that boundary no absence can be inferred
// and only the recorded days are returned. Days after today, and days
// before enrollment when enrollment is known, never make it in.
func (a *Analyzer) BuildMap(records []Record, enrollmentStart time.Time) AttendanceMap {
	today, haveToday := DayKeyOf(a.nowFunc())
	start, haveStart := DayKeyOf(enrollmentStart)

	m := make(AttendanceMap)
	for _, rec := range records {
		day, ok := DayKeyOf(rec.Timestamp)
		if !ok {
			continue
		}
		if haveToday && day > today {
			continue
		}
		if haveStart && day < start {
			continue
		}
		m[day] = DayRecord{
			Status: NormalizeStatus(rec.Status),
			Notes:  rec.Notes,
		}
	}

	if !haveStart || !haveToday {
		return m
	}

	for day := start; day != "" && day <= today; day = day.Next() {
		if _, exists := m[day]; !exists {
			m[day] = DayRecord{Status: StatusAbsent}
		}
	}

	return m
}

// Stats walks backward from today for up to lookbackDays consecutive
// days, never crossing before the enrollment start. A day with no map
// entry defaults to absent only when the enrollment boundary is known;
// without a boundary an undocumented day proves nothing and stays out
// of the denominator. Percentages are rounded to the nearest integer.
func (a *Analyzer) Stats(m AttendanceMap, enrollmentStart time.Time, lookbackDays int) Stats {
	today, haveToday := DayKeyOf(a.nowFunc())
	if !haveToday || lookbackDays <= 0 {
		return Stats{}
	}
	start, haveStart := DayKeyOf(enrollmentStart)

	var (
		counts         StatusCounts
		oldest, newest DayKey
	)
	day := today
	for i := 0; i < lookbackDays && day != ""; i++ {
		if haveStart && day < start {
			break
		}
		rec, exists := m[day]
		if exists || haveStart {
			if exists {
				counts.bump(rec.Status)
			} else {
				counts.bump(StatusAbsent)
			}
			if newest == "" {
				newest = day
			}
			oldest = day
		}
		day = day.Prev()
	}

	totalDays := counts.total()
	if totalDays == 0 {
		return Stats{}
	}

	return Stats{
		Counts: counts,
		Percentages: StatusCounts{
			Present: roundedPercentage(counts.Present, totalDays),
			Late:    roundedPercentage(counts.Late, totalDays),
			Absent:  roundedPercentage(counts.Absent, totalDays),
		},
		TotalDays: totalDays,
		Range: &DayRange{
			Start: oldest,
			End:   newest,
		},
	}
}

// Totals sums per-status counts over every calendar day from the
// enrollment start (or, when that is unknown, the earliest recorded
// day) through today. Missing days count as absent. The range is nil
// only when no boundary could be resolved at all.
func (a *Analyzer) Totals(m AttendanceMap, enrollmentStart time.Time) Totals {
	today, start, ok := a.resolveBounds(m, enrollmentStart)
	if !ok {
		return Totals{}
	}

	var counts StatusCounts
	for day := start; day != "" && day <= today; day = day.Next() {
		if rec, exists := m[day]; exists {
			counts.bump(rec.Status)
		} else {
			counts.bump(StatusAbsent)
		}
	}

	return Totals{
		Counts:    counts,
		TotalDays: counts.total(),
		Range: &DayRange{
			Start: start,
			End:   today,
		},
	}
}

// MaxStreak returns the longest run of consecutive present days between
// the resolved boundary and today. Late does not extend a streak;
// neither does anything else but present.
func (a *Analyzer) MaxStreak(m AttendanceMap, enrollmentStart time.Time) int {
	today, start, ok := a.resolveBounds(m, enrollmentStart)
	if !ok {
		return 0
	}

	var maxStreak, current int
	for day := start; day != "" && day <= today; day = day.Next() {
		if rec, exists := m[day]; exists && rec.Status == StatusPresent {
			current++
			if current > maxStreak {
				maxStreak = current
			}
		} else {
			current = 0
		}
	}

	return maxStreak
}

// resolveBounds applies the shared boundary rule of Totals and
// MaxStreak: enrollment start when valid, earliest recorded day as the
// fallback. Reports ok=false when no boundary is resolvable or the
// boundary lies in the future.
func (a *Analyzer) resolveBounds(m AttendanceMap, enrollmentStart time.Time) (today, start DayKey, ok bool) {
	today, haveToday := DayKeyOf(a.nowFunc())
	if !haveToday {
		return "", "", false
	}

	start, haveStart := DayKeyOf(enrollmentStart)
	if !haveStart {
		for day := range m {
			if start == "" || day < start {
				start = day
			}
		}
		haveStart = start != ""
	}

	if !haveStart || start > today {
		return "", "", false
	}
	return today, start, true
}

func roundedPercentage(count, total int) int {
	return int(math.Round(float64(count) / float64(total) * 100))
}

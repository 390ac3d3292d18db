package timeline

import (
	"fmt"
	"time"
)

// Window is an inclusive range of calendar days. Both ends are midnight UTC.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Date truncates t to its calendar day, keeping the wall-clock date.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WindowFor returns the ISO week (Monday to Sunday) or calendar month containing anchor.
func WindowFor(mode Mode, anchor time.Time) Window {
	anchor = Date(anchor)
	if mode == ModeMonth {
		start := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Window{Start: start, End: start.AddDate(0, 1, -1)}
	}
	weekday := int(anchor.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := anchor.AddDate(0, 0, 1-weekday)
	return Window{Start: start, End: start.AddDate(0, 0, 6)}
}

// Shift moves anchor by delta weeks or months. Month shifts clamp the day so
// that the target month is never skipped.
func Shift(mode Mode, anchor time.Time, delta int) time.Time {
	anchor = Date(anchor)
	if mode != ModeMonth {
		return anchor.AddDate(0, 0, 7*delta)
	}
	first := time.Date(anchor.Year(), anchor.Month()+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	d := anchor.Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// HeaderLabel renders the window caption, e.g. "Týden 9 (Únor / Březen), 2026" or "Říjen 2026".
func HeaderLabel(mode Mode, anchor time.Time) string {
	w := WindowFor(mode, anchor)
	if mode == ModeMonth {
		return fmt.Sprintf("%s %d", MonthName(w.Start.Month()), w.Start.Year())
	}
	year, week := w.Start.ISOWeek()
	months := MonthName(w.Start.Month())
	if w.End.Month() != w.Start.Month() {
		months += " / " + MonthName(w.End.Month())
	}
	return fmt.Sprintf("Týden %d (%s), %d", week, months, year)
}

func (w Window) Contains(day time.Time) bool {
	day = Date(day)
	return !day.Before(w.Start) && !day.After(w.End)
}

// Overlaps reports whether [start, end] intersects the window: either end
// falls inside it, or the range spans it entirely.
func (w Window) Overlaps(start, end time.Time) bool {
	start, end = Date(start), Date(end)
	if w.Contains(start) || w.Contains(end) {
		return true
	}
	return start.Before(w.Start) && end.After(w.End)
}

func (w Window) Days() []time.Time {
	days := make([]time.Time, 0, 31)
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

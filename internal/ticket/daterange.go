package ticket

import (
	"time"
)

// DateFilter narrows the history to a calendar year, month or day. A finer field requires
// every coarser one.
type DateFilter struct {
	Year  *int
	Month *int
	Day   *int
}

func (f DateFilter) IsZero() bool {
	return f.Year == nil && f.Month == nil && f.Day == nil
}

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// DateWindow converts a calendar filter into the instant range it covers in loc.
// It returns a nil window when the filter is empty.
func DateWindow(f DateFilter, loc *time.Location) (*Window, error) {
	if f.IsZero() {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if f.Year == nil {
		return nil, newInvalidDateError("month and day filters require a year")
	}
	if f.Day != nil && f.Month == nil {
		return nil, newInvalidDateError("day filter requires a month")
	}

	year := *f.Year
	if year < 1 || year > 9999 {
		return nil, newInvalidDateError("year must be between 1 and 9999")
	}

	if f.Month == nil {
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		return &Window{Start: start, End: start.AddDate(1, 0, 0)}, nil
	}

	month := *f.Month
	if month < 1 || month > 12 {
		return nil, newInvalidDateError("month must be between 1 and 12")
	}

	if f.Day == nil {
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
		return &Window{Start: start, End: start.AddDate(0, 1, 0)}, nil
	}

	day := *f.Day
	start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if day < 1 || start.Day() != day || start.Month() != time.Month(month) {
		return nil, newInvalidDateError("day is not valid for the given month")
	}
	return &Window{Start: start, End: start.AddDate(0, 0, 1)}, nil
}

// Package recurrence decides which recurring tasks occur on a given day.
// Occurrences are synthesized copies of the task and are never persisted.
package recurrence

import (
	"strings"
	"time"

	"vault-planning/internal/models"
)

// Strategies accepted in a periodicity rule.
const (
	Day   = "day"
	Week  = "week"
	Month = "month"
	Year  = "year"
)

// End rules accepted in a periodicity rule.
const (
	EndNever = "never"
	EndDate  = "date"
	EndCount = "count"
)

// startLayouts are tried in order when reading a rule's start date.
var startLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// Expand returns the occurrence of task on today (YYYY-MM-DD), if any.
//
// A concrete scheduled_start on today always wins and is returned as is.
// Otherwise the periodicity rule is evaluated; a match yields a copy of the
// task whose scheduled_start is today at the rule's start time of day.
func Expand(task models.Task, today string) (models.Task, bool) {
	if task.ScheduledStart != nil && onDay(*task.ScheduledStart, today) {
		return task, true
	}
	if task.Periodicity == nil {
		return models.Task{}, false
	}
	current, err := time.Parse(time.DateOnly, today)
	if err != nil {
		return models.Task{}, false
	}
	start, clock, ok := parseStart(task.Periodicity.StartDate)
	if !ok || !Matches(*task.Periodicity, start, current) {
		return models.Task{}, false
	}

	occurrence := task
	scheduled := today + "T" + clock
	occurrence.ScheduledStart = &scheduled
	return occurrence, true
}

// Matches reports whether current (a UTC midnight) is an occurrence of rule
// starting on start (also a UTC midnight).
func Matches(rule models.Periodicity, start, current time.Time) bool {
	if current.Before(start) {
		return false
	}
	if rule.EndRule == EndDate && rule.EndDate != nil {
		if end, err := time.Parse(time.DateOnly, dateOf(*rule.EndDate)); err == nil && current.After(end) {
			return false
		}
	}

	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}

	var elapsed int
	switch rule.Strategy {
	case Day:
		elapsed = daysBetween(start, current)
	case Week:
		days := daysBetween(start, current)
		if days%7 != 0 {
			return false
		}
		elapsed = days / 7
	case Month:
		if current.Day() != start.Day() {
			return false
		}
		elapsed = (current.Year()-start.Year())*12 + int(current.Month()) - int(start.Month())
	case Year:
		if current.Day() != start.Day() || current.Month() != start.Month() {
			return false
		}
		elapsed = current.Year() - start.Year()
	default:
		return false
	}
	if elapsed%interval != 0 {
		return false
	}

	if rule.EndRule == EndCount && rule.EndCount != nil && *rule.EndCount > 0 {
		ordinal := elapsed/interval + 1
		if ordinal > *rule.EndCount {
			return false
		}
	}
	return true
}

// parseStart reads a rule's start date and the time of day written with it.
func parseStart(value string) (time.Time, string, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range startLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return day, t.Format("15:04:05"), true
	}
	return time.Time{}, "", false
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// onDay reports whether a written timestamp falls on the calendar day today,
// as written (no timezone conversion).
func onDay(ts, today string) bool {
	ts = strings.TrimSpace(ts)
	if len(ts) < len(time.DateOnly) || ts[:len(time.DateOnly)] != today {
		return false
	}
	rest := ts[len(time.DateOnly):]
	return rest == "" || rest[0] == 'T' || rest[0] == ' '
}

func dateOf(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > len(time.DateOnly) {
		return value[:len(time.DateOnly)]
	}
	return value
}

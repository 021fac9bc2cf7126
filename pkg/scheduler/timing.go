// Package scheduler turns discharge orders into CallScheduleItems and
// provides the query/update API the worker pool and HTTP surface use.
package scheduler

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	hoursAfterDischargeRe = regexp.MustCompile(`^(\d+)_hours_after_discharge$`)
	dailyForRe            = regexp.MustCompile(`^daily_for_(\d+)_days_starting_(\d+)_hours_after_discharge$`)
	dayBeforeDateRe       = regexp.MustCompile(`^day_before_date:(\d{4}-\d{2}-\d{2})$`)
)

// ParseTimingSpec expands a timing-spec string into the list of UTC
// instants calls should fire at, relative to dischargeTime.
//
// Supported grammars:
//   - "N_hours_after_discharge"
//   - "daily_for_N_days_starting_M_hours_after_discharge"
//   - "day_before_date:YYYY-MM-DD" (14:00 local the day before)
//   - "within_24_hours" (+18h)
//   - anything else falls back to +24h with a warning
func ParseTimingSpec(timing string, dischargeTime time.Time) []time.Time {
	if m := hoursAfterDischargeRe.FindStringSubmatch(timing); m != nil {
		hours, _ := strconv.Atoi(m[1])
		return []time.Time{dischargeTime.Add(time.Duration(hours) * time.Hour)}
	}

	if m := dailyForRe.FindStringSubmatch(timing); m != nil {
		numDays, _ := strconv.Atoi(m[1])
		startHours, _ := strconv.Atoi(m[2])
		start := dischargeTime.Add(time.Duration(startHours) * time.Hour)
		times := make([]time.Time, 0, numDays)
		for day := 0; day < numDays; day++ {
			times = append(times, start.AddDate(0, 0, day))
		}
		return times
	}

	if m := dayBeforeDateRe.FindStringSubmatch(timing); m != nil {
		targetDate, err := time.ParseInLocation("2006-01-02", m[1], time.Local)
		if err == nil {
			dayBefore := targetDate.AddDate(0, 0, -1)
			reminder := time.Date(dayBefore.Year(), dayBefore.Month(), dayBefore.Day(), 14, 0, 0, 0, time.Local)
			return []time.Time{reminder}
		}
		slog.Warn("unparseable day_before_date, falling back", "timing", timing, "error", err)
	}

	if timing == "within_24_hours" {
		return []time.Time{dischargeTime.Add(18 * time.Hour)}
	}

	slog.Warn("unknown timing specification, using default of 24 hours", "timing", timing)
	return []time.Time{dischargeTime.Add(24 * time.Hour)}
}

// fillPromptTemplate substitutes the "{patient_name}" / "{discharge_order}"
// placeholders order templates use, mirroring the original's
// str.format(patient_name=..., discharge_order=...) call.
func fillPromptTemplate(tmpl, patientName, dischargeOrder string) string {
	r := strings.NewReplacer(
		"{patient_name}", patientName,
		"{discharge_order}", dischargeOrder,
	)
	return r.Replace(tmpl)
}

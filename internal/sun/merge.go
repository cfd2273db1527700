package sun

import (
	"time"
)

// MergeWindows compresses ordered hourly points into contiguous sun windows of
// at least minDurationMinutes. A point joins a run when its condition is sunny
// or partial; a run that ever contains a sunny point is labeled sunny,
// otherwise partial. Runs shorter than the minimum are dropped silently.
// Single linear pass; empty input yields an empty list.
func MergeWindows(points []ExposurePoint, minDurationMinutes int) []SunWindow {
	var windows []SunWindow
	runStart := -1
	sawSunny := false

	for i := range points {
		if points[i].Condition.SunAvailable() {
			if runStart < 0 {
				runStart = i
				sawSunny = false
			}
			// The flag only ever upgrades within a run.
			if points[i].Condition == ConditionSunny {
				sawSunny = true
			}
			continue
		}

		if runStart >= 0 {
			// The closing point's own timestamp is the window end, so the
			// duration reflects the true sampling interval.
			w := buildWindow(points[runStart], points[i].TimeUTC, sawSunny)
			if w.DurationMinutes >= minDurationMinutes {
				windows = append(windows, w)
			}
		}
		runStart = -1
	}

	if runStart >= 0 {
		// Scan ended while still sun-available: synthesize the end boundary
		// one sampling interval past the last member.
		runLength := len(points) - runStart
		end := points[runStart].TimeUTC.Add(time.Duration(runLength) * time.Hour)
		w := buildWindow(points[runStart], end, sawSunny)
		if w.DurationMinutes >= minDurationMinutes {
			windows = append(windows, w)
		}
	}

	return windows
}

func buildWindow(start ExposurePoint, endUTC time.Time, sawSunny bool) SunWindow {
	condition := ConditionPartial
	if sawSunny {
		condition = ConditionSunny
	}

	endLocal := endUTC
	if loc, err := time.LoadLocation(start.Timezone); err == nil && start.Timezone != "" {
		endLocal = endUTC.In(loc)
	}

	return SunWindow{
		StartUTC:        start.TimeUTC,
		EndUTC:          endUTC,
		StartLocal:      start.TimeLocal,
		EndLocal:        endLocal,
		DurationMinutes: int(endUTC.Sub(start.TimeUTC).Minutes()),
		Condition:       condition,
	}
}

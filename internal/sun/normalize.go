package sun

import (
	"sort"
)

// NormalizeHourly sorts points ascending by UTC timestamp and drops duplicate
// timestamps, keeping the first occurrence. Outlook hourly sequences must hold
// this shape before window merging.
func NormalizeHourly(points []ExposurePoint) []ExposurePoint {
	if len(points) == 0 {
		return points
	}

	sorted := make([]ExposurePoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimeUTC.Before(sorted[j].TimeUTC)
	})

	out := sorted[:1]
	for _, p := range sorted[1:] {
		if p.TimeUTC.Equal(out[len(out)-1].TimeUTC) {
			continue
		}
		out = append(out, p)
	}
	return out
}

package sun

import (
	"math"
	"strings"
)

const (
	heavyCloudThreshold   = 90.0
	sunnyScoreThreshold   = 55.0
	partialScoreThreshold = 20.0
	rawSunnyCloudCeiling  = 75.0
)

// ClassifyInput carries one sample's known facts. CloudCoverPct and
// SunElevationDeg are nil when the source did not report them.
type ClassifyInput struct {
	Score           float64
	CloudCoverPct   *float64
	SunElevationDeg *float64
	RawCondition    string
}

// Classify maps a sample to its condition bucket. Rules are evaluated in
// order, first match wins:
//
//  1. sun below the horizon is always shaded
//  2. heavy overcast (>= 90%) is always shaded
//  3. score >= 55 is sunny
//  4. score >= 20 is partial
//  5. a raw provider label may rescue a low score: "sunny" counts only when
//     cloud cover (if known) stays under 75%, "partial" counts as partial
//  6. everything else is shaded
func Classify(in ClassifyInput) Condition {
	if in.SunElevationDeg != nil && *in.SunElevationDeg <= 0 {
		return ConditionShaded
	}
	if in.CloudCoverPct != nil && *in.CloudCoverPct >= heavyCloudThreshold {
		return ConditionShaded
	}
	if in.Score >= sunnyScoreThreshold {
		return ConditionSunny
	}
	if in.Score >= partialScoreThreshold {
		return ConditionPartial
	}

	switch strings.ToLower(strings.TrimSpace(in.RawCondition)) {
	case "sunny":
		if in.CloudCoverPct == nil || *in.CloudCoverPct < rawSunnyCloudCeiling {
			return ConditionSunny
		}
	case "partial":
		return ConditionPartial
	}

	return ConditionShaded
}

// DeriveScore turns a geometric sunny fraction and cloud cover into the 0-100
// exposure score used when no provider-supplied score exists. Idempotent and
// side-effect free; both live scoring and historical reclassification go
// through here.
func DeriveScore(sunnyFraction, cloudCoverPct, sunElevationDeg float64) float64 {
	if sunElevationDeg <= 0 {
		return 0
	}
	cloud := clamp(cloudCoverPct, 0, 100)
	score := 100.0 * sunnyFraction * (1.0 - cloud/100.0)
	return round1(clamp(score, 0, 100))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

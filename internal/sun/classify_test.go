package sun

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   ClassifyInput
		want Condition
	}{
		{
			name: "sun below horizon is shaded regardless of score",
			in:   ClassifyInput{Score: 95, SunElevationDeg: f(-2)},
			want: ConditionShaded,
		},
		{
			name: "sun exactly at horizon is shaded",
			in:   ClassifyInput{Score: 95, SunElevationDeg: f(0)},
			want: ConditionShaded,
		},
		{
			name: "heavy overcast is shaded regardless of score",
			in:   ClassifyInput{Score: 80, CloudCoverPct: f(92), SunElevationDeg: f(30)},
			want: ConditionShaded,
		},
		{
			name: "cloud threshold is inclusive",
			in:   ClassifyInput{Score: 80, CloudCoverPct: f(90)},
			want: ConditionShaded,
		},
		{
			name: "high score is sunny",
			in:   ClassifyInput{Score: 55, CloudCoverPct: f(40), SunElevationDeg: f(25)},
			want: ConditionSunny,
		},
		{
			name: "mid score is partial",
			in:   ClassifyInput{Score: 20},
			want: ConditionPartial,
		},
		{
			name: "raw sunny label rescues a low score under moderate cloud",
			in:   ClassifyInput{Score: 5, CloudCoverPct: f(50), RawCondition: "Sunny"},
			want: ConditionSunny,
		},
		{
			name: "raw sunny label ignored under dense cloud",
			in:   ClassifyInput{Score: 5, CloudCoverPct: f(80), RawCondition: "sunny"},
			want: ConditionShaded,
		},
		{
			name: "raw sunny label honored when cloud is unknown",
			in:   ClassifyInput{Score: 5, RawCondition: "sunny"},
			want: ConditionSunny,
		},
		{
			name: "raw partial label counts as partial",
			in:   ClassifyInput{Score: 5, RawCondition: "partial"},
			want: ConditionPartial,
		},
		{
			name: "nothing known defaults to shaded",
			in:   ClassifyInput{Score: 3},
			want: ConditionShaded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.in))
		})
	}
}

func TestDeriveScore(t *testing.T) {
	assert.Equal(t, 0.0, DeriveScore(0.9, 10, 0), "score is zero when sun is at or below the horizon")
	assert.Equal(t, 0.0, DeriveScore(0.9, 10, -5))

	assert.Equal(t, 100.0, DeriveScore(1.0, 0, 30))
	assert.Equal(t, 40.0, DeriveScore(0.8, 50, 30))
	assert.Equal(t, 33.3, DeriveScore(0.333, 0, 30), "rounded to one decimal")
	assert.Equal(t, 0.0, DeriveScore(0.8, 150, 30), "cloud cover clamps to 100")
}

func TestDeriveScoreMonotonicInCloud(t *testing.T) {
	previous := 101.0
	for cloud := 0.0; cloud <= 100; cloud += 10 {
		score := DeriveScore(0.7, cloud, 25)
		assert.LessOrEqual(t, score, previous)
		previous = score
	}
}

func TestConfidenceHintDecay(t *testing.T) {
	assert.Equal(t, 0.9, ConfidenceHint(0))
	assert.Equal(t, 0.9, ConfidenceHint(24))
	assert.Equal(t, 0.8, ConfidenceHint(36))
	assert.Equal(t, 0.72, ConfidenceHint(60))
	assert.Equal(t, 0.65, ConfidenceHint(90))
	assert.Equal(t, 0.58, ConfidenceHint(110))
	assert.Equal(t, 0.5, ConfidenceHint(500))
}

func TestSunAvailable(t *testing.T) {
	assert.True(t, ConditionSunny.SunAvailable())
	assert.True(t, ConditionPartial.SunAvailable())
	assert.False(t, ConditionShaded.SunAvailable())
}

package rating_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vreid/matchrank/internal/pkg/rating"
)

// historyOf builds a history from results listed oldest to newest, one day apart.
func historyOf(results ...rating.Result) []rating.MatchRecord {
	history := make([]rating.MatchRecord, 0, len(results))

	for i, result := range results {
		history = append(history, rating.MatchRecord{
			Timestamp: daysAgo(float64(len(results) - i)),
			Result:    result,
			Rating:    1500,
		})
	}

	return history
}

func repeat(result rating.Result, n int) []rating.Result {
	results := make([]rating.Result, n)
	for i := range results {
		results[i] = result
	}

	return results
}

func newMomentumCalculator(t *testing.T) *rating.MomentumCalculator {
	t.Helper()

	calculator, err := rating.NewMomentumCalculator(rating.DefaultMomentumConfig())
	require.NoError(t, err)

	return calculator
}

func TestMomentumScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		results  []rating.Result
		momentum float64
		trend    rating.Trend
	}{
		{
			name:     "recent winning run after losses",
			results:  append(repeat(rating.ResultLoss, 10), repeat(rating.ResultWin, 10)...),
			momentum: 0.5,
			trend:    rating.TrendStrongUpward,
		},
		{
			name:     "recent losing run after wins",
			results:  append(repeat(rating.ResultWin, 10), repeat(rating.ResultLoss, 10)...),
			momentum: -0.5,
			trend:    rating.TrendStrongDownward,
		},
		{
			name:     "all wins",
			results:  repeat(rating.ResultWin, 30),
			momentum: 0,
			trend:    rating.TrendNeutral,
		},
		{
			name:     "empty",
			results:  nil,
			momentum: 0,
			trend:    rating.TrendNeutral,
		},
	}

	calculator := newMomentumCalculator(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := calculator.Calculate(historyOf(tt.results...))

			assert.InDelta(t, tt.momentum, result.Momentum, 1e-9)
			assert.Equal(t, tt.trend, result.Trend)
		})
	}
}

func TestMomentumWindowsShrinkWithHistory(t *testing.T) {
	t.Parallel()

	// newest first: W W L L W L
	history := historyOf(
		rating.ResultLoss, rating.ResultWin, rating.ResultLoss,
		rating.ResultLoss, rating.ResultWin, rating.ResultWin,
	)

	result := newMomentumCalculator(t).Calculate(history)

	assert.InDelta(t, 3.0/5, result.ShortTermWinRate, 1e-9)
	assert.InDelta(t, 3.0/6, result.MediumTermWinRate, 1e-9)
	assert.InDelta(t, 3.0/6, result.LongTermWinRate, 1e-9)
	assert.InDelta(t, 0.1, result.Momentum, 1e-9)
	assert.Equal(t, rating.TrendUpward, result.Trend)
}

func TestMomentumFallsBackToMediumWindow(t *testing.T) {
	t.Parallel()

	calculator, err := rating.NewMomentumCalculator(rating.MomentumConfig{
		ShortTermWindow:  2,
		MediumTermWindow: 4,
		LongTermWindow:   0,
	})
	require.NoError(t, err)

	result := calculator.Calculate(historyOf(
		rating.ResultLoss, rating.ResultLoss, rating.ResultWin, rating.ResultWin,
	))

	assert.InDelta(t, 0.5, result.Momentum, 1e-9)
	assert.Equal(t, rating.TrendStrongUpward, result.Trend)
}

func TestMomentumNeutralWhenWindowsAgree(t *testing.T) {
	t.Parallel()

	calculator, err := rating.NewMomentumCalculator(rating.MomentumConfig{
		ShortTermWindow:  4,
		MediumTermWindow: 6,
		LongTermWindow:   8,
	})
	require.NoError(t, err)

	// alternating results keep every even window at one half
	results := make([]rating.Result, 0, 8)
	for i := range 8 {
		if i%2 == 0 {
			results = append(results, rating.ResultWin)
		} else {
			results = append(results, rating.ResultLoss)
		}
	}

	result := calculator.Calculate(historyOf(results...))

	assert.InDelta(t, result.ShortTermWinRate, result.LongTermWinRate, 1e-9)
	assert.Zero(t, result.Momentum)
	assert.Equal(t, rating.TrendNeutral, result.Trend)
}

func TestClassifyTrend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		momentum float64
		want     rating.Trend
	}{
		{momentum: 0.16, want: rating.TrendStrongUpward},
		{momentum: 0.15, want: rating.TrendUpward},
		{momentum: 0.06, want: rating.TrendUpward},
		{momentum: 0.05, want: rating.TrendNeutral},
		{momentum: 0, want: rating.TrendNeutral},
		{momentum: -0.05, want: rating.TrendNeutral},
		{momentum: -0.06, want: rating.TrendDownward},
		{momentum: -0.15, want: rating.TrendDownward},
		{momentum: -0.16, want: rating.TrendStrongDownward},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, rating.ClassifyTrend(tt.momentum), "momentum %v", tt.momentum)
	}
}

func TestAdjustRating(t *testing.T) {
	t.Parallel()

	weights := rating.DefaultAdjustWeights()

	assert.InDelta(t, 1500.0, rating.AdjustRating(1500, nil, weights), 1e-9)

	adjusted := rating.AdjustRating(1500, &rating.FormMetrics{
		Momentum:     0.5,
		RecentForm:   -0.4,
		StreakFactor: 0.3,
	}, weights)

	// 0.5*0.1*100 - 0.4*0.05*50 + 0.3*0.05*30
	assert.InDelta(t, 1500+5-1+0.45, adjusted, 1e-9)
}

func TestDescribeForm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		trend        rating.Trend
		streakFactor float64
		recentForm   float64
		want         string
	}{
		{name: "trend label", trend: rating.TrendUpward, streakFactor: 0.2, recentForm: 0.8, want: "improving"},
		{name: "hot streak overrides a downward trend", trend: rating.TrendDownward, streakFactor: 0.6, recentForm: 0.6, want: "hot_streak"},
		{name: "cold streak", trend: rating.TrendStrongUpward, streakFactor: 0.7, recentForm: -0.8, want: "cold_streak"},
		{name: "long streak with mixed form keeps trend", trend: rating.TrendStrongDownward, streakFactor: 0.9, recentForm: 0.5, want: "slumping"},
		{name: "unknown trend is steady", trend: rating.Trend("sideways"), want: "steady"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status := rating.DescribeForm(tt.trend, tt.streakFactor, tt.recentForm)

			assert.Equal(t, tt.want, status.Status)
			assert.NotEmpty(t, status.Description)
			assert.NotEmpty(t, status.Icon)
		})
	}
}

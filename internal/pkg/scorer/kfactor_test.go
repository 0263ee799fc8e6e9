package scorer_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vreid/matchrank/internal/pkg/rating"
	"github.com/vreid/matchrank/internal/pkg/scorer"
)

func kFactor(t *testing.T) *scorer.KFactorCalculator {
	t.Helper()

	calculator, err := scorer.NewKFactorCalculator(scorer.DefaultKFactorConfig())
	require.NoError(t, err)

	return calculator
}

func TestKFactor(t *testing.T) {
	t.Parallel()

	calculator := kFactor(t)

	for _, tc := range []struct {
		name     string
		player   rating.PlayerRating
		match    scorer.Match
		expected float64
	}{
		{
			name:     "high stakes newcomer hits the ceiling",
			player:   rating.PlayerRating{ConfidenceBand: rating.BandUncertain},
			match:    scorer.Match{IsImportant: true, IsHighStakes: true},
			expected: 64,
		},
		{
			name:     "established player halfway through experience",
			player:   rating.PlayerRating{ConfidenceBand: rating.BandEstablished, MatchesPlayed: 50},
			expected: 16,
		},
		{
			name:     "developing player",
			player:   rating.PlayerRating{ConfidenceBand: rating.BandDeveloping, MatchesPlayed: 20},
			expected: 32 * 1.2 * 0.8,
		},
		{
			name:     "important match for an established player",
			player:   rating.PlayerRating{ConfidenceBand: rating.BandEstablished, MatchesPlayed: 25},
			match:    scorer.Match{IsImportant: true},
			expected: 32 * 1.5 * 0.75,
		},
		{
			name:     "veteran floors at the minimum",
			player:   rating.PlayerRating{ConfidenceBand: rating.BandProven, MatchesPlayed: 500},
			expected: 16,
		},
		{
			name:     "unknown band is neutral",
			player:   rating.PlayerRating{ConfidenceBand: "mystery"},
			expected: 32,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(t, tc.expected, calculator.Calculate(tc.player, tc.match), 1e-9)
		})
	}
}

func TestKFactorStaysWithinBounds(t *testing.T) {
	t.Parallel()

	calculator := kFactor(t)

	for _, band := range append(slices.Clone(rating.ConfidenceBands), "") {
		for _, matches := range []int{0, 1, 9, 50, 99, 100, 10000} {
			for _, match := range []scorer.Match{
				{},
				{IsImportant: true},
				{IsHighStakes: true},
				{IsImportant: true, IsHighStakes: true},
			} {
				k := calculator.Calculate(rating.PlayerRating{ConfidenceBand: band, MatchesPlayed: matches}, match)

				assert.GreaterOrEqual(t, k, 16.0)
				assert.LessOrEqual(t, k, 64.0)
			}
		}
	}
}

func TestNewKFactorCalculatorRejectsBadBounds(t *testing.T) {
	t.Parallel()

	config := scorer.DefaultKFactorConfig()
	config.Min, config.Max = 64, 16

	_, err := scorer.NewKFactorCalculator(config)
	require.ErrorIs(t, err, scorer.ErrInvalidKFactorConfig)

	config = scorer.DefaultKFactorConfig()
	config.ExperienceDivisor = 0

	_, err = scorer.NewKFactorCalculator(config)
	require.ErrorIs(t, err, scorer.ErrInvalidKFactorConfig)
}

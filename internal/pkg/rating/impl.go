package rating

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Analyzer re-derives a player's rating record from their match history.
type Analyzer struct {
	timeWeighted *TimeWeightedCalculator
	momentum     *MomentumCalculator
}

func NewAnalyzer(timeWeight TimeWeightConfig, momentum MomentumConfig, now func() time.Time) (*Analyzer, error) {
	timeWeighted, err := NewTimeWeightedCalculator(timeWeight, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create time weighted calculator: %w", err)
	}

	momentumCalculator, err := NewMomentumCalculator(momentum)
	if err != nil {
		return nil, fmt.Errorf("failed to create momentum calculator: %w", err)
	}

	return &Analyzer{
		timeWeighted: timeWeighted,
		momentum:     momentumCalculator,
	}, nil
}

func NewDefaultAnalyzer() *Analyzer {
	analyzer, err := NewAnalyzer(DefaultTimeWeightConfig(), DefaultMomentumConfig(), nil)
	if err != nil {
		panic(err)
	}

	return analyzer
}

// Update returns a new record for player; neither player nor history is modified.
// Rating is left alone. A missing time-weighted estimate falls back to it, and
// confidence never decreases.
func (a *Analyzer) Update(player PlayerRating, history []MatchRecord) PlayerRating {
	weighted := a.timeWeighted.Calculate(history)
	windows := a.momentum.Calculate(history)

	result := player

	result.TimeWeightedRating = weighted.Rating.Or(player.Rating)
	result.Confidence = max(player.Confidence, weighted.Confidence)

	momentum := windows.Momentum
	result.Momentum = &momentum
	result.Trend = windows.Trend

	result.Form = &Form{
		ShortTermWinRate:  windows.ShortTermWinRate,
		MediumTermWinRate: windows.MediumTermWinRate,
		LongTermWinRate:   windows.LongTermWinRate,
		RecentForm:        weighted.RecentForm,
		StreakFactor:      weighted.StreakFactor,
	}

	if len(history) > 0 {
		sorted := sortNewestFirst(history)

		result.MatchesPlayed = len(sorted)
		result.WinRate = 100 * winShare(sorted) //nolint:mnd
		result.StreakType, result.CurrentStreak = leadingStreak(sorted)
	}

	if result.StreakType == "" {
		result.StreakType = StreakNone
	}

	result.ConservativeRating = ConservativeRating(result.Rating, result.Uncertainty)
	result.Tier, result.Division = TierFor(result.ConservativeRating)

	return result
}

// Metrics extracts the adjustment inputs from an analyzed player. It returns nil
// until the player has been analyzed.
func Metrics(player PlayerRating) *FormMetrics {
	if player.Form == nil || player.Momentum == nil {
		return nil
	}

	return &FormMetrics{
		Momentum:     *player.Momentum,
		RecentForm:   player.Form.RecentForm,
		StreakFactor: player.Form.StreakFactor,
	}
}

type AnalysisInput struct {
	Player  PlayerRating
	History []MatchRecord
}

// UpdateAll analyzes every input concurrently, at most limit at a time (no limit
// when limit <= 0). Results keep the input order.
func (a *Analyzer) UpdateAll(ctx context.Context, inputs []AnalysisInput, limit int) ([]PlayerRating, error) {
	results := make([]PlayerRating, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, input := range inputs {
		g.Go(func() error {
			err := ctx.Err()
			if err != nil {
				return fmt.Errorf("failed to analyze player %s: %w", input.Player.ID, err)
			}

			results[i] = a.Update(input.Player, input.History)

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return results, nil
}

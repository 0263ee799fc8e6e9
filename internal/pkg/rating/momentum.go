package rating

import (
	"fmt"
	"math"
)

// Trend cut points, applied strongest first.
const (
	strongTrendThreshold = 0.15
	trendThreshold       = 0.05
)

type MomentumConfig struct {
	ShortTermWindow  int
	MediumTermWindow int
	LongTermWindow   int
}

func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		ShortTermWindow:  5,
		MediumTermWindow: 15,
		LongTermWindow:   30,
	}
}

func (c MomentumConfig) Validate() error {
	if c.ShortTermWindow < 0 || c.MediumTermWindow < 0 || c.LongTermWindow < 0 {
		return fmt.Errorf("%w: negative momentum window", ErrInvalidConfig)
	}

	return nil
}

type MomentumResult struct {
	Momentum          float64
	Trend             Trend
	ShortTermWinRate  float64
	MediumTermWinRate float64
	LongTermWinRate   float64
}

type MomentumCalculator struct {
	config MomentumConfig
}

func NewMomentumCalculator(config MomentumConfig) (*MomentumCalculator, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	return &MomentumCalculator{config: config}, nil
}

func (c *MomentumCalculator) Calculate(history []MatchRecord) MomentumResult {
	sorted := sortNewestFirst(history)

	short, shortSamples := windowWinRate(sorted, c.config.ShortTermWindow)
	medium, mediumSamples := windowWinRate(sorted, c.config.MediumTermWindow)
	long, longSamples := windowWinRate(sorted, c.config.LongTermWindow)

	momentum := 0.0

	switch {
	case shortSamples > 0 && longSamples > 0:
		momentum = short - long
	case shortSamples > 0 && mediumSamples > 0:
		momentum = short - medium
	}

	return MomentumResult{
		Momentum:          momentum,
		Trend:             ClassifyTrend(momentum),
		ShortTermWinRate:  short,
		MediumTermWinRate: medium,
		LongTermWinRate:   long,
	}
}

func ClassifyTrend(momentum float64) Trend {
	switch {
	case momentum > strongTrendThreshold:
		return TrendStrongUpward
	case momentum > trendThreshold:
		return TrendUpward
	case momentum < -strongTrendThreshold:
		return TrendStrongDownward
	case momentum < -trendThreshold:
		return TrendDownward
	default:
		return TrendNeutral
	}
}

// windowWinRate is the win rate over the first n records. Short histories shrink
// the window instead of padding it.
func windowWinRate(sorted []MatchRecord, n int) (float64, int) {
	window := sorted[:min(max(n, 0), len(sorted))]
	if len(window) == 0 {
		return 0, 0
	}

	return winShare(window), len(window)
}

// Point budgets per adjustment signal. Momentum gets the largest.
const (
	momentumPoints = 100
	formPoints     = 50
	streakPoints   = 30
)

type FormMetrics struct {
	Momentum     float64
	RecentForm   float64
	StreakFactor float64
}

type AdjustWeights struct {
	Momentum float64
	Form     float64
	Streak   float64
}

func DefaultAdjustWeights() AdjustWeights {
	return AdjustWeights{
		Momentum: 0.1,
		Form:     0.05,
		Streak:   0.05,
	}
}

// AdjustRating adds a bounded form correction to base. Nil metrics leave base as is.
func AdjustRating(base float64, metrics *FormMetrics, weights AdjustWeights) float64 {
	if metrics == nil {
		return base
	}

	return base +
		metrics.Momentum*weights.Momentum*momentumPoints +
		metrics.RecentForm*weights.Form*formPoints +
		metrics.StreakFactor*weights.Streak*streakPoints
}

type FormStatus struct {
	Status      string `json:"status"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

var trendForms = map[Trend]FormStatus{
	TrendStrongUpward:   {Status: "on_fire", Description: "Performing well above their usual level", Icon: "🚀"},
	TrendUpward:         {Status: "improving", Description: "Results are trending up", Icon: "📈"},
	TrendNeutral:        {Status: "steady", Description: "Playing at their usual level", Icon: "➖"},
	TrendDownward:       {Status: "declining", Description: "Results are trending down", Icon: "📉"},
	TrendStrongDownward: {Status: "slumping", Description: "Performing well below their usual level", Icon: "🧊"},
}

var (
	hotStreakForm  = FormStatus{Status: "hot_streak", Description: "On a winning streak", Icon: "🔥"}
	coldStreakForm = FormStatus{Status: "cold_streak", Description: "On a losing streak", Icon: "❄️"}
)

const (
	streakOverrideFactor = 0.5
	streakOverrideForm   = 0.5
)

// DescribeForm labels a player's form from the trend, then lets a strong streak
// with matching recent form take over the label.
func DescribeForm(trend Trend, streakFactor, recentForm float64) FormStatus {
	status, ok := trendForms[trend]
	if !ok {
		status = trendForms[TrendNeutral]
	}

	if streakFactor > streakOverrideFactor && math.Abs(recentForm) > streakOverrideForm {
		if recentForm > 0 {
			return hotStreakForm
		}

		return coldStreakForm
	}

	return status
}

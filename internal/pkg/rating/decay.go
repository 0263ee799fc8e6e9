package rating

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

const (
	// recentMatches bounds the recent-form and streak windows.
	recentMatches = 10

	countConfidenceWeight = 0.7
	spanConfidenceWeight  = 0.3
	confidentMatchCount   = 20.0
)

var ErrInvalidConfig = errors.New("invalid rating configuration")

type TimeWeightConfig struct {
	DecayFactor      float64
	RecentWindowDays float64
	RecentBoost      float64
	MinWeight        float64
	MaxDays          float64
}

func DefaultTimeWeightConfig() TimeWeightConfig {
	return TimeWeightConfig{
		DecayFactor:      0.95,
		RecentWindowDays: 7,
		RecentBoost:      1.5,
		MinWeight:        0.1,
		MaxDays:          365,
	}
}

func (c TimeWeightConfig) Validate() error {
	switch {
	case c.DecayFactor <= 0 || c.DecayFactor > 1:
		return fmt.Errorf("%w: decay factor %v outside (0, 1]", ErrInvalidConfig, c.DecayFactor)
	case c.RecentWindowDays < 0:
		return fmt.Errorf("%w: negative recent window", ErrInvalidConfig)
	case c.RecentBoost < 1:
		return fmt.Errorf("%w: recent boost %v below 1", ErrInvalidConfig, c.RecentBoost)
	case c.MinWeight < 0:
		return fmt.Errorf("%w: negative minimum weight", ErrInvalidConfig)
	case c.MaxDays <= 0:
		return fmt.Errorf("%w: max days must be positive", ErrInvalidConfig)
	}

	return nil
}

// DecayWeighter turns a match age into an averaging weight.
type DecayWeighter struct {
	config TimeWeightConfig
}

func NewDecayWeighter(config TimeWeightConfig) DecayWeighter {
	return DecayWeighter{config: config}
}

// Weight is decayFactor^daysAgo, boosted linearly from RecentBoost at day 0 down to
// 1 at RecentWindowDays, and never below MinWeight.
func (w DecayWeighter) Weight(daysAgo float64) float64 {
	daysAgo = math.Max(0, daysAgo)

	weight := math.Pow(w.config.DecayFactor, daysAgo)

	if daysAgo < w.config.RecentWindowDays {
		progress := daysAgo / w.config.RecentWindowDays
		weight *= w.config.RecentBoost - (w.config.RecentBoost-1)*progress
	}

	return math.Max(weight, w.config.MinWeight)
}

type TimeWeightedResult struct {
	Rating       Estimate
	Confidence   float64
	RecentForm   float64
	StreakFactor float64
	StreakType   StreakType
	StreakLength int
	MatchCount   int
}

type TimeWeightedCalculator struct {
	config   TimeWeightConfig
	weighter DecayWeighter
	now      func() time.Time
}

// NewTimeWeightedCalculator validates config. A nil now uses time.Now.
func NewTimeWeightedCalculator(config TimeWeightConfig, now func() time.Time) (*TimeWeightedCalculator, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	if now == nil {
		now = time.Now
	}

	return &TimeWeightedCalculator{
		config:   config,
		weighter: NewDecayWeighter(config),
		now:      now,
	}, nil
}

func (c *TimeWeightedCalculator) Calculate(history []MatchRecord) TimeWeightedResult {
	now := c.now()

	records := make([]MatchRecord, 0, len(history))
	for _, record := range sortNewestFirst(history) {
		if daysBetween(record.Timestamp, now) > c.config.MaxDays {
			continue
		}

		records = append(records, record)
	}

	if len(records) == 0 {
		return TimeWeightedResult{
			Rating:     NoEstimate(),
			StreakType: StreakNone,
		}
	}

	var weightedSum, totalWeight float64

	for _, record := range records {
		weight := c.weighter.Weight(daysBetween(record.Timestamp, now))

		weightedSum += record.Rating * weight
		totalWeight += weight
	}

	estimate := NoEstimate()
	if totalWeight > 0 {
		estimate = NewEstimate(weightedSum / totalWeight)
	}

	recent := records[:min(recentMatches, len(records))]
	streakType, streakLength := leadingStreak(recent)

	return TimeWeightedResult{
		Rating:       estimate,
		Confidence:   c.confidence(records),
		RecentForm:   2*winShare(recent) - 1,
		StreakFactor: math.Min(1, float64(streakLength)/recentMatches),
		StreakType:   streakType,
		StreakLength: streakLength,
		MatchCount:   len(records),
	}
}

// confidence rewards both the amount and the time spread of the evidence.
// records must be sorted newest-first.
func (c *TimeWeightedCalculator) confidence(records []MatchRecord) float64 {
	if len(records) == 0 {
		return 0
	}

	span := daysBetween(records[len(records)-1].Timestamp, records[0].Timestamp)

	return countConfidenceWeight*math.Min(1, float64(len(records))/confidentMatchCount) +
		spanConfidenceWeight*math.Min(1, span/c.config.MaxDays)
}

// sortNewestFirst returns a sorted copy; the input is left untouched.
func sortNewestFirst(history []MatchRecord) []MatchRecord {
	sorted := slices.Clone(history)

	slices.SortStableFunc(sorted, func(a, b MatchRecord) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	return sorted
}

// leadingStreak counts identical results from the head of a newest-first slice.
// Draws never form a streak and end any streak they interrupt.
func leadingStreak(sorted []MatchRecord) (StreakType, int) {
	if len(sorted) == 0 {
		return StreakNone, 0
	}

	head := sorted[0].Result
	if head != ResultWin && head != ResultLoss {
		return StreakNone, 0
	}

	length := 0
	for _, record := range sorted {
		if record.Result != head {
			break
		}

		length++
	}

	if head == ResultWin {
		return StreakWin, length
	}

	return StreakLoss, length
}

func winShare(records []MatchRecord) float64 {
	if len(records) == 0 {
		return 0.5
	}

	wins := 0
	for _, record := range records {
		if record.Result == ResultWin {
			wins++
		}
	}

	return float64(wins) / float64(len(records))
}

func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24 //nolint:mnd
}

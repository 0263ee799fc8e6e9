package scorer

import (
	"fmt"
	"math"

	"github.com/vreid/matchrank/internal/pkg/rating"
)

type KFactorConfig struct {
	Base float64
	Min  float64
	Max  float64

	ImportantMultiplier  float64
	HighStakesMultiplier float64

	BandMultipliers map[rating.ConfidenceBand]float64

	ExperienceDivisor       float64
	MinExperienceMultiplier float64
}

// DefaultBandMultipliers moves uncertain players fastest and proven players slowest.
func DefaultBandMultipliers() map[rating.ConfidenceBand]float64 {
	return map[rating.ConfidenceBand]float64{
		rating.BandUncertain:   1.5,
		rating.BandDeveloping:  1.2,
		rating.BandEstablished: 1.0,
		rating.BandProven:      0.8,
	}
}

func DefaultKFactorConfig() KFactorConfig {
	return KFactorConfig{
		Base:                    32,
		Min:                     16,
		Max:                     64,
		ImportantMultiplier:     1.5,
		HighStakesMultiplier:    1.25,
		BandMultipliers:         DefaultBandMultipliers(),
		ExperienceDivisor:       100,
		MinExperienceMultiplier: 0.5,
	}
}

// Match carries the stakes of a single game.
type Match struct {
	IsImportant  bool
	IsHighStakes bool
}

type KFactorCalculator struct {
	config KFactorConfig
}

func NewKFactorCalculator(config KFactorConfig) (*KFactorCalculator, error) {
	if config.Min <= 0 || config.Max < config.Min {
		return nil, fmt.Errorf("%w: k-factor bounds [%v, %v]", ErrInvalidKFactorConfig, config.Min, config.Max)
	}

	if config.ExperienceDivisor <= 0 {
		return nil, fmt.Errorf("%w: experience divisor must be positive", ErrInvalidKFactorConfig)
	}

	return &KFactorCalculator{config: config}, nil
}

// Calculate scales the base K-factor by stakes, confidence band and experience,
// then clamps the product to [Min, Max].
func (c *KFactorCalculator) Calculate(player rating.PlayerRating, match Match) float64 {
	k := c.config.Base

	if match.IsImportant {
		k *= c.config.ImportantMultiplier
	}

	if match.IsHighStakes {
		k *= c.config.HighStakesMultiplier
	}

	if multiplier, ok := c.config.BandMultipliers[player.ConfidenceBand]; ok {
		k *= multiplier
	}

	experience := 1 - float64(player.MatchesPlayed)/c.config.ExperienceDivisor
	k *= math.Max(c.config.MinExperienceMultiplier, experience)

	return math.Min(c.config.Max, math.Max(c.config.Min, k))
}

package quality

import "github.com/vreid/matchrank/internal/pkg/rating"

// Components holds one [0,1] score per weighting dimension; 1 is most compatible.
type Components struct {
	Skill         float64 `json:"skill"`
	Confidence    float64 `json:"confidence"`
	DeckArchetype float64 `json:"deck_archetype"`
	Playstyle     float64 `json:"playstyle"`
	Momentum      float64 `json:"momentum"`
	Preferences   float64 `json:"preferences"`
}

type MatchQuality struct {
	Overall    float64    `json:"overall"`
	Components Components `json:"components"`
}

type OptimalMatch struct {
	Match     *rating.PlayerRating `json:"match"`
	Quality   float64              `json:"quality"`
	Breakdown MatchQuality         `json:"breakdown"`
}

type Candidate struct {
	Player         rating.PlayerRating `json:"player"`
	Quality        MatchQuality        `json:"quality"`
	WinProbability float64             `json:"win_probability"`
}

type Weights struct {
	Skill         float64
	Confidence    float64
	DeckArchetype float64
	Playstyle     float64
	Momentum      float64
	Preferences   float64
}

func DefaultWeights() Weights {
	return Weights{
		Skill:         0.4,
		Confidence:    0.15,
		DeckArchetype: 0.15,
		Playstyle:     0.15,
		Momentum:      0.1,
		Preferences:   0.05,
	}
}

func (w Weights) sum() float64 {
	return w.Skill + w.Confidence + w.DeckArchetype + w.Playstyle + w.Momentum + w.Preferences
}

func (w Weights) apply(c Components) float64 {
	return c.Skill*w.Skill +
		c.Confidence*w.Confidence +
		c.DeckArchetype*w.DeckArchetype +
		c.Playstyle*w.Playstyle +
		c.Momentum*w.Momentum +
		c.Preferences*w.Preferences
}

type Options struct {
	MaxSkillDiff                  float64
	PreferSimilarConfidence       bool
	PreferBalancedMatchups        bool
	PreferComplementaryPlaystyles bool
	Weights                       Weights
}

func DefaultOptions() Options {
	return Options{
		MaxSkillDiff:                  400,
		PreferSimilarConfidence:       true,
		PreferBalancedMatchups:        true,
		PreferComplementaryPlaystyles: false,
		Weights:                       DefaultWeights(),
	}
}

type ArchetypeCategory string

const (
	CategoryAggro    ArchetypeCategory = "Aggro"
	CategoryMidrange ArchetypeCategory = "Midrange"
	CategoryControl  ArchetypeCategory = "Control"
	CategoryCombo    ArchetypeCategory = "Combo"
)

// archetypeCategories is checked in order; the first substring hit wins.
var archetypeCategories = []ArchetypeCategory{
	CategoryAggro,
	CategoryControl,
	CategoryCombo,
	CategoryMidrange,
}

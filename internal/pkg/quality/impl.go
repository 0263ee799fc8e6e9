package quality

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/vreid/matchrank/internal/pkg/rating"
)

const (
	neutralScore = 0.5

	crossCategoryScore = 0.8
	sameCategoryScore  = 0.6

	weightTolerance = 1e-9

	// defaultUncertainty stands in for players without an uncertainty.
	defaultUncertainty = 100.0

	matchupAdjustment  = 0.4
	momentumAdjustment = 0.05

	minWinProbability = 0.01
	maxWinProbability = 0.99
)

var ErrInvalidWeights = errors.New("invalid match quality weights")

type Scorer struct {
	options Options
}

// NewScorer rejects negative weights, weights not summing to one, and a
// non-positive skill range.
func NewScorer(options Options) (*Scorer, error) {
	w := options.Weights

	for _, weight := range []float64{w.Skill, w.Confidence, w.DeckArchetype, w.Playstyle, w.Momentum, w.Preferences} {
		if weight < 0 {
			return nil, fmt.Errorf("%w: negative weight %v", ErrInvalidWeights, weight)
		}
	}

	if math.Abs(w.sum()-1) > weightTolerance {
		return nil, fmt.Errorf("%w: weights sum to %v", ErrInvalidWeights, w.sum())
	}

	if options.MaxSkillDiff <= 0 {
		return nil, fmt.Errorf("%w: max skill difference must be positive", ErrInvalidWeights)
	}

	return &Scorer{options: options}, nil
}

func NewDefaultScorer() *Scorer {
	return &Scorer{options: DefaultOptions()}
}

// Score rates b as an opponent for a.
func (s *Scorer) Score(a, b rating.PlayerRating) MatchQuality {
	components := Components{
		Skill:         s.skill(a, b),
		Confidence:    s.confidence(a, b),
		DeckArchetype: s.deckArchetype(a, b),
		Playstyle:     s.playstyle(a, b),
		Momentum:      momentum(a, b),
		Preferences:   preferences(a, b),
	}

	return MatchQuality{
		Overall:    s.options.Weights.apply(components),
		Components: components,
	}
}

// FindOptimalMatch returns the best scoring candidate other than player itself.
// Ties go to the earliest candidate.
func (s *Scorer) FindOptimalMatch(player rating.PlayerRating, candidates []rating.PlayerRating) OptimalMatch {
	best := OptimalMatch{}
	found := false

	for i := range candidates {
		if candidates[i].ID == player.ID {
			continue
		}

		score := s.Score(player, candidates[i])
		if found && score.Overall <= best.Quality {
			continue
		}

		best = OptimalMatch{
			Match:     &candidates[i],
			Quality:   score.Overall,
			Breakdown: score,
		}
		found = true
	}

	return best
}

// RankCandidates scores every candidate other than player, drops those below
// minQuality and returns the best first, at most limit of them (all when limit <= 0).
func (s *Scorer) RankCandidates(
	player rating.PlayerRating,
	candidates []rating.PlayerRating,
	minQuality float64,
	limit int,
) []Candidate {
	ranked := make([]Candidate, 0, len(candidates))

	for _, candidate := range candidates {
		if candidate.ID == player.ID {
			continue
		}

		score := s.Score(player, candidate)
		if score.Overall < minQuality {
			continue
		}

		ranked = append(ranked, Candidate{
			Player:         candidate,
			Quality:        score,
			WinProbability: WinProbability(player, candidate),
		})
	}

	slices.SortStableFunc(ranked, func(x, y Candidate) int {
		switch {
		case x.Quality.Overall > y.Quality.Overall:
			return -1
		case x.Quality.Overall < y.Quality.Overall:
			return 1
		default:
			return 0
		}
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}

// WinProbability is the chance that a beats b. The logistic skill estimate is
// shifted by a's recorded matchup against b's archetype and by the momentum gap,
// then clamped to [0.01, 0.99].
func WinProbability(a, b rating.PlayerRating) float64 {
	sigmaA := uncertaintyOrDefault(a.Uncertainty)
	sigmaB := uncertaintyOrDefault(b.Uncertainty)

	scale := 0.5 * math.Sqrt(sigmaA*sigmaA+sigmaB*sigmaB) //nolint:mnd

	p := 1 / (1 + math.Exp(-(a.Rating-b.Rating)/scale))

	if a.DeckArchetype != "" && b.DeckArchetype != "" {
		if winRate := a.DeckMatchups[a.DeckArchetype][b.DeckArchetype]; winRate != 0 {
			p += (winRate - neutralScore) * matchupAdjustment
		}
	}

	if a.Momentum != nil && b.Momentum != nil {
		p += (*a.Momentum - *b.Momentum) * momentumAdjustment
	}

	return math.Max(minWinProbability, math.Min(maxWinProbability, p))
}

func uncertaintyOrDefault(uncertainty float64) float64 {
	if uncertainty <= 0 {
		return defaultUncertainty
	}

	return uncertainty
}

// CategoryOf classifies an archetype name by case-sensitive substring, defaulting
// to midrange.
func CategoryOf(archetype string) ArchetypeCategory {
	for _, category := range archetypeCategories {
		if strings.Contains(archetype, string(category)) {
			return category
		}
	}

	return CategoryMidrange
}

func (s *Scorer) skill(a, b rating.PlayerRating) float64 {
	return math.Max(0, 1-math.Abs(a.Rating-b.Rating)/s.options.MaxSkillDiff)
}

func (s *Scorer) confidence(a, b rating.PlayerRating) float64 {
	indexA := rating.BandIndex(a.ConfidenceBand)
	indexB := rating.BandIndex(b.ConfidenceBand)

	if indexA < 0 || indexB < 0 {
		return neutralScore
	}

	maxDistance := float64(len(rating.ConfidenceBands) - 1)
	distance := math.Abs(float64(indexA-indexB)) / maxDistance

	if s.options.PreferSimilarConfidence {
		return math.Max(0, 1-distance)
	}

	return math.Max(0, distance)
}

func (s *Scorer) deckArchetype(a, b rating.PlayerRating) float64 {
	if a.DeckArchetype == "" || b.DeckArchetype == "" {
		return neutralScore
	}

	winRate, ok := matchupWinRate(a, b)
	if !ok {
		if CategoryOf(a.DeckArchetype) == CategoryOf(b.DeckArchetype) {
			return sameCategoryScore
		}

		return crossCategoryScore
	}

	balance := clamp01(1 - 2*math.Abs(winRate-0.5)) //nolint:mnd
	if s.options.PreferBalancedMatchups {
		return balance
	}

	return 1 - balance
}

// matchupWinRate is a's expected win rate with its deck against b's deck, read
// from a's matchup table or, failing that, inverted from b's.
func matchupWinRate(a, b rating.PlayerRating) (float64, bool) {
	if winRate, ok := a.DeckMatchups[a.DeckArchetype][b.DeckArchetype]; ok {
		return winRate, true
	}

	if winRate, ok := b.DeckMatchups[b.DeckArchetype][a.DeckArchetype]; ok {
		return 1 - winRate, true
	}

	return 0, false
}

func (s *Scorer) playstyle(a, b rating.PlayerRating) float64 {
	var totalDiff float64

	shared := 0

	for trait, valueA := range a.Playstyle {
		valueB, ok := b.Playstyle[trait]
		if !ok {
			continue
		}

		totalDiff += math.Abs(clamp01(valueA) - clamp01(valueB))
		shared++
	}

	if shared == 0 {
		return neutralScore
	}

	similarity := 1 - totalDiff/float64(shared)
	if s.options.PreferComplementaryPlaystyles {
		return 1 - similarity
	}

	return similarity
}

// momentum is the gap between the two momenta. Unlike the other dimensions,
// divergence scores higher than similarity.
func momentum(a, b rating.PlayerRating) float64 {
	if a.Momentum == nil || b.Momentum == nil {
		return neutralScore
	}

	return clamp01(math.Abs(*a.Momentum - *b.Momentum))
}

func preferences(a, b rating.PlayerRating) float64 {
	checks, hits := 0, 0

	for _, pair := range [][2]rating.PlayerRating{{a, b}, {b, a}} {
		prefs := pair[0].Preferences
		if prefs == nil || len(prefs.PreferredArchetypes) == 0 || pair[1].DeckArchetype == "" {
			continue
		}

		checks++

		if slices.Contains(prefs.PreferredArchetypes, pair[1].DeckArchetype) {
			hits++
		}
	}

	if checks == 0 {
		return neutralScore
	}

	return float64(hits) / float64(checks)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

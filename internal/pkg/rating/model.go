package rating

import "time"

type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
	ResultDraw Result = "draw"
)

type StreakType string

const (
	StreakWin  StreakType = "win"
	StreakLoss StreakType = "loss"
	StreakNone StreakType = "none"
)

type Trend string

const (
	TrendStrongUpward   Trend = "strong_upward"
	TrendUpward         Trend = "upward"
	TrendNeutral        Trend = "neutral"
	TrendDownward       Trend = "downward"
	TrendStrongDownward Trend = "strong_downward"
)

type ConfidenceBand string

const (
	BandUncertain   ConfidenceBand = "uncertain"
	BandDeveloping  ConfidenceBand = "developing"
	BandEstablished ConfidenceBand = "established"
	BandProven      ConfidenceBand = "proven"
)

// ConfidenceBands lists the bands from least to most evidence. Distances between
// bands are positions in this slice.
var ConfidenceBands = []ConfidenceBand{
	BandUncertain,
	BandDeveloping,
	BandEstablished,
	BandProven,
}

// BandIndex returns the position of band in ConfidenceBands, or -1 if unknown.
func BandIndex(band ConfidenceBand) int {
	for i, b := range ConfidenceBands {
		if b == band {
			return i
		}
	}

	return -1
}

// MatchRecord is one completed match seen from a single player's side.
type MatchRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	Result     Result    `json:"result"`
	Rating     float64   `json:"rating"`
	OpponentID string    `json:"opponent_id,omitempty"`
}

// Estimate is a rating that may be absent. The zero value carries no rating.
type Estimate struct {
	value float64
	ok    bool
}

func NewEstimate(value float64) Estimate {
	return Estimate{value: value, ok: true}
}

func NoEstimate() Estimate {
	return Estimate{}
}

func (e Estimate) Value() (float64, bool) {
	return e.value, e.ok
}

// Or returns the estimate or fallback when there is none.
func (e Estimate) Or(fallback float64) float64 {
	if !e.ok {
		return fallback
	}

	return e.value
}

type Preferences struct {
	PreferredArchetypes []string `json:"preferred_archetypes,omitempty"`
}

// Form is the windowed performance summary carried for display.
type Form struct {
	ShortTermWinRate  float64 `json:"short_term_win_rate"`
	MediumTermWinRate float64 `json:"medium_term_win_rate"`
	LongTermWinRate   float64 `json:"long_term_win_rate"`
	RecentForm        float64 `json:"recent_form"`
	StreakFactor      float64 `json:"streak_factor"`
}

// PlayerRating is recomputed wholesale from history; it is never patched in place.
type PlayerRating struct {
	ID string `json:"id"`

	Rating             float64 `json:"rating"`
	TimeWeightedRating float64 `json:"time_weighted_rating"`
	Uncertainty        float64 `json:"uncertainty"`
	ConservativeRating float64 `json:"conservative_rating"`
	Tier               string  `json:"tier,omitempty"`
	Division           int     `json:"division,omitempty"`

	MatchesPlayed int     `json:"matches_played"`
	WinRate       float64 `json:"win_rate"`

	Trend          Trend          `json:"trend"`
	Momentum       *float64       `json:"momentum,omitempty"`
	Confidence     float64        `json:"confidence"`
	ConfidenceBand ConfidenceBand `json:"confidence_band"`

	CurrentStreak int        `json:"current_streak"`
	StreakType    StreakType `json:"streak_type"`

	DeckArchetype string                        `json:"deck_archetype,omitempty"`
	DeckMatchups  map[string]map[string]float64 `json:"deck_matchups,omitempty"`
	Playstyle     map[string]float64            `json:"playstyle,omitempty"`
	Preferences   *Preferences                  `json:"preferences,omitempty"`

	Form *Form `json:"form,omitempty"`
}

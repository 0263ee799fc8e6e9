package registry

import "github.com/vreid/matchrank/internal/pkg/rating"

type CreatePlayerRequest struct {
	DeckArchetype string `json:"deck_archetype"`
}

// ProfileUpdate replaces the matchmaking profile of a player. Nil fields are left alone.
type ProfileUpdate struct {
	DeckArchetype *string                       `json:"deck_archetype"`
	DeckMatchups  map[string]map[string]float64 `json:"deck_matchups"`
	Playstyle     map[string]float64            `json:"playstyle"`
	Preferences   *rating.Preferences           `json:"preferences"`
}

type FormResponse struct {
	PlayerID       string            `json:"player_id"`
	Status         rating.FormStatus `json:"status"`
	Trend          rating.Trend      `json:"trend"`
	Rating         float64           `json:"rating"`
	AdjustedRating float64           `json:"adjusted_rating"`
	Form           *rating.Form      `json:"form,omitempty"`
}

package matchmaker

import "github.com/vreid/matchrank/internal/pkg/quality"

type MatchUp struct {
	MatchID    string  `json:"match_id"`
	PlayerID   string  `json:"player_id"`
	OpponentID string  `json:"opponent_id"`
	Quality    float64 `json:"quality"`

	Timestamp int64 `json:"timestamp"`
}

type SignedMatchUp struct {
	MatchUp MatchUp `json:"match_up"`

	Signature string `json:"signature"`
}

type MatchUpResponse struct {
	SignedMatchUp  SignedMatchUp        `json:"signed_match_up"`
	Breakdown      quality.MatchQuality `json:"breakdown"`
	WinProbability float64              `json:"win_probability"`
}

// Outcome reports a finished match. An empty WinnerID is a draw.
type Outcome struct {
	SignedMatchUp SignedMatchUp `json:"match_up"`

	WinnerID string `json:"winner_id"`

	IsImportant  bool `json:"is_important"`
	IsHighStakes bool `json:"is_high_stakes"`
}

type CandidatesResponse struct {
	PlayerID   string              `json:"player_id"`
	Candidates []quality.Candidate `json:"candidates"`
}

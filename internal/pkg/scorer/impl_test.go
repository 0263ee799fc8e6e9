package scorer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vreid/matchrank/internal/pkg/common"
	"github.com/vreid/matchrank/internal/pkg/matchmaker"
	"github.com/vreid/matchrank/internal/pkg/rating"
	"github.com/vreid/matchrank/internal/pkg/scorer"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu        sync.Mutex
	published []rating.PlayerRating
}

func (p *recordingPublisher) Publish(_ context.Context, player rating.PlayerRating) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.published = append(p.published, player)

	return nil
}

func TestCalculateExpectedScore(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.5, scorer.CalculateExpectedScore(1500.0, 1500.0), 1e-12)
	assert.InDelta(t, 1.0/11.0, scorer.CalculateExpectedScore(1500.0, 1900.0), 1e-12)
}

func TestUpdateRatings(t *testing.T) {
	t.Parallel()

	winner, loser := scorer.UpdateRatings(1500.0, 1500.0, 1, 32, 32)
	assert.InDelta(t, 1516.0, winner, 1e-9)
	assert.InDelta(t, 1484.0, loser, 1e-9)

	a, b := scorer.UpdateRatings(1500.0, 1500.0, 0.5, 32, 32)
	assert.InDelta(t, 1500.0, a, 1e-9)
	assert.InDelta(t, 1500.0, b, 1e-9)

	winner, loser = scorer.UpdateRatings(1500.0, 1500.0, 1, 64, 16)
	assert.InDelta(t, 1532.0, winner, 1e-9)
	assert.InDelta(t, 1492.0, loser, 1e-9)
}

func TestBandFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, rating.BandUncertain, scorer.BandFor(0))
	assert.Equal(t, rating.BandUncertain, scorer.BandFor(9))
	assert.Equal(t, rating.BandDeveloping, scorer.BandFor(10))
	assert.Equal(t, rating.BandEstablished, scorer.BandFor(30))
	assert.Equal(t, rating.BandProven, scorer.BandFor(100))
}

func TestCalibrate(t *testing.T) {
	t.Parallel()

	player := scorer.Calibrate(rating.PlayerRating{Rating: 1500, Confidence: 1, MatchesPlayed: 40})

	assert.Equal(t, rating.BandEstablished, player.ConfidenceBand)
	assert.InDelta(t, 25.0, player.Uncertainty, 1e-9)
	assert.InDelta(t, 1425.0, player.ConservativeRating, 1e-9)

	fresh := scorer.Calibrate(rating.PlayerRating{Rating: 1500})
	assert.InDelta(t, 350.0, fresh.Uncertainty, 1e-9)
	assert.InDelta(t, 450.0, fresh.ConservativeRating, 1e-9)
	assert.Equal(t, rating.BandUncertain, fresh.ConfidenceBand)
}

func newScorerService(t *testing.T) (*scorer.ScorerService, *recordingPublisher) {
	t.Helper()

	db, err := common.OpenDatabase(t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Shutdown()
	})

	for _, id := range []string{"alice", "bob"} {
		require.NoError(t, db.PutPlayer(rating.PlayerRating{
			ID:             id,
			Rating:         scorer.DefaultRating,
			Uncertainty:    scorer.InitialUncertainty,
			ConfidenceBand: rating.BandUncertain,
			StreakType:     rating.StreakNone,
		}))
	}

	publisher := &recordingPublisher{}

	return &scorer.ScorerService{
		DatabaseService: db,
		Publisher:       publisher,
		Analyzer:        rating.NewDefaultAnalyzer(),
		KFactor:         kFactor(t),
		Logger:          zap.NewNop(),
		Now:             time.Now,
	}, publisher
}

func outcome(matchID, playerID, opponentID, winnerID string) matchmaker.Outcome {
	return matchmaker.Outcome{
		SignedMatchUp: matchmaker.SignedMatchUp{
			MatchUp: matchmaker.MatchUp{
				MatchID:    matchID,
				PlayerID:   playerID,
				OpponentID: opponentID,
			},
		},
		WinnerID: winnerID,
	}
}

func TestHandleOutcome(t *testing.T) {
	t.Parallel()

	service, publisher := newScorerService(t)

	err := service.HandleOutcome(t.Context(), outcome("m-1", "alice", "bob", "alice"))
	require.NoError(t, err)

	alice, err := service.DatabaseService.GetPlayer("alice")
	require.NoError(t, err)

	bob, err := service.DatabaseService.GetPlayer("bob")
	require.NoError(t, err)

	// Both start uncertain with no experience: K = 32 * 1.5 = 48.
	assert.InDelta(t, 1524.0, alice.Rating, 1e-9)
	assert.InDelta(t, 1476.0, bob.Rating, 1e-9)

	assert.Equal(t, 1, alice.MatchesPlayed)
	assert.Equal(t, rating.StreakWin, alice.StreakType)
	assert.Equal(t, 1, alice.CurrentStreak)
	assert.InDelta(t, 100.0, alice.WinRate, 1e-9)

	assert.Equal(t, rating.StreakLoss, bob.StreakType)
	assert.InDelta(t, 0.0, bob.WinRate, 1e-9)

	history, err := service.DatabaseService.History("bob")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "alice", history[0].OpponentID)
	assert.Equal(t, rating.ResultLoss, history[0].Result)

	require.Len(t, publisher.published, 2)
	assert.Equal(t, "alice", publisher.published[0].ID)
	assert.Equal(t, "bob", publisher.published[1].ID)
}

func TestHandleOutcomeDraw(t *testing.T) {
	t.Parallel()

	service, _ := newScorerService(t)

	err := service.HandleOutcome(t.Context(), outcome("m-1", "alice", "bob", ""))
	require.NoError(t, err)

	alice, err := service.DatabaseService.GetPlayer("alice")
	require.NoError(t, err)

	assert.InDelta(t, 1500.0, alice.Rating, 1e-9)
	assert.Equal(t, rating.StreakNone, alice.StreakType)
	assert.Equal(t, 0, alice.CurrentStreak)
}

func TestHandleOutcomeRejectsUnknownPlayers(t *testing.T) {
	t.Parallel()

	service, publisher := newScorerService(t)

	err := service.HandleOutcome(t.Context(), outcome("m-1", "alice", "carol", "alice"))
	require.ErrorIs(t, err, scorer.ErrUnknownPlayer)

	err = service.HandleOutcome(t.Context(), outcome("m-2", "alice", "alice", "alice"))
	require.ErrorIs(t, err, scorer.ErrSelfMatch)

	err = service.HandleOutcome(t.Context(), outcome("", "alice", "bob", "alice"))
	require.ErrorIs(t, err, scorer.ErrMissingMatchID)

	history, err := service.DatabaseService.History("alice")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, publisher.published)
}

func TestHandleOutcomeKeepsFullEloGain(t *testing.T) {
	t.Parallel()

	service, _ := newScorerService(t)

	require.NoError(t, service.HandleOutcome(t.Context(), outcome("m-1", "alice", "bob", "alice")))
	require.NoError(t, service.HandleOutcome(t.Context(), outcome("m-2", "alice", "bob", "alice")))

	alice, err := service.DatabaseService.GetPlayer("alice")
	require.NoError(t, err)

	bob, err := service.DatabaseService.GetPlayer("bob")
	require.NoError(t, err)

	// Second match: K = 32 * 1.5 * 0.99 for both, from 1524 against 1476.
	k := 32 * 1.5 * 0.99
	expected := scorer.CalculateExpectedScore(1524, 1476)

	assert.InDelta(t, 1524+k*(1-expected), alice.Rating, 1e-9)
	assert.InDelta(t, 1476-k*(1-expected), bob.Rating, 1e-9)
	assert.InDelta(t, 1544.498161057688, alice.Rating, 1e-6)
	assert.Equal(t, 2, alice.MatchesPlayed)

	// The time-weighted view averages both post-match samples.
	assert.Greater(t, alice.TimeWeightedRating, 1524.0)
	assert.Less(t, alice.TimeWeightedRating, alice.Rating)
}

func TestHandleOutcomeRejectsReplays(t *testing.T) {
	t.Parallel()

	service, publisher := newScorerService(t)
	first := outcome("m-1", "alice", "bob", "alice")

	require.NoError(t, service.HandleOutcome(t.Context(), first))

	for range 2 {
		err := service.HandleOutcome(t.Context(), first)
		require.ErrorIs(t, err, scorer.ErrOutcomeAlreadyApplied)
	}

	alice, err := service.DatabaseService.GetPlayer("alice")
	require.NoError(t, err)

	assert.Equal(t, 1, alice.MatchesPlayed)
	assert.InDelta(t, 1524.0, alice.Rating, 1e-9)

	history, err := service.DatabaseService.History("bob")
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Len(t, publisher.published, 2)
}

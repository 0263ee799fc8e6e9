package quality_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vreid/matchrank/internal/pkg/quality"
	"github.com/vreid/matchrank/internal/pkg/rating"
)

func TestFindOptimalMatchEmpty(t *testing.T) {
	t.Parallel()

	best := quality.NewDefaultScorer().FindOptimalMatch(player("me", 1500), nil)

	assert.Nil(t, best.Match)
	assert.Zero(t, best.Quality)
}

func TestFindOptimalMatchSkipsSelf(t *testing.T) {
	t.Parallel()

	me := player("me", 1500)

	best := quality.NewDefaultScorer().FindOptimalMatch(me, []rating.PlayerRating{me})
	assert.Nil(t, best.Match)

	best = quality.NewDefaultScorer().FindOptimalMatch(me, []rating.PlayerRating{me, player("far", 2500)})
	require.NotNil(t, best.Match)
	assert.Equal(t, "far", best.Match.ID)
}

func TestFindOptimalMatchPicksHighestScore(t *testing.T) {
	t.Parallel()

	candidates := []rating.PlayerRating{
		player("far", 1850),
		player("near", 1520),
		player("mid", 1650),
	}

	best := quality.NewDefaultScorer().FindOptimalMatch(player("me", 1500), candidates)

	require.NotNil(t, best.Match)
	assert.Equal(t, "near", best.Match.ID)
	assert.InDelta(t, best.Breakdown.Overall, best.Quality, 1e-12)
}

func TestFindOptimalMatchTieGoesToFirst(t *testing.T) {
	t.Parallel()

	candidates := []rating.PlayerRating{
		player("first", 1600),
		player("second", 1400),
		player("third", 1600),
	}

	best := quality.NewDefaultScorer().FindOptimalMatch(player("me", 1500), candidates)

	require.NotNil(t, best.Match)
	assert.Equal(t, "first", best.Match.ID)
}

func TestRankCandidates(t *testing.T) {
	t.Parallel()

	me := player("me", 1500)
	candidates := []rating.PlayerRating{
		player("a", 1900),
		me,
		player("b", 1500),
		player("c", 1600),
		player("d", 1400),
		player("e", 3000),
	}

	scorer := quality.NewDefaultScorer()

	ranked := scorer.RankCandidates(me, candidates, 0, 0)
	require.Len(t, ranked, 5)

	ids := make([]string, 0, len(ranked))
	for _, c := range ranked {
		ids = append(ids, c.Player.ID)
	}

	assert.Equal(t, []string{"b", "c", "d", "a", "e"}, ids)

	for _, c := range ranked {
		assert.InDelta(t, quality.WinProbability(me, c.Player), c.WinProbability, 1e-12)
	}

	assert.InDelta(t, 0.5, ranked[0].WinProbability, 1e-9)

	top := scorer.RankCandidates(me, candidates, 0.7, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].Player.ID)
	assert.Equal(t, "c", top[1].Player.ID)

	assert.Empty(t, scorer.RankCandidates(me, candidates, 0.99, 0))
}

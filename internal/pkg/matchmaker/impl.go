package matchmaker

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"
	"github.com/vreid/matchrank/internal/pkg/common"
	"github.com/vreid/matchrank/internal/pkg/quality"
	"github.com/vreid/matchrank/internal/pkg/rating"
	"go.uber.org/zap"
)

var (
	ErrNoCandidates     = errors.New("no opponent available")
	ErrInvalidSignature = errors.New("invalid match-up signature")
	ErrMatchUpExpired   = errors.New("match-up expired")
	ErrInvalidWinner    = errors.New("invalid winner value")
)

const (
	defaultMinQuality     = 0.6
	defaultCandidateLimit = 10
)

type MatchmakerService struct {
	DatabaseService *common.DatabaseService
	Scorer          *quality.Scorer
	Logger          *zap.Logger

	OutcomeSink chan<- Outcome

	SignatureSecret    string
	TokenMaxAgeMinutes int
}

func NewMatchmakerService(i do.Injector) (*MatchmakerService, error) {
	databaseService := do.MustInvoke[*common.DatabaseService](i)
	scorer := do.MustInvoke[*quality.Scorer](i)
	logger := do.MustInvoke[*common.LoggerService](i).Logger
	outcomeSink := do.MustInvokeNamed[chan<- Outcome](i, "outcome-sink")

	signatureSecret := do.MustInvokeNamed[string](i, "signature-secret")
	tokenMaxAgeMinutes := do.MustInvokeNamed[int](i, "token-max-age-minutes")

	result := &MatchmakerService{
		DatabaseService: databaseService,
		Scorer:          scorer,
		Logger:          logger,

		OutcomeSink: outcomeSink,

		SignatureSecret:    signatureSecret,
		TokenMaxAgeMinutes: tokenMaxAgeMinutes,
	}

	echoService, err := do.Invoke[*common.EchoService](i)
	if err != nil {
		return nil, fmt.Errorf("failed to create echo service: %w", err)
	}

	echoService.Register(func(e *echo.Echo) {
		apiGroup := e.Group("/api")

		matchmakerGroup := apiGroup.Group("/matchmaker")

		matchmakerGroup.GET("/match-up", result.GetMatchUp)
		matchmakerGroup.GET("/candidates", result.GetCandidates)
		matchmakerGroup.POST("/outcome", result.PostOutcome)
	})

	return result, nil
}

// FindMatchUp picks the best opponent for player among candidates and signs the pairing.
func FindMatchUp(
	scorer *quality.Scorer,
	player rating.PlayerRating,
	candidates []rating.PlayerRating,
	signatureSecret []byte,
	now time.Time,
) (*MatchUpResponse, error) {
	best := scorer.FindOptimalMatch(player, candidates)
	if best.Match == nil {
		return nil, ErrNoCandidates
	}

	matchID, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate match ID: %w", err)
	}

	signedMatchUp, err := SignMatchUp(MatchUp{
		MatchID:    matchID.String(),
		PlayerID:   player.ID,
		OpponentID: best.Match.ID,
		Quality:    best.Quality,
		Timestamp:  now.Unix(),
	}, signatureSecret)
	if err != nil {
		return nil, err
	}

	return &MatchUpResponse{
		SignedMatchUp:  *signedMatchUp,
		Breakdown:      best.Breakdown,
		WinProbability: quality.WinProbability(player, *best.Match),
	}, nil
}

func SignMatchUp(matchUp MatchUp, signatureSecret []byte) (*SignedMatchUp, error) {
	signature, err := computeSignature(matchUp, signatureSecret)
	if err != nil {
		return nil, err
	}

	return &SignedMatchUp{
		MatchUp:   matchUp,
		Signature: signature,
	}, nil
}

// VerifyOutcome checks the signature, the age of the match-up and that the
// winner, if any, is one of the two players.
func VerifyOutcome(outcome Outcome, signatureSecret []byte, maxAge time.Duration, now time.Time) error {
	matchUp := outcome.SignedMatchUp.MatchUp

	signature, err := computeSignature(matchUp, signatureSecret)
	if err != nil {
		return err
	}

	if !hmac.Equal([]byte(outcome.SignedMatchUp.Signature), []byte(signature)) {
		return ErrInvalidSignature
	}

	if now.Sub(time.Unix(matchUp.Timestamp, 0)) > maxAge {
		return ErrMatchUpExpired
	}

	switch outcome.WinnerID {
	case "", matchUp.PlayerID, matchUp.OpponentID:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidWinner, outcome.WinnerID)
	}
}

func computeSignature(matchUp MatchUp, signatureSecret []byte) (string, error) {
	marshaledMatchUp, err := json.Marshal(matchUp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal match-up: %w", err)
	}

	h := hmac.New(sha256.New, signatureSecret)
	h.Write(marshaledMatchUp)

	return hex.EncodeToString(h.Sum(nil)), nil
}

func (s *MatchmakerService) GetMatchUp(c echo.Context) error {
	player, candidates, err := s.loadPool(c.QueryParam("player_id"))
	if err != nil {
		return err
	}

	matchUp, err := FindMatchUp(s.Scorer, player, candidates, []byte(s.SignatureSecret), time.Now())
	if errors.Is(err, ErrNoCandidates) {
		return echo.NewHTTPError(http.StatusTooEarly, "not enough players available")
	}

	if err != nil {
		s.Logger.Error("failed to create match-up", zap.String("player_id", player.ID), zap.Error(err))

		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create match-up")
	}

	s.Logger.Debug("match-up created",
		zap.String("match_id", matchUp.SignedMatchUp.MatchUp.MatchID),
		zap.String("player_id", player.ID),
		zap.String("opponent_id", matchUp.SignedMatchUp.MatchUp.OpponentID),
		zap.Float64("quality", matchUp.SignedMatchUp.MatchUp.Quality))

	//nolint:wrapcheck
	return c.JSONPretty(http.StatusOK, matchUp, "  ")
}

func (s *MatchmakerService) GetCandidates(c echo.Context) error {
	minQuality := defaultMinQuality
	limit := defaultCandidateLimit

	if v := c.QueryParam("min_quality"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid min_quality")
		}

		minQuality = parsed
	}

	if v := c.QueryParam("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}

		limit = parsed
	}

	player, candidates, err := s.loadPool(c.QueryParam("player_id"))
	if err != nil {
		return err
	}

	//nolint:wrapcheck
	return c.JSONPretty(http.StatusOK, CandidatesResponse{
		PlayerID:   player.ID,
		Candidates: s.Scorer.RankCandidates(player, candidates, minQuality, limit),
	}, "  ")
}

func (s *MatchmakerService) PostOutcome(c echo.Context) error {
	var outcome Outcome

	err := c.Bind(&outcome)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	maxAge := time.Duration(s.TokenMaxAgeMinutes) * time.Minute

	err = VerifyOutcome(outcome, []byte(s.SignatureSecret), maxAge, time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if s.OutcomeSink != nil {
		s.OutcomeSink <- outcome
	}

	//nolint:wrapcheck
	return c.NoContent(http.StatusAccepted)
}

func (s *MatchmakerService) loadPool(playerID string) (rating.PlayerRating, []rating.PlayerRating, error) {
	if playerID == "" {
		return rating.PlayerRating{}, nil, echo.NewHTTPError(http.StatusBadRequest, "missing player_id")
	}

	player, err := s.DatabaseService.GetPlayer(playerID)
	if errors.Is(err, common.ErrPlayerNotFound) {
		return player, nil, echo.NewHTTPError(http.StatusNotFound, "player not found")
	}

	if err != nil {
		return player, nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load player")
	}

	candidates, err := s.DatabaseService.ListPlayers()
	if err != nil {
		return player, nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load players")
	}

	return player, candidates, nil
}

package scorer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/samber/do/v2"
	"github.com/vreid/matchrank/internal/pkg/common"
	"github.com/vreid/matchrank/internal/pkg/leaderboard"
	"github.com/vreid/matchrank/internal/pkg/matchmaker"
	"github.com/vreid/matchrank/internal/pkg/rating"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const (
	DefaultRating      = 1500.0
	InitialUncertainty = 350.0
	MinUncertainty     = 25.0
)

var (
	ErrInvalidKFactorConfig  = errors.New("invalid k-factor configuration")
	ErrUnknownPlayer         = errors.New("outcome names an unknown player")
	ErrSelfMatch             = errors.New("player cannot play against themselves")
	ErrMissingMatchID        = errors.New("outcome has no match id")
	ErrOutcomeAlreadyApplied = errors.New("outcome already applied")
)

type ScorerService struct {
	DatabaseService *common.DatabaseService
	Publisher       leaderboard.Publisher
	Analyzer        *rating.Analyzer
	KFactor         *KFactorCalculator
	Logger          *zap.Logger

	OutcomeSource <-chan matchmaker.Outcome

	Now func() time.Time
}

func NewScorerService(i do.Injector) (*ScorerService, error) {
	databaseService := do.MustInvoke[*common.DatabaseService](i)
	publisher := do.MustInvoke[leaderboard.Publisher](i)
	logger := do.MustInvoke[*common.LoggerService](i).Logger
	outcomeSource := do.MustInvokeNamed[<-chan matchmaker.Outcome](i, "outcome-source")

	config := DefaultKFactorConfig()
	config.Base = do.MustInvokeNamed[float64](i, "k-factor-base")
	config.Min = do.MustInvokeNamed[float64](i, "k-factor-min")
	config.Max = do.MustInvokeNamed[float64](i, "k-factor-max")

	kFactor, err := NewKFactorCalculator(config)
	if err != nil {
		return nil, err
	}

	result := &ScorerService{
		DatabaseService: databaseService,
		Publisher:       publisher,
		Analyzer:        rating.NewDefaultAnalyzer(),
		KFactor:         kFactor,
		Logger:          logger,

		OutcomeSource: outcomeSource,

		Now: time.Now,
	}

	return result, nil
}

func (s *ScorerService) Start() {
	go s.processOutcomes()
}

func CalculateExpectedScore(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingB-ratingA)/400.0))
}

// UpdateRatings applies one Elo step to both players. scoreA is 1 for a win by
// A, 0.5 for a draw and 0 for a loss; each side moves by its own K-factor.
func UpdateRatings(ratingA, ratingB, scoreA, kA, kB float64) (float64, float64) {
	expectedA := CalculateExpectedScore(ratingA, ratingB)

	return ratingA + kA*(scoreA-expectedA),
		ratingB + kB*((1-scoreA)-(1-expectedA))
}

// BandFor assigns a confidence band from the number of matches played.
func BandFor(matchesPlayed int) rating.ConfidenceBand {
	switch {
	case matchesPlayed < 10:
		return rating.BandUncertain
	case matchesPlayed < 30:
		return rating.BandDeveloping
	case matchesPlayed < 100:
		return rating.BandEstablished
	default:
		return rating.BandProven
	}
}

// Calibrate derives band, uncertainty and the ranking fields from an analyzed record.
func Calibrate(player rating.PlayerRating) rating.PlayerRating {
	player.ConfidenceBand = BandFor(player.MatchesPlayed)
	player.Uncertainty = MinUncertainty + (InitialUncertainty-MinUncertainty)*(1-player.Confidence)
	player.ConservativeRating = rating.ConservativeRating(player.Rating, player.Uncertainty)
	player.Tier, player.Division = rating.TierFor(player.ConservativeRating)

	return player
}

func resultFor(playerID, winnerID string) (rating.Result, float64) {
	switch winnerID {
	case "":
		return rating.ResultDraw, 0.5
	case playerID:
		return rating.ResultWin, 1
	default:
		return rating.ResultLoss, 0
	}
}

func (s *ScorerService) HandleOutcome(ctx context.Context, outcome matchmaker.Outcome) error {
	matchUp := outcome.SignedMatchUp.MatchUp
	match := Match{IsImportant: outcome.IsImportant, IsHighStakes: outcome.IsHighStakes}
	now := s.Now()

	if matchUp.MatchID == "" {
		return ErrMissingMatchID
	}

	if matchUp.PlayerID == matchUp.OpponentID {
		return fmt.Errorf("failed to apply outcome %s: %w", matchUp.MatchID, ErrSelfMatch)
	}

	var updated []rating.PlayerRating

	err := s.DatabaseService.DB.Update(func(tx *bolt.Tx) error {
		applied, err := common.MatchAppliedTx(tx, matchUp.MatchID)
		if err != nil {
			return err
		}

		if applied {
			return ErrOutcomeAlreadyApplied
		}

		player, err := common.GetPlayerTx(tx, matchUp.PlayerID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUnknownPlayer, err)
		}

		opponent, err := common.GetPlayerTx(tx, matchUp.OpponentID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUnknownPlayer, err)
		}

		playerResult, score := resultFor(player.ID, outcome.WinnerID)
		opponentResult, _ := resultFor(opponent.ID, outcome.WinnerID)

		playerRating, opponentRating := UpdateRatings(
			player.Rating, opponent.Rating, score,
			s.KFactor.Calculate(player, match),
			s.KFactor.Calculate(opponent, match))

		for _, side := range []struct {
			player rating.PlayerRating
			record rating.MatchRecord
		}{
			{player, rating.MatchRecord{Timestamp: now, Result: playerResult, Rating: playerRating, OpponentID: opponent.ID}},
			{opponent, rating.MatchRecord{Timestamp: now, Result: opponentResult, Rating: opponentRating, OpponentID: player.ID}},
		} {
			err := common.AppendMatchTx(tx, side.player.ID, side.record)
			if err != nil {
				return err
			}

			history, err := common.HistoryTx(tx, side.player.ID)
			if err != nil {
				return err
			}

			side.player.Rating = side.record.Rating

			next := Calibrate(s.Analyzer.Update(side.player, history))

			err = common.PutPlayerTx(tx, next)
			if err != nil {
				return err
			}

			updated = append(updated, next)
		}

		return common.MarkMatchAppliedTx(tx, matchUp.MatchID, now)
	})
	if err != nil {
		return fmt.Errorf("failed to apply outcome %s: %w", matchUp.MatchID, err)
	}

	for _, player := range updated {
		err := s.Publisher.Publish(ctx, player)
		if err != nil {
			s.Logger.Warn("failed to publish rating", zap.String("player_id", player.ID), zap.Error(err))
		}
	}

	s.Logger.Info("outcome applied",
		zap.String("match_id", matchUp.MatchID),
		zap.String("player_id", matchUp.PlayerID),
		zap.String("opponent_id", matchUp.OpponentID),
		zap.String("winner_id", outcome.WinnerID))

	return nil
}

func (s *ScorerService) processOutcomes() {
	for outcome := range s.OutcomeSource {
		err := s.HandleOutcome(context.Background(), outcome)
		if err != nil {
			s.Logger.Error("failed to handle outcome", zap.Error(err))
		}
	}
}

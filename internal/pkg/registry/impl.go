package registry

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"
	"github.com/vreid/matchrank/internal/pkg/common"
	"github.com/vreid/matchrank/internal/pkg/rating"
	"github.com/vreid/matchrank/internal/pkg/scorer"
	"go.uber.org/zap"
)

type RegistryService struct {
	DatabaseService *common.DatabaseService
	Logger          *zap.Logger
}

func NewRegistryService(i do.Injector) (*RegistryService, error) {
	databaseService := do.MustInvoke[*common.DatabaseService](i)
	logger := do.MustInvoke[*common.LoggerService](i).Logger

	result := &RegistryService{
		DatabaseService: databaseService,
		Logger:          logger,
	}

	echoService, err := do.Invoke[*common.EchoService](i)
	if err != nil {
		return nil, fmt.Errorf("failed to create echo service: %w", err)
	}

	echoService.Register(func(e *echo.Echo) {
		apiGroup := e.Group("/api")

		playersGroup := apiGroup.Group("/players")

		playersGroup.POST("", result.CreatePlayer)
		playersGroup.GET("/:id", result.GetPlayer)
		playersGroup.PUT("/:id/profile", result.UpdateProfile)
		playersGroup.GET("/:id/form", result.GetForm)
		playersGroup.GET("/:id/history", result.GetHistory)
	})

	return result, nil
}

// NewPlayer returns the record of a player who has not played yet.
func NewPlayer(id, deckArchetype string) rating.PlayerRating {
	return scorer.Calibrate(rating.PlayerRating{
		ID:                 id,
		Rating:             scorer.DefaultRating,
		TimeWeightedRating: scorer.DefaultRating,
		Trend:              rating.TrendNeutral,
		StreakType:         rating.StreakNone,
		DeckArchetype:      deckArchetype,
	})
}

func (s *RegistryService) CreatePlayer(c echo.Context) error {
	var request CreatePlayerRequest

	err := c.Bind(&request)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	_playerID, err := uuid.NewV7()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate UUID")
	}

	player := NewPlayer(_playerID.String(), request.DeckArchetype)

	err = s.DatabaseService.PutPlayer(player)
	if err != nil {
		s.Logger.Error("failed to store player", zap.Error(err))

		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store player")
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusCreated, player)
}

func (s *RegistryService) GetPlayer(c echo.Context) error {
	player, err := s.loadPlayer(c.Param("id"))
	if err != nil {
		return err
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, player)
}

func (s *RegistryService) UpdateProfile(c echo.Context) error {
	var update ProfileUpdate

	err := c.Bind(&update)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	player, err := s.loadPlayer(c.Param("id"))
	if err != nil {
		return err
	}

	if update.DeckArchetype != nil {
		player.DeckArchetype = *update.DeckArchetype
	}

	if update.DeckMatchups != nil {
		player.DeckMatchups = update.DeckMatchups
	}

	if update.Playstyle != nil {
		player.Playstyle = update.Playstyle
	}

	if update.Preferences != nil {
		player.Preferences = update.Preferences
	}

	err = s.DatabaseService.PutPlayer(player)
	if err != nil {
		s.Logger.Error("failed to store player", zap.String("player_id", player.ID), zap.Error(err))

		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store player")
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, player)
}

func (s *RegistryService) GetForm(c echo.Context) error {
	player, err := s.loadPlayer(c.Param("id"))
	if err != nil {
		return err
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, DescribePlayer(player))
}

func DescribePlayer(player rating.PlayerRating) FormResponse {
	var streakFactor, recentForm float64
	if player.Form != nil {
		streakFactor, recentForm = player.Form.StreakFactor, player.Form.RecentForm
	}

	return FormResponse{
		PlayerID:       player.ID,
		Status:         rating.DescribeForm(player.Trend, streakFactor, recentForm),
		Trend:          player.Trend,
		Rating:         player.Rating,
		AdjustedRating: rating.AdjustRating(player.Rating, rating.Metrics(player), rating.DefaultAdjustWeights()),
		Form:           player.Form,
	}
}

func (s *RegistryService) GetHistory(c echo.Context) error {
	player, err := s.loadPlayer(c.Param("id"))
	if err != nil {
		return err
	}

	history, err := s.DatabaseService.History(player.ID)
	if err != nil {
		s.Logger.Error("failed to read history", zap.String("player_id", player.ID), zap.Error(err))

		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read history")
	}

	//nolint:wrapcheck
	return c.JSON(http.StatusOK, history)
}

func (s *RegistryService) loadPlayer(id string) (rating.PlayerRating, error) {
	player, err := s.DatabaseService.GetPlayer(id)
	if errors.Is(err, common.ErrPlayerNotFound) {
		return player, echo.NewHTTPError(http.StatusNotFound, "player not found")
	}

	if err != nil {
		s.Logger.Error("failed to load player", zap.String("player_id", id), zap.Error(err))

		return player, echo.NewHTTPError(http.StatusInternalServerError, "failed to load player")
	}

	return player, nil
}

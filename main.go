package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/samber/do/v2"
	"github.com/vreid/matchrank/internal/pkg/common"
	"github.com/vreid/matchrank/internal/pkg/leaderboard"
	"github.com/vreid/matchrank/internal/pkg/matchmaker"
	"github.com/vreid/matchrank/internal/pkg/quality"
	"github.com/vreid/matchrank/internal/pkg/rating"
	"github.com/vreid/matchrank/internal/pkg/registry"
	"github.com/vreid/matchrank/internal/pkg/scorer"
	"go.uber.org/zap"

	"github.com/urfave/cli/v3"
)

type MatchrankService struct {
	EchoService *common.EchoService `do:""`

	RegistryService   *registry.RegistryService     `do:""`
	MatchmakerService *matchmaker.MatchmakerService `do:""`
	ScorerService     *scorer.ScorerService         `do:""`
}

func newInjector(cmd *cli.Command) do.Injector {
	i := do.New()

	do.ProvideNamedValue(i, "data-dir", cmd.String("data-dir"))
	do.ProvideNamedValue(i, "log-level", cmd.String("log-level"))

	do.Provide(i, common.NewLoggerService)
	do.Provide(i, common.NewDatabaseService)

	return i
}

func runServer(ctx context.Context, cmd *cli.Command) error {
	i := newInjector(cmd)

	do.ProvideNamedValue(i, "port", cmd.Int("port"))

	do.ProvideNamedValue(i, "signature-secret", cmd.String("signature-secret"))
	do.ProvideNamedValue(i, "token-max-age-minutes", cmd.Int("token-max-age-minutes"))

	do.ProvideNamedValue(i, "k-factor-base", cmd.Float64("k-factor-base"))
	do.ProvideNamedValue(i, "k-factor-min", cmd.Float64("k-factor-min"))
	do.ProvideNamedValue(i, "k-factor-max", cmd.Float64("k-factor-max"))

	do.ProvideNamedValue(i, "valkey-addr", cmd.String("valkey-addr"))

	options := quality.DefaultOptions()
	options.MaxSkillDiff = cmd.Float64("max-skill-diff")
	options.PreferComplementaryPlaystyles = cmd.Bool("prefer-complementary-playstyles")

	qualityScorer, err := quality.NewScorer(options)
	if err != nil {
		return fmt.Errorf("failed to create quality scorer: %w", err)
	}

	do.ProvideValue(i, qualityScorer)

	outcomeChan := make(chan matchmaker.Outcome, 1000)
	var outcomeSource <-chan matchmaker.Outcome = outcomeChan
	var outcomeSink chan<- matchmaker.Outcome = outcomeChan

	do.ProvideNamedValue(i, "outcome-source", outcomeSource)
	do.ProvideNamedValue(i, "outcome-sink", outcomeSink)

	do.Provide(i, leaderboard.NewPublisher)
	do.Provide(i, common.NewEchoService)

	do.Provide(i, registry.NewRegistryService)
	do.Provide(i, matchmaker.NewMatchmakerService)
	do.Provide(i, scorer.NewScorerService)

	do.Provide(i, do.InvokeStruct[MatchrankService])

	matchrankService, err := do.Invoke[MatchrankService](i)
	if err != nil {
		return fmt.Errorf("failed to create matchrank service: %w", err)
	}

	defer func() {
		_ = i.ShutdownWithContext(ctx)
	}()

	matchrankService.ScorerService.Start()

	//nolint:wrapcheck
	return matchrankService.EchoService.Start()
}

func runRecompute(ctx context.Context, cmd *cli.Command) error {
	i := newInjector(cmd)

	defer func() {
		_ = i.ShutdownWithContext(ctx)
	}()

	databaseService := do.MustInvoke[*common.DatabaseService](i)
	logger := do.MustInvoke[*common.LoggerService](i).Logger

	players, err := databaseService.ListPlayers()
	if err != nil {
		return fmt.Errorf("failed to list players: %w", err)
	}

	inputs := make([]rating.AnalysisInput, 0, len(players))

	for _, player := range players {
		history, err := databaseService.History(player.ID)
		if err != nil {
			return fmt.Errorf("failed to read history of %s: %w", player.ID, err)
		}

		inputs = append(inputs, rating.AnalysisInput{Player: player, History: history})
	}

	updated, err := rating.NewDefaultAnalyzer().UpdateAll(ctx, inputs, cmd.Int("concurrency"))
	if err != nil {
		return fmt.Errorf("failed to analyze players: %w", err)
	}

	for _, player := range updated {
		err := databaseService.PutPlayer(scorer.Calibrate(player))
		if err != nil {
			return fmt.Errorf("failed to store player %s: %w", player.ID, err)
		}
	}

	logger.Info("recomputed ratings", zap.Int("players", len(updated)))

	return nil
}

func runLeaderboard(ctx context.Context, cmd *cli.Command) error {
	i := newInjector(cmd)

	defer func() {
		_ = i.ShutdownWithContext(ctx)
	}()

	databaseService := do.MustInvoke[*common.DatabaseService](i)

	players, err := databaseService.ListPlayers()
	if err != nil {
		return fmt.Errorf("failed to list players: %w", err)
	}

	slices.SortStableFunc(players, func(a, b rating.PlayerRating) int {
		switch {
		case a.ConservativeRating > b.ConservativeRating:
			return -1
		case a.ConservativeRating < b.ConservativeRating:
			return 1
		default:
			return 0
		}
	})

	if limit := cmd.Int("limit"); limit > 0 && len(players) > limit {
		players = players[:limit]
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignRight},
			},
		}),
	)

	table.Header("#", "Player", "Tier", "Conservative", "Rating", "Matches", "Win %", "Trend")

	for rank, player := range players {
		err := table.Append(
			strconv.Itoa(rank+1),
			player.ID,
			fmt.Sprintf("%s %d", player.Tier, player.Division),
			strconv.FormatFloat(player.ConservativeRating, 'f', 1, 64),
			strconv.FormatFloat(player.Rating, 'f', 1, 64),
			strconv.Itoa(player.MatchesPlayed),
			strconv.FormatFloat(player.WinRate, 'f', 1, 64),
			string(player.Trend),
		)
		if err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}

	//nolint:wrapcheck
	return table.Render()
}

func main() {
	_ = godotenv.Load()

	//nolint:exhaustruct
	cmd := &cli.Command{
		Name: "matchrank",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Value:   "./matchrank/data",
				Sources: cli.EnvVars("MATCHRANK_DATA_DIR"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Sources: cli.EnvVars("MATCHRANK_LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name: "server",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Value:   3000, //nolint:mnd
						Sources: cli.EnvVars("MATCHRANK_PORT"),
					},
					&cli.StringFlag{
						Name:    "signature-secret",
						Value:   "secret",
						Sources: cli.EnvVars("MATCHRANK_SIGNATURE_SECRET"),
					},
					&cli.IntFlag{
						Name:    "token-max-age-minutes",
						Value:   5,
						Sources: cli.EnvVars("MATCHRANK_TOKEN_MAX_AGE_MINUTES"),
					},
					&cli.Float64Flag{
						Name:    "max-skill-diff",
						Value:   400, //nolint:mnd
						Sources: cli.EnvVars("MATCHRANK_MAX_SKILL_DIFF"),
					},
					&cli.BoolFlag{
						Name:    "prefer-complementary-playstyles",
						Sources: cli.EnvVars("MATCHRANK_PREFER_COMPLEMENTARY_PLAYSTYLES"),
					},
					&cli.Float64Flag{
						Name:    "k-factor-base",
						Value:   32, //nolint:mnd
						Sources: cli.EnvVars("MATCHRANK_K_FACTOR_BASE"),
					},
					&cli.Float64Flag{
						Name:    "k-factor-min",
						Value:   16, //nolint:mnd
						Sources: cli.EnvVars("MATCHRANK_K_FACTOR_MIN"),
					},
					&cli.Float64Flag{
						Name:    "k-factor-max",
						Value:   64, //nolint:mnd
						Sources: cli.EnvVars("MATCHRANK_K_FACTOR_MAX"),
					},
					&cli.StringFlag{
						Name:    "valkey-addr",
						Sources: cli.EnvVars("MATCHRANK_VALKEY_ADDR"),
					},
				},
				Action: runServer,
			},
			{
				Name: "recompute",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "concurrency",
						Value:   8, //nolint:mnd
						Sources: cli.EnvVars("MATCHRANK_CONCURRENCY"),
					},
				},
				Action: runRecompute,
			},
			{
				Name: "leaderboard",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: 20, //nolint:mnd
					},
				},
				Action: runLeaderboard,
			},
		},
		DefaultCommand: "server",
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

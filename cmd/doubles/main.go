package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Black-And-White-Club/doubles-bot/app"
	"github.com/Black-And-White-Club/doubles-bot/app/database"
	ledgerevents "github.com/Black-And-White-Club/doubles-bot/app/events/ledger"
	"github.com/Black-And-White-Club/doubles-bot/app/handlerwrapper"
	leaderboardservice "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/application"
	leaderboardqueue "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/infrastructure/queue"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/observability"
	"github.com/Black-And-White-Club/doubles-bot/config"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "doubles",
		Usage: "doubles club session scoring and governance engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"DOUBLES_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			reconcileCommand(),
			rebuildCommand(),
			exportCommand(),
			tokenCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.LoadConfig(c.String("config"))
}

// cliObservability logs as text to stderr so command output stays clean.
func cliObservability(cfg *config.Config) *observability.Observability {
	level := slog.LevelInfo
	if cfg.Observability.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	return observability.NewNoop(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// withApp builds the application for a one-shot command and closes it after fn.
func withApp(c *cli.Context, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	a, err := app.New(c.Context, cfg, cliObservability(cfg))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(c.Context, a)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API, event handlers and background jobs",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "migrate", Usage: "apply migrations before starting"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			obs, err := observability.Init(ctx, cfg.Observability)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = obs.Shutdown(shutdownCtx)
			}()

			if c.Bool("migrate") {
				if err := runMigrations(ctx, cfg, obs.Provider.Logger); err != nil {
					return err
				}
			}

			a, err := app.New(ctx, cfg, obs)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Run(ctx)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply module migrations, plus the job queue schema on PostgreSQL",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return runMigrations(c.Context, cfg, cliObservability(cfg).Provider.Logger)
		},
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := app.Migrate(ctx, db, logger); err != nil {
		return err
	}
	if database.IsPostgres(db) {
		return leaderboardqueue.Migrate(ctx, cfg.Database.DSN, logger)
	}
	return nil
}

func reconcileCommand() *cli.Command {
	return &cli.Command{
		Name:  "reconcile",
		Usage: "replay game history and compare it with the stored totals",
		Action: func(c *cli.Context) error {
			return withApp(c, func(ctx context.Context, a *app.App) error {
				report, err := a.Modules.Leaderboard.LeaderboardService.Reconcile(ctx)
				var inconsistent *sessiondomain.ConsistencyError
				if errors.As(err, &inconsistent) {
					_ = printJSON(c, inconsistent.Mismatches)
					return cli.Exit("ledger is inconsistent", 2)
				}
				if err != nil {
					return err
				}
				return printJSON(c, report)
			})
		},
	}
}

func rebuildCommand() *cli.Command {
	return &cli.Command{
		Name:  "rebuild",
		Usage: "overwrite stored totals with a replay of game history",
		Action: func(c *cli.Context) error {
			return withApp(c, func(ctx context.Context, a *app.App) error {
				report, err := a.Modules.Leaderboard.LeaderboardService.Rebuild(ctx)
				if err != nil {
					return err
				}
				if err := handlerwrapper.Publish(ctx, a.EventBus, handlerwrapper.Result{
					Topic: ledgerevents.UpdatedV1,
					Payload: ledgerevents.UpdatedPayloadV1{
						Source:     ledgerevents.SourceRebuild,
						OccurredAt: report.CheckedAt,
					},
				}); err != nil {
					fmt.Fprintf(c.App.ErrWriter, "warning: ledger update not announced: %v\n", err)
				}
				return printJSON(c, report)
			})
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write the standings workbook",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Value: "singles", Usage: "singles or doubles"},
			&cli.IntFlag{Name: "threshold", Value: -1, Usage: "qualification threshold; negative uses the configured one"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "standings.xlsx", Usage: "output file"},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(ctx context.Context, a *app.App) error {
				q := leaderboardservice.Query{Mode: c.String("mode")}
				if t := c.Int("threshold"); t >= 0 {
					q.Threshold = &t
				}
				data, err := a.Modules.Leaderboard.LeaderboardService.ExportStandings(ctx, q)
				if err != nil {
					return err
				}
				if err := os.WriteFile(c.String("out"), data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", c.String("out"), err)
				}
				fmt.Fprintf(c.App.Writer, "wrote %s\n", c.String("out"))
				return nil
			})
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:      "token",
		Usage:     "issue a bearer token for a registered player",
		ArgsUsage: "[player-id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "player", Aliases: []string{"p"}, Usage: "player id the token is issued to"},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime; zero uses the configured default"},
		},
		Action: func(c *cli.Context) error {
			playerID := c.String("player")
			if playerID == "" {
				playerID = c.Args().First()
			}
			if playerID == "" {
				return cli.Exit("usage: doubles token --player <player-id>", 1)
			}
			return withApp(c, func(ctx context.Context, a *app.App) error {
				resp, err := a.Modules.Auth.GetService().IssueToken(ctx, playerID, c.Duration("ttl"))
				if err != nil {
					return err
				}
				return printJSON(c, resp)
			})
		},
	}
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// File: cmd/explore.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nullgrad/wayward/api/schemas"
	"github.com/nullgrad/wayward/internal/config"
	"github.com/nullgrad/wayward/internal/observability"
	"github.com/nullgrad/wayward/internal/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// sessionReport is the per-session slice of the explore command's JSON
// output.
type sessionReport struct {
	Stats   *schemas.SessionStats   `json:"stats"`
	Metrics *schemas.SessionMetrics `json:"metrics"`
}

// exploreReport is the explore command's final JSON output.
type exploreReport struct {
	StartURL string                  `json:"startUrl"`
	Sessions []sessionReport         `json:"sessions"`
	Frontier []schemas.FrontierEntry `json:"frontier,omitempty"`
}

// newExploreCmd creates and configures the `explore` command.
func newExploreCmd() *cobra.Command {
	exploreCmd := &cobra.Command{
		Use:   "explore [url]",
		Short: "Autonomously explores a website from the given start URL",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their Viper keys so command-line flags override
			// config file and environment values with the right precedence.
			binds := map[string]string{
				"explorer.strategy":    "strategy",
				"explorer.epsilon":     "epsilon",
				"explorer.seed":        "seed",
				"session.max_actions":  "max-actions",
				"session.max_duration": "max-duration",
				"browser.headless":     "headless",
			}
			for key, flag := range binds {
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			var cfg config.Config
			if err := viper.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("failed to unmarshal config with flag overrides: %w", err)
			}

			startURL := args[0]
			if !strings.HasPrefix(startURL, "http://") && !strings.HasPrefix(startURL, "https://") {
				startURL = "https://" + startURL
			}

			sessions, _ := cmd.Flags().GetInt("sessions")
			if sessions < 1 {
				sessions = 1
			}
			output, _ := cmd.Flags().GetString("output")
			dumpFrontier, _ := cmd.Flags().GetBool("frontier")

			logger.Info("Starting exploration",
				zap.String("startURL", startURL),
				zap.Int("sessions", sessions),
				zap.String("strategy", cfg.ExplorerCfg.Strategy),
				zap.Int("maxActions", cfg.SessionCfg.MaxActions))

			components, err := service.NewComponentFactory().Create(ctx, &cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize exploration components: %w", err)
			}
			defer components.Shutdown()

			report := exploreReport{StartURL: startURL, Sessions: make([]sessionReport, sessions)}
			var mu sync.Mutex

			g, groupCtx := errgroup.WithContext(ctx)
			for i := 0; i < sessions; i++ {
				i := i
				g.Go(func() error {
					rep, err := runExploration(groupCtx, components, startURL, fmt.Sprintf("session-%d", i+1))
					if err != nil {
						return err
					}
					mu.Lock()
					report.Sessions[i] = *rep
					mu.Unlock()
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Warn("Exploration aborted by user signal")
					return fmt.Errorf("exploration aborted")
				}
				return err
			}

			if dumpFrontier {
				report.Frontier = components.Frontier.Snapshot()
			}

			data, err := json.MarshalIndent(&report, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal exploration report: %w", err)
			}
			if output != "" {
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("failed to write report to %s: %w", output, err)
				}
				logger.Info("Report written", zap.String("path", output))
			} else {
				fmt.Println(string(data))
			}
			return nil
		},
	}

	exploreCmd.Flags().IntP("sessions", "n", 1, "Number of concurrent exploration sessions")
	exploreCmd.Flags().StringP("output", "o", "", "Write the JSON report to a file instead of stdout")
	exploreCmd.Flags().Bool("frontier", false, "Include the frontier snapshot in the report")

	// Config override flags.
	exploreCmd.Flags().StringP("strategy", "s", "curiosity", "Exploration strategy: curiosity, coverage, task, random")
	exploreCmd.Flags().Float64("epsilon", 0.15, "Exploration rate for the option scheduler")
	exploreCmd.Flags().Int64("seed", 0, "RNG seed; 0 means time-seeded")
	exploreCmd.Flags().Int("max-actions", 100, "Maximum actions per session")
	exploreCmd.Flags().Duration("max-duration", 0, "Maximum wall-clock time per session (0 uses the config value)")
	exploreCmd.Flags().Bool("headless", true, "Run the browser headless")

	return exploreCmd
}

// runExploration drives one session to completion: start, step until
// the engine reports done, then collect the read-only views.
func runExploration(ctx context.Context, components *service.Components, startURL, label string) (*sessionReport, error) {
	logger := observability.GetLogger().With(zap.String("label", label))

	orch, err := components.NewExplorer(label)
	if err != nil {
		return nil, err
	}

	sessionID, err := orch.StartSession(ctx, startURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to start session: %w", label, err)
	}

	for {
		if ctx.Err() != nil {
			_ = orch.EndSession(sessionID)
			break
		}
		result, err := orch.Step(ctx, sessionID)
		if err != nil {
			_ = orch.EndSession(sessionID)
			return nil, fmt.Errorf("%s: step failed: %w", label, err)
		}
		logger.Debug("Step complete",
			zap.String("kind", string(result.Action.Kind)),
			zap.Bool("success", result.Action.Success),
			zap.Float64("reward", result.Reward.Total),
			zap.String("url", result.NewState.URL))
		if result.Done {
			break
		}
	}

	stats, err := orch.SessionStats(sessionID)
	if err != nil {
		return nil, err
	}
	metrics, err := orch.SessionMetrics(sessionID)
	if err != nil {
		return nil, err
	}

	logger.Info("Session complete",
		zap.Int("actions", stats.ActionsTaken),
		zap.Int("pages", stats.PagesExplored),
		zap.Float64("cumulativeReward", stats.CumulativeReward),
		zap.Float64("entropy", metrics.ActionTypeEntropy))

	return &sessionReport{Stats: stats, Metrics: metrics}, nil
}

func init() {
	rootCmd.AddCommand(newExploreCmd())
}

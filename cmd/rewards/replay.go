package main

import (
	"errors"

	"github.com/danielpatrickdp/agent-rewards/internal/builder"
	"github.com/danielpatrickdp/agent-rewards/internal/history"
	"github.com/danielpatrickdp/agent-rewards/internal/profile"
	"github.com/danielpatrickdp/agent-rewards/internal/replay"
	"github.com/spf13/cobra"
)

var (
	replayFixture   string
	replayFunction  string
	replayHistory   bool
	replayLimit     int
	replayTolerance float64
	replayStrict    bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Re-score a fixture or recorded history",
	Long: `Re-score recorded contexts with the active profile and compare
against the expected scores and gate actions.

With --fixture the cases come from a JSON fixture. With --from-history
they come from the history database, so a changed profile can be
diffed against what was recorded. --strict exits non-zero on drift.

Examples:
  rewards replay --fixture testdata/basic_session.json
  rewards replay --from-history --function default --limit 100 --strict`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (replayFixture == "") == !replayHistory {
			return errors.New("exactly one of --fixture or --from-history is required")
		}

		p, b, err := loadProfile()
		if err != nil {
			return err
		}

		cfg := replay.ReplayConfig{GateConfig: p.GateConfig(), Tolerance: replayTolerance}

		var results []replay.ReplayResult
		if replayFixture != "" {
			f, err := replay.LoadFixture(replayFixture)
			if err != nil {
				return err
			}
			cfg = f.Config.ToReplayConfig(p.GateConfig())
			if cmd.Flags().Changed("tolerance") {
				cfg.Tolerance = replayTolerance
			}
			function := replayFunction
			if function == "" {
				function = f.Function
			}
			fn, err := resolveFunction(p, b, function)
			if err != nil {
				return err
			}
			results = replay.Replay(fn, f.ToCases(), cfg, logger)
		} else {
			results, err = replayRecorded(p, b, cfg)
			if err != nil {
				return err
			}
		}

		if err := printReplay(cmd.OutOrStdout(), output, results); err != nil {
			return err
		}
		if s := replay.Summarize(results); replayStrict && (s.Drifts > 0 || s.GateDrifts > 0) {
			return errors.New("replay drift detected")
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayFixture, "fixture", "", "JSON fixture file")
	replayCmd.Flags().BoolVar(&replayHistory, "from-history", false, "Replay recorded evaluations")
	replayCmd.Flags().StringVarP(&replayFunction, "function", "f", "", "Function to replay (default: profile composite)")
	replayCmd.Flags().IntVarP(&replayLimit, "limit", "n", 100, "Most recent recorded evaluations to replay")
	replayCmd.Flags().Float64Var(&replayTolerance, "tolerance", replay.DefaultTolerance, "Absolute score tolerance")
	replayCmd.Flags().BoolVar(&replayStrict, "strict", false, "Exit non-zero when any case drifts")
	rootCmd.AddCommand(replayCmd)
}

// replayRecorded re-scores recorded evaluations. With --function only that
// function's records are replayed. Otherwise each record is re-scored with
// the function that produced it; records of functions the profile no longer
// defines are skipped.
func replayRecorded(p *profile.Profile, b *builder.Builder, cfg replay.ReplayConfig) ([]replay.ReplayResult, error) {
	store, err := history.NewStore(appConfig.DBPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if replayFunction != "" {
		fn, err := resolveFunction(p, b, replayFunction)
		if err != nil {
			return nil, err
		}
		records, err := store.ListByFunction(fn.Name(), replayLimit)
		if err != nil {
			return nil, err
		}
		return replay.Replay(fn, replay.FromHistory(records), cfg, logger), nil
	}

	records, err := store.List(replayLimit)
	if err != nil {
		return nil, err
	}
	var order []string
	groups := make(map[string][]history.Record)
	for _, rec := range records {
		if _, ok := groups[rec.Function]; !ok {
			order = append(order, rec.Function)
		}
		groups[rec.Function] = append(groups[rec.Function], rec)
	}

	var results []replay.ReplayResult
	for _, name := range order {
		fn, err := resolveFunction(p, b, name)
		if err != nil {
			logger.Warn("skipping recorded function missing from profile",
				"function", name, "evaluations", len(groups[name]))
			continue
		}
		results = append(results, replay.Replay(fn, replay.FromHistory(groups[name]), cfg, logger)...)
	}
	return results, nil
}

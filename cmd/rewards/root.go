package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/danielpatrickdp/agent-rewards/internal/builder"
	"github.com/danielpatrickdp/agent-rewards/internal/config"
	"github.com/danielpatrickdp/agent-rewards/internal/logging"
	"github.com/danielpatrickdp/agent-rewards/internal/profile"
	"github.com/danielpatrickdp/agent-rewards/internal/reward"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	output  string

	// Resolved in PersistentPreRunE
	appConfig *config.Config
	logger    *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rewards",
	Short: "Reward scoring for agent steps",
	Long: `rewards scores agent steps with configurable reward functions.

A reward profile (YAML) declares the functions, the composite that
combines them, and the gate thresholds. Without a profile the built-in
default (completion 0.7, relevance 0.3) is used.

Commands:
  score      Score one context
  functions  List the functions a profile registers
  serve      Run the gRPC reward service
  history    Show recorded evaluations
  replay     Re-score a fixture or recorded history`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch output {
		case "json", "table", "yaml":
		default:
			return fmt.Errorf("unknown output format %q (want json, table or yaml)", output)
		}
		cfg, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		appConfig = cfg
		logger = logging.New(logging.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: cmd.ErrOrStderr(),
		})
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ./rewards.yaml)")
	pf.StringVarP(&output, "output", "o", "table", "Output format (json, table, yaml)")
	pf.String("profile", "", "Reward profile YAML (default: built-in profile)")
	pf.String("db", "", "History database path")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-format", "", "Log format (text, json)")
}

// loadProfile returns the configured profile and its builder.
func loadProfile() (*profile.Profile, *builder.Builder, error) {
	p := profile.Default()
	if appConfig != nil && appConfig.ProfilePath != "" {
		loaded, err := profile.Load(appConfig.ProfilePath)
		if err != nil {
			return nil, nil, err
		}
		p = loaded
	}
	b, err := p.Builder(logger)
	if err != nil {
		return nil, nil, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	return p, b, nil
}

// resolveFunction accepts a registry key, a function's own name as stored in
// history, or the composite name. Empty selects the composite.
func resolveFunction(p *profile.Profile, b *builder.Builder, name string) (reward.Function, error) {
	if name == "" {
		return p.Resolve(b, "")
	}
	if fn, ok := b.Get(name); ok {
		return fn, nil
	}
	for _, key := range b.Names() {
		if fn, ok := b.Get(key); ok && fn.Name() == name {
			return fn, nil
		}
	}
	if p.Composite != nil {
		if c, err := p.BuildComposite(b); err == nil && c.Name() == name {
			return c, nil
		}
	}
	return p.Resolve(b, name)
}

package main

import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/agent-rewards/internal/eval"
	"github.com/danielpatrickdp/agent-rewards/internal/history"
	"github.com/spf13/cobra"
)

var (
	historyFunction string
	historyLimit    int
	historySummary  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded evaluations",
	Long: `List recorded evaluations, newest first, or summarize the score
history of one function.

Examples:
  rewards history --db history.db --limit 50
  rewards history --function default --summary`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.NewStore(appConfig.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		function, err := recordedName(historyFunction)
		if err != nil {
			return err
		}
		if historySummary {
			if function == "" {
				return errors.New("--summary requires --function")
			}
			scores, err := store.Scores(function)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), output, eval.Summarize(function, scores))
		}

		var records []history.Record
		if function != "" {
			records, err = store.ListByFunction(function, historyLimit)
		} else {
			records, err = store.List(historyLimit)
		}
		if err != nil {
			return fmt.Errorf("list history: %w", err)
		}
		return printHistory(cmd.OutOrStdout(), output, records)
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyFunction, "function", "f", "", "Only show this function")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Show N most recent evaluations")
	historyCmd.Flags().BoolVar(&historySummary, "summary", false, "Summarize the function's score history")
	rootCmd.AddCommand(historyCmd)
}

// recordedName maps a CLI function name to the name history stores, which
// is the function's own name. Names the profile does not resolve are used
// as given so records of older profiles stay reachable.
func recordedName(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	p, b, err := loadProfile()
	if err != nil {
		return "", err
	}
	fn, err := resolveFunction(p, b, name)
	if err != nil {
		return name, nil
	}
	return fn.Name(), nil
}

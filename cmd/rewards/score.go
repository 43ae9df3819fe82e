package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/danielpatrickdp/agent-rewards/internal/eval"
	"github.com/danielpatrickdp/agent-rewards/internal/gate"
	"github.com/danielpatrickdp/agent-rewards/internal/history"
	"github.com/danielpatrickdp/agent-rewards/internal/reward"
	"github.com/spf13/cobra"
)

var (
	scoreFunction string
	scoreRecord   bool
	scoreNoGate   bool
)

var scoreCmd = &cobra.Command{
	Use:   "score [context.json]",
	Short: "Score one context",
	Long: `Score one agent step with the profile composite or a single
registered function.

The context is a JSON object with agent_state, action, result and
metadata fields, read from the given file or from stdin.

Examples:
  rewards score step.json
  echo '{"agent_state":{"completed":true}}' | rewards score
  rewards score step.json -f relevance -o json
  rewards score step.json --record --db history.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		rc, err := readContext(path, cmd.InOrStdin())
		if err != nil {
			return err
		}

		p, b, err := loadProfile()
		if err != nil {
			return err
		}
		fn, err := resolveFunction(p, b, scoreFunction)
		if err != nil {
			return err
		}

		out := scoreOutput{Evaluation: eval.NewEvaluator(fn, logger).Evaluate(rc)}
		gateAction := ""
		if !scoreNoGate {
			d := gate.NewGate(p.GateConfig()).Evaluate(out.Evaluation)
			out.Gate = &d
			gateAction = d.Action
		}

		if scoreRecord {
			store, err := history.NewStore(appConfig.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()
			if _, err := store.Record(history.FromEvaluation(out.Evaluation, rc, gateAction)); err != nil {
				return err
			}
			logger.Info("evaluation recorded", "id", out.Evaluation.ID, "db", appConfig.DBPath)
		}

		return printScore(cmd.OutOrStdout(), output, out)
	},
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreFunction, "function", "f", "", "Registered function name (default: profile composite)")
	scoreCmd.Flags().BoolVar(&scoreRecord, "record", false, "Record the evaluation in the history database")
	scoreCmd.Flags().BoolVar(&scoreNoGate, "no-gate", false, "Skip the gate decision")
	rootCmd.AddCommand(scoreCmd)
}

// readContext decodes a reward context from path, or from stdin when path
// is "-".
func readContext(path string, stdin io.Reader) (reward.Context, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return reward.Context{}, fmt.Errorf("read context: %w", err)
	}

	var rc reward.Context
	if err := json.Unmarshal(data, &rc); err != nil {
		return reward.Context{}, fmt.Errorf("parse context: %w", err)
	}
	return reward.NewContext(rc.AgentState, rc.Action, rc.Result, rc.Metadata), nil
}

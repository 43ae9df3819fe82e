package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/danielpatrickdp/agent-rewards/internal/eval"
	"github.com/danielpatrickdp/agent-rewards/internal/gate"
	"github.com/danielpatrickdp/agent-rewards/internal/history"
	"github.com/danielpatrickdp/agent-rewards/internal/replay"
	"github.com/danielpatrickdp/agent-rewards/internal/transport"
	"gopkg.in/yaml.v3"
)

// #region encode
// writeStructured writes v as JSON or YAML. It reports false for any other
// format so the caller can fall back to a table.
func writeStructured(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return true, enc.Encode(v)
	}
	return false, nil
}

// #endregion encode

// #region score-output
type scoreOutput struct {
	Evaluation eval.Evaluation    `json:"evaluation" yaml:"evaluation"`
	Gate       *gate.GateDecision `json:"gate,omitempty" yaml:"gate,omitempty"`
}

func printScore(w io.Writer, format string, out scoreOutput) error {
	if ok, err := writeStructured(w, format, out); ok {
		return err
	}

	ev := out.Evaluation
	fmt.Fprintf(w, "Function: %s\n", ev.Function)
	if ev.Action != "" {
		fmt.Fprintf(w, "Action:   %s\n", ev.Action)
	}
	fmt.Fprintf(w, "Score:    %.4f\n", ev.Score)
	if ev.Method != "" {
		fmt.Fprintf(w, "Method:   %s\n", ev.Method)
	}
	if out.Gate != nil {
		fmt.Fprintf(w, "Gate:     %s (%s)\n", out.Gate.Action, out.Gate.Reason)
	}

	if len(ev.Components) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "COMPONENT\tWEIGHT\tSCORE\tWEIGHTED")
		for _, c := range ev.Components {
			fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\n", c.Name, c.Weight, c.Score, c.Weighted)
		}
		fmt.Fprintf(tw, "%s\t\t\t%.4f\n", "total", ev.ComponentSum())
		return tw.Flush()
	}
	return nil
}

// #endregion score-output

// #region functions-output
func printFunctions(w io.Writer, format string, fns []transport.FunctionInfo) error {
	if ok, err := writeStructured(w, format, fns); ok {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tFUNCTION\tDESCRIPTION")
	for _, f := range fns {
		name := f.Name
		if f.Default {
			name += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, f.Function, f.Description)
	}
	return tw.Flush()
}

// #endregion functions-output

// #region history-output
type historyRow struct {
	ID        string  `json:"id" yaml:"id"`
	Function  string  `json:"function" yaml:"function"`
	Action    string  `json:"action,omitempty" yaml:"action,omitempty"`
	Score     float64 `json:"score" yaml:"score"`
	Gate      string  `json:"gate,omitempty" yaml:"gate,omitempty"`
	CreatedAt string  `json:"created_at" yaml:"created_at"`
}

func historyRows(records []history.Record) []historyRow {
	rows := make([]historyRow, len(records))
	for i, r := range records {
		rows[i] = historyRow{
			ID:        r.ID,
			Function:  r.Function,
			Action:    r.Action,
			Score:     r.Score,
			Gate:      r.GateAction,
			CreatedAt: r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}
	return rows
}

func printHistory(w io.Writer, format string, records []history.Record) error {
	rows := historyRows(records)
	if ok, err := writeStructured(w, format, rows); ok {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "no evaluations recorded")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFUNCTION\tACTION\tSCORE\tGATE\tTIME")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.4f\t%s\t%s\n",
			shortID(r.ID), r.Function, dash(r.Action), r.Score, dash(r.Gate), r.CreatedAt)
	}
	return tw.Flush()
}

func printSummary(w io.Writer, format string, s eval.Summary) error {
	if ok, err := writeStructured(w, format, s); ok {
		return err
	}
	fmt.Fprintf(w, "Function:          %s\n", s.Function)
	fmt.Fprintf(w, "Evaluations:       %d\n", s.TotalEvaluations)
	fmt.Fprintf(w, "Current reward:    %.4f\n", s.CurrentReward)
	fmt.Fprintf(w, "Average reward:    %.4f\n", s.AverageReward)
	fmt.Fprintf(w, "Std:               %.4f\n", s.RewardStd)
	fmt.Fprintf(w, "Trend:             %+.4f\n", s.RewardTrend)
	fmt.Fprintf(w, "Improvement rate:  %.2f%%\n", s.ImprovementRate*100)
	if d := s.Distribution; d != nil {
		fmt.Fprintf(w, "Distribution:      min=%.4f q25=%.4f median=%.4f q75=%.4f max=%.4f\n",
			d.Min, d.Q25, d.Median, d.Q75, d.Max)
	}
	return nil
}

// #endregion history-output

// #region replay-output
type replayRow struct {
	ID       string   `json:"id" yaml:"id"`
	Action   string   `json:"action" yaml:"action"`
	Score    float64  `json:"score" yaml:"score"`
	Expected *float64 `json:"expected,omitempty" yaml:"expected,omitempty"`
	Delta    float64  `json:"delta" yaml:"delta"`
	Gate     string   `json:"gate" yaml:"gate"`
	GateDiff bool     `json:"gate_drift,omitempty" yaml:"gate_drift,omitempty"`
}

type replayOutput struct {
	Results []replayRow          `json:"results" yaml:"results"`
	Summary replay.ReplaySummary `json:"summary" yaml:"summary"`
}

func printReplay(w io.Writer, format string, results []replay.ReplayResult) error {
	out := replayOutput{Summary: replay.Summarize(results)}
	for _, r := range results {
		out.Results = append(out.Results, replayRow{
			ID:       r.ID,
			Action:   r.Action,
			Score:    r.Score,
			Expected: r.Expected,
			Delta:    r.Delta,
			Gate:     r.Gate.Action,
			GateDiff: r.GateDrift,
		})
	}
	if ok, err := writeStructured(w, format, out); ok {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CASE\tRESULT\tSCORE\tEXPECTED\tDELTA\tGATE")
	for _, r := range out.Results {
		expected := "-"
		if r.Expected != nil {
			expected = fmt.Sprintf("%.4f", *r.Expected)
		}
		gateCol := r.Gate
		if r.GateDiff {
			gateCol += " (drift)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%s\t%+.4f\t%s\n",
			shortID(r.ID), r.Action, r.Score, expected, r.Delta, gateCol)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := out.Summary
	fmt.Fprintf(w, "\n%d cases: %d match, %d drift, %d unscored; gate %d accept, %d reject, %d drift; mean |delta| %.4f, max %.4f\n",
		s.TotalCases, s.Matches, s.Drifts, s.Unscored, s.GateAccepts, s.GateRejects, s.GateDrifts,
		s.MeanAbsDelta, s.MaxAbsDelta)
	return nil
}

// #endregion replay-output

// #region helpers
func shortID(id string) string {
	if len(id) > 8 && strings.Count(id, "-") == 4 {
		return id[:8]
	}
	return id
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// #endregion helpers

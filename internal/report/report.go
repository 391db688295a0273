// SPDX-FileCopyrightText: 2025 The Epanalyze Authors
// SPDX-License-Identifier: Apache-2.0

// Package report renders analysis results for the terminal. It is a thin
// consumer of the turbostat and experiment packages and holds no logic of
// its own beyond formatting.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/energy-proportionality/epanalyze/internal/experiment"
	"github.com/energy-proportionality/epanalyze/internal/turbostat"
)

const bannerWidth = 60

// Turbostat renders per-CPU and aggregate statistics of a parsed log
func Turbostat(w io.Writer, analysis *turbostat.Analysis) {
	banner(w, "TURBOSTAT ANALYSIS")

	fmt.Fprintf(w, "\nTotal Samples: %d\n", analysis.TotalSamples)
	fmt.Fprintf(w, "CPUs Analyzed: %v\n\n", analysis.CPUs)

	rows := make([][]string, 0, len(analysis.CPUs))
	for _, cpu := range analysis.CPUs {
		stats := analysis.PerCPU[cpu]
		rows = append(rows, []string{
			strconv.Itoa(cpu),
			strconv.Itoa(stats.Samples),
			fmt.Sprintf("%.2f", stats.C6Avg),
			fmt.Sprintf("%.2f", stats.C6Min),
			fmt.Sprintf("%.2f", stats.C6Max),
			fmt.Sprintf("%.2f", stats.BusyAvg),
			fmt.Sprintf("%.0f", stats.FreqAvg),
		})
	}
	table := tablewriter.NewWriter(w)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Formatting.Alignment = tw.AlignRight
	})
	table.Header([]string{"CPU", "Samples", "C6 Avg(%)", "C6 Min(%)", "C6 Max(%)", "Busy(%)", "Freq(MHz)"})
	_ = table.Bulk(rows)
	_ = table.Render()

	fmt.Fprintf(w, "\nAverage C6 Residency: %.2f%% (+/- %.2f%%)\n", analysis.C6Avg, analysis.C6Stdev)
	fmt.Fprintf(w, "Average Busy: %.2f%%\n", analysis.BusyAvg)
	if analysis.PkgWattAvg != nil {
		fmt.Fprintf(w, "Average Package Power: %.2f W\n", *analysis.PkgWattAvg)
	}
}

// Experiment renders the checkpoint/restore experiment report
func Experiment(w io.Writer, results *experiment.Results, analysis experiment.EnergyAnalysis, assumptions experiment.Assumptions) {
	banner(w, "ENERGY PROPORTIONALITY EXPERIMENT ANALYSIS")

	fmt.Fprintf(w, "\nNumber of Runs: %d\n", len(results.Runs))

	section(w, "CHECKPOINT/RESTORE PERFORMANCE")
	latencySection(w, "Checkpoint", results.CheckpointStats)
	latencySection(w, "Restore", results.RestoreStats)
	fmt.Fprintf(w, "\n  Total Overhead: %.1f ms\n", results.TotalOverheadMS())

	section(w, "C6 STATE RESIDENCY")
	fmt.Fprintf(w, "\n  Average C6 Residency: %.2f%%\n", results.AvgC6Residency())
	// the baseline section is omitted entirely when no baseline was measured
	if results.BaselineC6 != nil {
		fmt.Fprintf(w, "  Baseline (no checkpointing): %.2f%%\n", *results.BaselineC6)
		if analysis.ImprovementPercent != nil {
			fmt.Fprintf(w, "  Improvement over baseline: %+.2f%%\n", *analysis.ImprovementPercent)
		}
	}

	section(w, "ENERGY ANALYSIS")
	fmt.Fprintf(w, "\n  Assumptions: %.0f W server, %.0f%% C6 power reduction, %.0f s idle window\n",
		assumptions.ServerPowerW, assumptions.C6PowerReduction*100, results.IdleDurationS())
	fmt.Fprintf(w, "  Checkpoint/Restore Overhead: %.2f J\n", analysis.OverheadEnergyJ)
	fmt.Fprintf(w, "  Energy Saved During Idle: %.2f J\n", analysis.IdleEnergySavedJ)
	fmt.Fprintf(w, "  Net Energy Savings: %.2f J (%.1f%%)\n", analysis.NetSavingsJ, analysis.NetSavingsPercent)
	if analysis.BreakEvenUnbounded {
		fmt.Fprintf(w, "  Break-even: cannot determine (no C6 residency)\n")
	} else {
		fmt.Fprintf(w, "  Minimum Idle Duration for Savings: %.2f s\n", analysis.BreakEvenIdleS)
	}

	section(w, "PER-RUN DETAILS")
	rows := make([][]string, 0, len(results.Runs))
	for _, run := range results.Runs {
		rows = append(rows, []string{
			strconv.Itoa(run.ID),
			latencyCell(run.CheckpointMS),
			latencyCell(run.RestoreMS),
			fmt.Sprintf("%.2f", run.C6ResidencyPercent),
		})
	}
	table := tablewriter.NewWriter(w)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Formatting.Alignment = tw.AlignRight
	})
	table.Header([]string{"Run", "Checkpoint", "Restore", "C6(%)"})
	_ = table.Bulk(rows)
	_ = table.Render()
}

func latencySection(w io.Writer, phase string, statsFn func() (experiment.LatencyStats, bool)) {
	fmt.Fprintf(w, "\n  %s Latency:\n", phase)
	stats, ok := statsFn()
	if !ok {
		fmt.Fprintf(w, "    No successful %ss\n", strings.ToLower(phase))
		return
	}
	fmt.Fprintf(w, "    Average: %.1f ms\n", stats.Avg)
	fmt.Fprintf(w, "    Min: %.1f ms\n", stats.Min)
	fmt.Fprintf(w, "    Max: %.1f ms\n", stats.Max)
	if stats.Count > 1 {
		fmt.Fprintf(w, "    Std Dev: %.1f ms\n", stats.Stdev)
	}
}

func latencyCell(ms float64) string {
	if ms <= 0 {
		return "FAILED"
	}
	return fmt.Sprintf("%.0fms", ms)
}

func banner(w io.Writer, title string) {
	line(w, '=')
	fmt.Fprintf(w, "  %s\n", title)
	line(w, '=')
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w)
	line(w, '-')
	fmt.Fprintf(w, "  %s\n", title)
	line(w, '-')
}

func line(w io.Writer, c byte) {
	for i := 0; i < bannerWidth; i++ {
		fmt.Fprintf(w, "%c", c)
	}
	fmt.Fprintln(w)
}

// SPDX-FileCopyrightText: 2025 The Epanalyze Authors
// SPDX-License-Identifier: Apache-2.0

package experiment

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jszwec/csvutil"
)

// summaryRow is one metric,value,unit triple of the summary export
type summaryRow struct {
	Metric string `csv:"metric"`
	Value  string `csv:"value"`
	Unit   string `csv:"unit"`
}

// WriteSummaryCSV exports the run and energy metrics as metric,value,unit
// triples. The baseline row carries an empty value when no baseline was
// measured, and break-even renders as "inf" when it is unbounded.
func WriteSummaryCSV(w io.Writer, results *Results, analysis EnergyAnalysis) error {
	baseline := ""
	if results.BaselineC6 != nil {
		baseline = formatValue(*results.BaselineC6)
	}
	breakEven := "inf"
	if !analysis.BreakEvenUnbounded {
		breakEven = formatValue(analysis.BreakEvenIdleS)
	}

	rows := []summaryRow{
		{"num_runs", strconv.Itoa(len(results.Runs)), "count"},
		{"avg_checkpoint_ms", formatValue(results.AvgCheckpointMS()), "ms"},
		{"avg_restore_ms", formatValue(results.AvgRestoreMS()), "ms"},
		{"total_overhead_ms", formatValue(results.TotalOverheadMS()), "ms"},
		{"avg_c6_residency", formatValue(results.AvgC6Residency()), "%"},
		{"baseline_c6", baseline, "%"},
		{"net_energy_savings_j", formatValue(analysis.NetSavingsJ), "J"},
		{"net_energy_savings_percent", formatValue(analysis.NetSavingsPercent), "%"},
		{"break_even_idle_s", breakEven, "s"},
	}

	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to encode summary row %s: %w", row.Metric, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportSummaryCSV writes the summary to a new file at path
func ExportSummaryCSV(path string, results *Results, analysis EnergyAnalysis) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}

	if err := WriteSummaryCSV(f, results, analysis); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SPDX-FileCopyrightText: 2025 The Epanalyze Authors
// SPDX-License-Identifier: Apache-2.0

package experiment

import "math"

// Run holds the measurements of one checkpoint/restore repetition. A
// non-positive latency means that phase failed for this run; the run stays
// counted but is excluded from latency averages.
type Run struct {
	ID                 int     `csv:"run"`
	CheckpointMS       float64 `csv:"checkpoint_ms"`
	RestoreMS          float64 `csv:"restore_ms"`
	IdleDurationS      float64 `csv:"idle_duration_s"`
	C6ResidencyPercent float64 `csv:"c6_residency_percent"`
}

// Results is an ordered set of experiment runs plus the optional baseline C6
// residency measured without checkpointing. BaselineC6 is nil when no baseline
// file exists; downstream metrics must not conflate that with a measured zero.
type Results struct {
	Runs       []Run
	BaselineC6 *float64
}

// AvgCheckpointMS returns the mean checkpoint latency over successful runs,
// 0 when no run checkpointed successfully
func (r *Results) AvgCheckpointMS() float64 {
	return meanOrZero(r.validCheckpoints())
}

// AvgRestoreMS returns the mean restore latency over successful runs,
// 0 when no run restored successfully
func (r *Results) AvgRestoreMS() float64 {
	return meanOrZero(r.validRestores())
}

// AvgC6Residency returns the mean deep-sleep residency over all runs
func (r *Results) AvgC6Residency() float64 {
	if len(r.Runs) == 0 {
		return 0
	}
	values := make([]float64, len(r.Runs))
	for i, run := range r.Runs {
		values[i] = run.C6ResidencyPercent
	}
	return meanOrZero(values)
}

// TotalOverheadMS returns the combined average checkpoint and restore latency
func (r *Results) TotalOverheadMS() float64 {
	return r.AvgCheckpointMS() + r.AvgRestoreMS()
}

// IdleDurationS returns the configured idle window, shared by all runs of one
// experiment, 0 when there are no runs
func (r *Results) IdleDurationS() float64 {
	if len(r.Runs) == 0 {
		return 0
	}
	return r.Runs[0].IdleDurationS
}

// LatencyStats summarizes the successful measurements of one phase
type LatencyStats struct {
	Count int
	Avg   float64
	Min   float64
	Max   float64
	Stdev float64 // sample stdev; 0 for fewer than 2 measurements
}

// CheckpointStats returns latency statistics over successful checkpoints;
// ok is false when every checkpoint failed
func (r *Results) CheckpointStats() (LatencyStats, bool) {
	return latencyStats(r.validCheckpoints())
}

// RestoreStats returns latency statistics over successful restores;
// ok is false when every restore failed
func (r *Results) RestoreStats() (LatencyStats, bool) {
	return latencyStats(r.validRestores())
}

func (r *Results) validCheckpoints() []float64 {
	var values []float64
	for _, run := range r.Runs {
		if run.CheckpointMS > 0 {
			values = append(values, run.CheckpointMS)
		}
	}
	return values
}

func (r *Results) validRestores() []float64 {
	var values []float64
	for _, run := range r.Runs {
		if run.RestoreMS > 0 {
			values = append(values, run.RestoreMS)
		}
	}
	return values
}

func latencyStats(values []float64) (LatencyStats, bool) {
	if len(values) == 0 {
		return LatencyStats{}, false
	}
	stats := LatencyStats{
		Count: len(values),
		Avg:   meanOrZero(values),
		Min:   values[0],
		Max:   values[0],
	}
	for _, v := range values[1:] {
		stats.Min = math.Min(stats.Min, v)
		stats.Max = math.Max(stats.Max, v)
	}
	if len(values) > 1 {
		sum := 0.0
		for _, v := range values {
			d := v - stats.Avg
			sum += d * d
		}
		stats.Stdev = math.Sqrt(sum / float64(len(values)-1))
	}
	return stats, true
}

func meanOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

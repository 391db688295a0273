// SPDX-FileCopyrightText: 2025 The Epanalyze Authors
// SPDX-License-Identifier: Apache-2.0

package turbostat

import (
	"errors"
	"math"
	"sort"
)

// ErrNoSamples indicates that no samples remained after filtering. Statistics
// over an empty set are ill-defined, so this is a distinguished outcome
// rather than a computed zero.
var ErrNoSamples = errors.New("no samples match the given filter")

// CPUStats holds per-CPU statistics over a sample set
type CPUStats struct {
	Samples int

	C6Avg float64
	C6Min float64
	C6Max float64

	BusyAvg float64

	// FreqAvg averages AvgMHz over samples with a value greater than 0;
	// 0 is the "not reported" sentinel and must not bias the average
	FreqAvg float64
}

// Analysis holds per-CPU and whole-run statistics over a sample set
type Analysis struct {
	TotalSamples int
	CPUs         []int // ascending
	PerCPU       map[int]CPUStats

	C6Avg   float64
	C6Stdev float64 // population stdev; 0 for fewer than 2 samples
	BusyAvg float64

	// PkgWattAvg is nil when no sample in the set reports package power
	PkgWattAvg *float64
}

// Filter returns the samples whose CPU index is in cpus. A nil or empty cpus
// list returns the input unchanged.
func Filter(samples []Sample, cpus []int) []Sample {
	if len(cpus) == 0 {
		return samples
	}
	allowed := make(map[int]bool, len(cpus))
	for _, cpu := range cpus {
		allowed[cpu] = true
	}
	filtered := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if allowed[s.CPU] {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// Analyze computes statistics over samples, optionally restricted to the CPUs
// in cpuFilter. A nil or empty filter includes all CPUs. Filtering happens
// before any statistic is computed; an empty result yields ErrNoSamples.
func Analyze(samples []Sample, cpuFilter []int) (*Analysis, error) {
	samples = Filter(samples, cpuFilter)

	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	byCPU := map[int][]Sample{}
	for _, s := range samples {
		byCPU[s.CPU] = append(byCPU[s.CPU], s)
	}

	analysis := &Analysis{
		TotalSamples: len(samples),
		CPUs:         make([]int, 0, len(byCPU)),
		PerCPU:       make(map[int]CPUStats, len(byCPU)),
	}

	for cpu, cpuSamples := range byCPU {
		analysis.CPUs = append(analysis.CPUs, cpu)

		c6 := make([]float64, len(cpuSamples))
		busy := make([]float64, len(cpuSamples))
		var freq []float64
		for i, s := range cpuSamples {
			c6[i] = s.C6Percent
			busy[i] = s.BusyPercent
			if s.AvgMHz > 0 {
				freq = append(freq, s.AvgMHz)
			}
		}

		c6Min, c6Max := minMax(c6)
		analysis.PerCPU[cpu] = CPUStats{
			Samples: len(cpuSamples),
			C6Avg:   mean(c6),
			C6Min:   c6Min,
			C6Max:   c6Max,
			BusyAvg: mean(busy),
			FreqAvg: meanOrZero(freq),
		}
	}
	sort.Ints(analysis.CPUs)

	allC6 := make([]float64, len(samples))
	allBusy := make([]float64, len(samples))
	var allPkgWatt []float64
	for i, s := range samples {
		allC6[i] = s.C6Percent
		allBusy[i] = s.BusyPercent
		if s.PkgWatt != nil {
			allPkgWatt = append(allPkgWatt, *s.PkgWatt)
		}
	}

	analysis.C6Avg = mean(allC6)
	analysis.C6Stdev = stdev(allC6)
	analysis.BusyAvg = mean(allBusy)
	if len(allPkgWatt) > 0 {
		avg := mean(allPkgWatt)
		analysis.PkgWattAvg = &avg
	}

	return analysis, nil
}

// mean returns the arithmetic mean of values; values must be non-empty
func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return mean(values)
}

// stdev returns the population standard deviation, 0 for fewer than 2 values
func stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func minMax(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

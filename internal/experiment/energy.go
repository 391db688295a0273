// SPDX-FileCopyrightText: 2025 The Epanalyze Authors
// SPDX-License-Identifier: Apache-2.0

package experiment

// Assumptions describes the modeled hardware for the energy estimate. The
// values are configuration, not measurements, so alternate hardware profiles
// can be modeled without code changes.
type Assumptions struct {
	// ServerPowerW is the assumed whole-server power draw in watts
	ServerPowerW float64
	// C6PowerReduction is the fractional power reduction in the C6 state
	C6PowerReduction float64
}

// DefaultAssumptions returns the default hardware profile
func DefaultAssumptions() Assumptions {
	return Assumptions{
		ServerPowerW:     100,
		C6PowerReduction: 0.85,
	}
}

// EnergyAnalysis holds the estimated energy tradeoff of checkpointing
type EnergyAnalysis struct {
	OverheadEnergyJ  float64
	IdleEnergySavedJ float64
	NetSavingsJ      float64

	// NetSavingsPercent is net savings relative to the energy the server
	// would draw over the idle window; 0 when the idle window is 0
	NetSavingsPercent float64

	// BreakEvenIdleS is the minimum idle duration for positive savings.
	// With zero C6 residency the overhead can never be recovered and
	// BreakEvenUnbounded is set instead.
	BreakEvenIdleS     float64
	BreakEvenUnbounded bool

	// ImprovementPercent is residency improvement over the baseline, nil
	// when no baseline was measured
	ImprovementPercent *float64
}

// ComputeEnergy estimates whether the checkpoint/restore overhead pays off
// against the energy saved while idling in C6
func ComputeEnergy(results *Results, assumptions Assumptions) EnergyAnalysis {
	idleDurationS := results.IdleDurationS()
	overheadS := results.TotalOverheadMS() / 1000
	residencyFraction := results.AvgC6Residency() / 100

	analysis := EnergyAnalysis{
		OverheadEnergyJ: assumptions.ServerPowerW * overheadS,
		IdleEnergySavedJ: assumptions.ServerPowerW * assumptions.C6PowerReduction *
			idleDurationS * residencyFraction,
	}
	analysis.NetSavingsJ = analysis.IdleEnergySavedJ - analysis.OverheadEnergyJ

	if idleDurationS > 0 {
		analysis.NetSavingsPercent = analysis.NetSavingsJ / (assumptions.ServerPowerW * idleDurationS) * 100
	}

	if residencyFraction > 0 {
		analysis.BreakEvenIdleS = overheadS / (assumptions.C6PowerReduction * residencyFraction)
	} else {
		analysis.BreakEvenUnbounded = true
	}

	if results.BaselineC6 != nil {
		improvement := results.AvgC6Residency() - *results.BaselineC6
		analysis.ImprovementPercent = &improvement
	}

	return analysis
}

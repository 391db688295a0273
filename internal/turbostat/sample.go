// SPDX-FileCopyrightText: 2025 The Epanalyze Authors
// SPDX-License-Identifier: Apache-2.0

package turbostat

// Sample is a single per-CPU turbostat measurement interval.
//
// Frequency and residency fields default to 0 when the log's header does not
// carry the corresponding column. The RAPL power fields are pointers instead:
// a 0 W reading is a legitimate measurement, so absence of the column must be
// distinguishable from a measured zero. The CPU index is load-bearing and is
// never defaulted; rows without a concrete index (package/core aggregate rows)
// never become Samples.
type Sample struct {
	CPU         int     `csv:"cpu"`
	AvgMHz      float64 `csv:"avg_mhz"`
	BusyPercent float64 `csv:"busy_percent"`
	BzyMHz      float64 `csv:"bzy_mhz"`
	C1Percent   float64 `csv:"c1_percent"`
	C6Percent   float64 `csv:"c6_percent"`
	C7Percent   float64 `csv:"c7_percent"`

	PkgWatt  *float64 `csv:"pkg_watt"`
	CoreWatt *float64 `csv:"core_watt"`
}

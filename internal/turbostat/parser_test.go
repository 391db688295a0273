// SPDX-FileCopyrightText: 2025 The Epanalyze Authors
// SPDX-License-Identifier: Apache-2.0

package turbostat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `Core	CPU	Avg_MHz	Busy%	Bzy_MHz	C1%	C6%	C7%	PkgWatt	CoreWatt
-	-	1250	42.0	2900	1.0	50.0	5.0	35.50	20.10
0	0	1500	55.2	3100	0.5	40.1	2.2	35.50	20.10
0	1	1000	28.8	2700	1.5	60.0	7.8	35.50	20.10
Core	CPU	Avg_MHz	Busy%	Bzy_MHz	C1%	C6%	C7%	PkgWatt	CoreWatt
-	-	1100	38.0	2800	1.2	55.0	6.0	33.00	18.00
0	0	1400	48.0	3000	0.8	45.5	3.1	33.00	18.00
0	1	800	28.0	2600	1.6	64.5	8.9	33.00	18.00
`

func TestParseLog(t *testing.T) {
	p := NewParser()

	samples, err := p.Parse(strings.NewReader(sampleLog))
	require.NoError(t, err)
	require.Len(t, samples, 4, "2 data rows per block, package rows excluded")

	// file order is preserved: block order, then row order
	assert.Equal(t, []int{0, 1, 0, 1}, []int{samples[0].CPU, samples[1].CPU, samples[2].CPU, samples[3].CPU})

	first := samples[0]
	assert.Equal(t, 1500.0, first.AvgMHz)
	assert.Equal(t, 55.2, first.BusyPercent)
	assert.Equal(t, 3100.0, first.BzyMHz)
	assert.Equal(t, 0.5, first.C1Percent)
	assert.Equal(t, 40.1, first.C6Percent)
	assert.Equal(t, 2.2, first.C7Percent)
	require.NotNil(t, first.PkgWatt)
	assert.Equal(t, 35.5, *first.PkgWatt)
	require.NotNil(t, first.CoreWatt)
	assert.Equal(t, 20.1, *first.CoreWatt)
}

func TestParsePackageRowSkipped(t *testing.T) {
	// a block with one per-CPU row and one package summary row
	log := "Core CPU Avg_MHz Busy% Bzy_MHz C6%\n" +
		"0 3 1500 20.0 1800 75.5\n" +
		"- - - - - -\n"

	samples, err := NewParser().Parse(strings.NewReader(log))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 3, samples[0].CPU)
	assert.Equal(t, 75.5, samples[0].C6Percent)
}

func TestParseMissingColumnsDefault(t *testing.T) {
	// minimal header: no C-states, no power columns
	log := "Core CPU Avg_MHz Busy%\n" +
		"0 0 1200 33.3\n"

	samples, err := NewParser().Parse(strings.NewReader(log))
	require.NoError(t, err)
	require.Len(t, samples, 1)

	s := samples[0]
	assert.Equal(t, 1200.0, s.AvgMHz)
	assert.Equal(t, 33.3, s.BusyPercent)
	assert.Zero(t, s.BzyMHz, "absent numeric column defaults to 0")
	assert.Zero(t, s.C6Percent, "absent numeric column defaults to 0")
	assert.Nil(t, s.PkgWatt, "absent power column stays absent, not 0")
	assert.Nil(t, s.CoreWatt)
}

func TestParseMalformedRows(t *testing.T) {
	tt := []struct {
		name string
		row  string
	}{
		{"short row", "0 0 1200"},
		{"non-numeric value", "0 0 banana 33.3"},
		{"non-numeric cpu", "0 x 1200 33.3"},
		{"negative cpu", "0 -1 1200 33.3"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			log := "Core CPU Avg_MHz Busy%\n" +
				tc.row + "\n" +
				"0 1 1000 10.0\n"

			samples, err := NewParser().Parse(strings.NewReader(log))
			require.NoError(t, err, "malformed rows never abort the parse")
			require.Len(t, samples, 1, "bad row dropped, good row kept")
			assert.Equal(t, 1, samples[0].CPU)
		})
	}
}

func TestParsePlaceholderCPUToken(t *testing.T) {
	// cpu column holds the placeholder while the line does not start with it
	log := "Core CPU Avg_MHz Busy%\n" +
		"2 - 1200 33.3\n" +
		"2 4 1300 20.0\n"

	samples, err := NewParser().Parse(strings.NewReader(log))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 4, samples[0].CPU)
}

func TestParseCPUColumnFallback(t *testing.T) {
	// header mentions CPU but does not label the column "cpu" verbatim;
	// position 1 is the compatibility fallback
	log := "Core CPU(#) Avg_MHz\n" +
		"0 7 1500\n"

	samples, err := NewParser().Parse(strings.NewReader(log))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 7, samples[0].CPU)
}

func TestParseNoHeader(t *testing.T) {
	log := "no tabular report here\n0 1 1200 33.3\n"

	samples, err := NewParser().Parse(strings.NewReader(log))
	require.NoError(t, err)
	assert.Empty(t, samples, "text without a header block yields zero samples, not an error")
}

func TestParsePreambleIgnored(t *testing.T) {
	log := "turbostat version 2023.03.17\n\n" +
		"Core CPU Avg_MHz Busy%\n" +
		"0 0 1200 33.3\n"

	samples, err := NewParser().Parse(strings.NewReader(log))
	require.NoError(t, err)
	assert.Len(t, samples, 1)
}

func TestParseIdempotent(t *testing.T) {
	p := NewParser()

	first, err := p.Parse(strings.NewReader(sampleLog))
	require.NoError(t, err)
	second, err := p.Parse(strings.NewReader(sampleLog))
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical input yields an identical sample sequence")
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "turbostat.log")
	require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0o600))

	samples, err := NewParser().ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, samples, 4)

	_, err = NewParser().ParseFile(filepath.Join(dir, "missing.log"))
	assert.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

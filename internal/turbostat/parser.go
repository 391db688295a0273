// SPDX-FileCopyrightText: 2025 The Epanalyze Authors
// SPDX-License-Identifier: Apache-2.0

package turbostat

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// placeholder marks missing or aggregate values in turbostat output
const placeholder = "-"

// Parser converts raw turbostat log text into Samples.
//
// Turbostat prints a new tabular report every interval, each introduced by a
// header line containing both "Core" and "CPU". Column sets vary across
// turbostat versions and platforms, so the parser maps header tokens to field
// positions per report block instead of relying on fixed offsets. Rows that
// fail to parse are dropped and parsing continues; partial success is the
// normal outcome for noisy hardware logs.
type Parser struct {
	logger *slog.Logger
}

type OptionFn func(*Parser)

// WithLogger sets the logger for the Parser
func WithLogger(logger *slog.Logger) OptionFn {
	return func(p *Parser) {
		p.logger = logger.With("service", "turbostat")
	}
}

// NewParser creates a turbostat log parser
func NewParser(opts ...OptionFn) *Parser {
	p := &Parser{
		logger: slog.Default().With("service", "turbostat"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// columnMap maps lower-cased header column names to their token position
type columnMap map[string]int

func newColumnMap(header string) columnMap {
	cols := strings.Fields(header)
	m := make(columnMap, len(cols))
	for i, col := range cols {
		m[strings.ToLower(col)] = i
	}
	return m
}

// cpuIndex returns the position of the cpu column. Older turbostat versions
// label the column differently; position 1 is the compatibility fallback.
func (m columnMap) cpuIndex() int {
	if idx, ok := m["cpu"]; ok {
		return idx
	}
	return 1
}

// isHeader reports whether a line introduces a new report block
func isHeader(line string) bool {
	return strings.Contains(line, "Core") && strings.Contains(line, "CPU")
}

// ParseFile parses the turbostat log at path
func (p *Parser) ParseFile(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open turbostat log: %w", err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse reads a complete turbostat log and returns one Sample per valid
// per-CPU data row, in file order. Malformed rows and aggregate rows are
// skipped; Parse only fails on read errors, never on content.
func (p *Parser) Parse(r io.Reader) ([]Sample, error) {
	var samples []Sample

	// current block state; rows before the first header are ignored
	var cols columnMap
	var numCols int
	dropped := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if isHeader(line) {
			cols = newColumnMap(line)
			numCols = len(strings.Fields(line))
			continue
		}
		if cols == nil {
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(line, placeholder) {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < numCols {
			// truncated or corrupted row
			dropped++
			continue
		}

		sample, err := parseRow(fields, cols)
		if err != nil {
			dropped++
			continue
		}
		if sample == nil {
			// package/summary row, not a per-CPU measurement
			continue
		}
		samples = append(samples, *sample)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read turbostat log: %w", err)
	}

	p.logger.Debug("Parsed turbostat log", "samples", len(samples), "dropped_rows", dropped)
	return samples, nil
}

// parseRow converts one data row into a Sample using the block's column map.
// It returns (nil, nil) for aggregate rows whose cpu token is the placeholder.
func parseRow(fields []string, cols columnMap) (*Sample, error) {
	cpuIdx := cols.cpuIndex()
	if cpuIdx >= len(fields) {
		return nil, fmt.Errorf("cpu column %d out of range", cpuIdx)
	}
	if fields[cpuIdx] == placeholder {
		return nil, nil
	}
	cpu, err := strconv.Atoi(fields[cpuIdx])
	if err != nil {
		return nil, fmt.Errorf("invalid cpu index %q: %w", fields[cpuIdx], err)
	}
	if cpu < 0 {
		// only aggregate rows carry a non-concrete index
		return nil, fmt.Errorf("negative cpu index %d", cpu)
	}

	s := &Sample{CPU: cpu}

	// columns absent from this block's header keep their zero default
	for _, fc := range []struct {
		name string
		dst  *float64
	}{
		{"avg_mhz", &s.AvgMHz},
		{"busy%", &s.BusyPercent},
		{"bzy_mhz", &s.BzyMHz},
		{"c1%", &s.C1Percent},
		{"c6%", &s.C6Percent},
		{"c7%", &s.C7Percent},
	} {
		idx, ok := cols[fc.name]
		if !ok {
			continue
		}
		v, err := parseFloatAt(fields, idx, fc.name)
		if err != nil {
			return nil, err
		}
		*fc.dst = v
	}

	// power columns stay nil when absent so that a measured 0 W is
	// distinguishable from "not reported"
	for _, fc := range []struct {
		name string
		dst  **float64
	}{
		{"pkgwatt", &s.PkgWatt},
		{"corewatt", &s.CoreWatt},
	} {
		idx, ok := cols[fc.name]
		if !ok {
			continue
		}
		v, err := parseFloatAt(fields, idx, fc.name)
		if err != nil {
			return nil, err
		}
		*fc.dst = &v
	}

	return s, nil
}

func parseFloatAt(fields []string, idx int, name string) (float64, error) {
	if idx < 0 || idx >= len(fields) {
		return 0, fmt.Errorf("column %s position %d out of range", name, idx)
	}
	v, err := strconv.ParseFloat(fields[idx], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, fields[idx], err)
	}
	return v, nil
}

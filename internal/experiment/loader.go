// SPDX-FileCopyrightText: 2025 The Epanalyze Authors
// SPDX-License-Identifier: Apache-2.0

package experiment

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
)

const (
	resultsFileName  = "results.csv"
	baselineFileName = "baseline_c6.csv"
)

// Loader reads experiment results from a results directory
type Loader struct {
	logger *slog.Logger
}

type OptionFn func(*Loader)

// WithLogger sets the logger for the Loader
func WithLogger(logger *slog.Logger) OptionFn {
	return func(l *Loader) {
		l.logger = logger.With("service", "experiment")
	}
}

// NewLoader creates an experiment results loader
func NewLoader(opts ...OptionFn) *Loader {
	l := &Loader{
		logger: slog.Default().With("service", "experiment"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads results.csv from dir, plus the optional baseline_c6.csv. A
// missing results file is an error carrying the offending path; a missing
// baseline file is a normal condition and yields a nil baseline.
func (l *Loader) Load(dir string) (*Results, error) {
	path := filepath.Join(dir, resultsFileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file %s: %w", path, err)
	}
	defer f.Close()

	runs, err := l.readRuns(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file %s: %w", path, err)
	}

	baseline, err := l.loadBaseline(filepath.Join(dir, baselineFileName))
	if err != nil {
		return nil, err
	}

	return &Results{Runs: runs, BaselineC6: baseline}, nil
}

// readRuns decodes run rows in file order. Rows that fail to decode are
// dropped and reading continues.
func (l *Loader) readRuns(r io.Reader) ([]Run, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var runs []Run
	dropped := 0
	for {
		var run Run
		err := dec.Decode(&run)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// a malformed row is dropped; anything else is a reader
			// failure and is fatal, or the loop would retry it forever
			if !isRowError(err) {
				return nil, fmt.Errorf("failed to read runs: %w", err)
			}
			dropped++
			continue
		}
		runs = append(runs, run)
	}

	l.logger.Debug("Loaded experiment runs", "runs", len(runs), "dropped_rows", dropped)
	return runs, nil
}

// isRowError reports whether err is confined to a single record: a CSV syntax
// error or a value that does not fit the Run field type. Any other error comes
// from the underlying reader and would recur on every Decode call.
func isRowError(err error) bool {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return true
	}
	var typeErr *csvutil.UnmarshalTypeError
	return errors.As(err, &typeErr)
}

// loadBaseline reads the baseline monitoring file and averages every cell of
// every column whose name contains "c6_percent". Returns nil when the file
// does not exist or holds no numeric baseline cells.
func (l *Loader) loadBaseline(path string) (*float64, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		l.logger.Debug("No baseline file", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open baseline file %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline file %s: %w", path, err)
	}

	var c6Cols []int
	for i, name := range header {
		if strings.Contains(name, "c6_percent") {
			c6Cols = append(c6Cols, i)
		}
	}

	sum, count := 0.0, 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read baseline file %s: %w", path, err)
		}
		for _, col := range c6Cols {
			if col >= len(record) {
				continue
			}
			v, err := strconv.ParseFloat(record[col], 64)
			if err != nil {
				// non-numeric baseline cell, skip
				continue
			}
			sum += v
			count++
		}
	}

	if count == 0 {
		return nil, nil
	}
	baseline := sum / float64(count)
	l.logger.Debug("Loaded baseline residency", "baseline_c6", baseline, "cells", count)
	return &baseline, nil
}

// SPDX-FileCopyrightText: 2025 The Epanalyze Authors
// SPDX-License-Identifier: Apache-2.0

package experiment

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsCSV = `run,checkpoint_ms,restore_ms,idle_duration_s,c6_residency_percent
1,100,50,30,80
2,0,60,30,70
3,200,70,30,90
`

func writeResultsDir(t *testing.T, results, baseline string) string {
	t.Helper()
	dir := t.TempDir()
	if results != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "results.csv"), []byte(results), 0o600))
	}
	if baseline != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "baseline_c6.csv"), []byte(baseline), 0o600))
	}
	return dir
}

func TestLoadResults(t *testing.T) {
	dir := writeResultsDir(t, resultsCSV, "")

	results, err := NewLoader().Load(dir)
	require.NoError(t, err)
	require.Len(t, results.Runs, 3)

	assert.Equal(t, Run{ID: 1, CheckpointMS: 100, RestoreMS: 50, IdleDurationS: 30, C6ResidencyPercent: 80}, results.Runs[0])
	assert.Equal(t, 2, results.Runs[1].ID, "run order is preserved")
	assert.Nil(t, results.BaselineC6, "no baseline file means no baseline, not zero")
}

func TestLoadResultsMissingFile(t *testing.T) {
	dir := t.TempDir()

	_, err := NewLoader().Load(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), filepath.Join(dir, "results.csv"), "error carries the offending path")
}

func TestLoadResultsMalformedRow(t *testing.T) {
	csv := `run,checkpoint_ms,restore_ms,idle_duration_s,c6_residency_percent
1,100,50,30,80
2,not-a-number,60,30,70
3,200,70,30,90
`
	dir := writeResultsDir(t, csv, "")

	results, err := NewLoader().Load(dir)
	require.NoError(t, err, "a malformed row never aborts the load")
	require.Len(t, results.Runs, 2)
	assert.Equal(t, []int{1, 3}, []int{results.Runs[0].ID, results.Runs[1].ID})
}

// failingReader serves its buffered content, then fails every subsequent read
// with the same error, like a reader backed by a broken disk would
type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestReadRunsReaderFailureIsFatal(t *testing.T) {
	readErr := errors.New("disk read error")
	r := &failingReader{
		data: []byte("run,checkpoint_ms,restore_ms,idle_duration_s,c6_residency_percent\n1,100,50,30,80\n"),
		err:  readErr,
	}

	done := make(chan struct{})
	var runs []Run
	var err error
	go func() {
		defer close(done)
		runs, err = NewLoader().readRuns(r)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("readRuns did not return on a persistent reader error")
	}

	require.Error(t, err, "a reader failure is fatal, not a droppable row")
	assert.ErrorIs(t, err, readErr)
	assert.Nil(t, runs)
}

func TestLoadResultsBareQuoteRow(t *testing.T) {
	// an unterminated quote absorbs the rest of the file, so the bad row
	// and everything after it are lost as a single dropped record
	csv := "run,checkpoint_ms,restore_ms,idle_duration_s,c6_residency_percent\n" +
		"1,100,50,30,80\n" +
		"2,\"bad,60,30,70\n" +
		"3,200,70,30,90\n"
	dir := writeResultsDir(t, csv, "")

	results, err := NewLoader().Load(dir)
	require.NoError(t, err)
	require.Len(t, results.Runs, 1)
	assert.Equal(t, 1, results.Runs[0].ID)
}

func TestLoadBaseline(t *testing.T) {
	baseline := `timestamp,cpu0_c6_percent,cpu1_c6_percent,busy
t0,40,60,5
t1,50,70,6
`
	dir := writeResultsDir(t, resultsCSV, baseline)

	results, err := NewLoader().Load(dir)
	require.NoError(t, err)
	require.NotNil(t, results.BaselineC6)
	assert.InDelta(t, 55.0, *results.BaselineC6, 1e-9, "mean over every c6_percent cell")
}

func TestLoadBaselineSkipsNonNumericCells(t *testing.T) {
	baseline := `c6_percent
40
n/a
60
`
	dir := writeResultsDir(t, resultsCSV, baseline)

	results, err := NewLoader().Load(dir)
	require.NoError(t, err)
	require.NotNil(t, results.BaselineC6)
	assert.InDelta(t, 50.0, *results.BaselineC6, 1e-9)
}

func TestLoadBaselineNoC6Columns(t *testing.T) {
	baseline := `timestamp,busy
t0,5
`
	dir := writeResultsDir(t, resultsCSV, baseline)

	results, err := NewLoader().Load(dir)
	require.NoError(t, err)
	assert.Nil(t, results.BaselineC6, "a baseline file without c6 columns yields no baseline")
}

func TestLoadEmptyResultsFile(t *testing.T) {
	dir := writeResultsDir(t, "run,checkpoint_ms,restore_ms,idle_duration_s,c6_residency_percent\n", "")

	results, err := NewLoader().Load(dir)
	require.NoError(t, err)
	assert.Empty(t, results.Runs)
}

// SPDX-FileCopyrightText: 2025 The Epanalyze Authors
// SPDX-License-Identifier: Apache-2.0

package turbostat

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jszwec/csvutil"
)

// WriteCSV writes samples as CSV. Absent power fields render as empty cells
// so they read back as absent, not as zero.
func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	for i := range samples {
		if err := enc.Encode(samples[i]); err != nil {
			return fmt.Errorf("failed to encode sample: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads samples previously written by WriteCSV
func ReadCSV(r io.Reader) ([]Sample, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sample CSV header: %w", err)
	}

	var samples []Sample
	for {
		var s Sample
		if err := dec.Decode(&s); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to decode sample row: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// ExportCSV writes samples to a new file at path
func ExportCSV(path string, samples []Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := WriteCSV(f, samples); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

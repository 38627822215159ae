package application

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrEmptyDataset indicates that the input file contained a header but no
// participant rows.
var ErrEmptyDataset = errors.New("dataset contains no participant rows")

// MissingColumnError indicates that a configured column is absent from
// the dataset header.
type MissingColumnError struct {
	// Column is the configured column name that was not found.
	Column string
}

// Error implements the error interface for MissingColumnError.
func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q not found in dataset header", e.Column)
}

// InvalidValueError indicates that a dataset cell could not be parsed as
// the expected numeric type.
type InvalidValueError struct {
	// Row is the 1-based data row (excluding the header).
	Row int

	// Column is the column the cell belongs to.
	Column string

	// Raw is the cell content that failed to parse.
	Raw string
}

// Error implements the error interface for InvalidValueError.
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("row %d: column %q contains invalid value %q", e.Row, e.Column, e.Raw)
}

// Participant is one laboratory's reported measurement.
type Participant struct {
	// ID is the laboratory identifier from the dataset.
	ID string `json:"id"`

	// Result is the reported measurement value.
	Result float64 `json:"result"`

	// Uncertainty is the reported standard uncertainty, if any.
	Uncertainty *float64 `json:"uncertainty,omitempty"`
}

// Dataset is an ordered collection of participant results for one
// analyte. Order is the insertion order of the input file.
type Dataset struct {
	Participants []Participant
}

// Results returns the reported values in dataset order.
func (d *Dataset) Results() []float64 {
	results := make([]float64, len(d.Participants))
	for i, p := range d.Participants {
		results[i] = p.Result
	}
	return results
}

// Uncertainties returns the reported standard uncertainties in dataset
// order, or false if any participant omitted one. Zeta-scores with
// participant uncertainties require the full vector.
func (d *Dataset) Uncertainties() ([]float64, bool) {
	uncertainties := make([]float64, len(d.Participants))
	for i, p := range d.Participants {
		if p.Uncertainty == nil {
			return nil, false
		}
		uncertainties[i] = *p.Uncertainty
	}
	return uncertainties, true
}

// LoadDataset reads a participant results CSV file using the configured
// column names.
func LoadDataset(path string, cfg InputDataConfig) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()
	return ReadDataset(f, cfg)
}

// ReadDataset parses participant results from CSV data. The first record
// is the header; the participant ID and result columns must be present,
// the uncertainty column is optional. Empty uncertainty cells are
// treated as not reported.
func ReadDataset(r io.Reader, cfg InputDataConfig) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}
		return nil, fmt.Errorf("read dataset header: %w", err)
	}

	idIdx, ok := columnIndex(header, cfg.ParticipantIDColumn)
	if !ok {
		return nil, &MissingColumnError{Column: cfg.ParticipantIDColumn}
	}
	resultIdx, ok := columnIndex(header, cfg.ResultColumn)
	if !ok {
		return nil, &MissingColumnError{Column: cfg.ResultColumn}
	}
	// The uncertainty column is optional by contract: absence means no
	// participant reported one.
	uncIdx := -1
	if cfg.UncertaintyColumn != "" {
		if idx, ok := columnIndex(header, cfg.UncertaintyColumn); ok {
			uncIdx = idx
		}
	}

	ds := &Dataset{}
	row := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset row %d: %w", row+1, err)
		}
		row++

		result, err := strconv.ParseFloat(strings.TrimSpace(record[resultIdx]), 64)
		if err != nil {
			return nil, &InvalidValueError{Row: row, Column: cfg.ResultColumn, Raw: record[resultIdx]}
		}

		p := Participant{ID: strings.TrimSpace(record[idIdx]), Result: result}
		if uncIdx >= 0 && uncIdx < len(record) {
			raw := strings.TrimSpace(record[uncIdx])
			if raw != "" {
				u, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, &InvalidValueError{Row: row, Column: cfg.UncertaintyColumn, Raw: record[uncIdx]}
				}
				p.Uncertainty = &u
			}
		}
		ds.Participants = append(ds.Participants, p)
	}

	if len(ds.Participants) == 0 {
		return nil, ErrEmptyDataset
	}
	return ds, nil
}

func columnIndex(header []string, name string) (int, bool) {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i, true
		}
	}
	return 0, false
}

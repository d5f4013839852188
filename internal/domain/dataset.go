package domain

import (
	"fmt"
	"strconv"
)

const (
	// DefaultTarget is the label column of the reference dataset.
	DefaultTarget = "species"
	// MarkerColumn flags rows altered by the poisoning engine.
	MarkerColumn = "poisoned"
)

// Row holds the raw cell values of one record, aligned with Dataset.Columns.
// Cells are kept verbatim so rows that are never touched serialize back
// byte-identical.
type Row []string

// Dataset is an ordered table with one categorical target column; every
// other column except the optional poisoned marker is a numeric feature.
type Dataset struct {
	Columns []string
	Target  string
	Rows    []Row
}

func (d *Dataset) Len() int { return len(d.Rows) }

// Index returns the position of col, or -1.
func (d *Dataset) Index(col string) int {
	for i, c := range d.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// FeatureColumns returns every column except the target and the marker,
// in header order.
func (d *Dataset) FeatureColumns() []string {
	var cols []string
	for _, c := range d.Columns {
		if c == d.Target || c == MarkerColumn {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// Floats parses the named column as float64 values.
func (d *Dataset) Floats(col string) ([]float64, error) {
	idx := d.Index(col)
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found", col)
	}
	out := make([]float64, len(d.Rows))
	for i, row := range d.Rows {
		v, err := strconv.ParseFloat(row[idx], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d column %q: %w", i, col, err)
		}
		out[i] = v
	}
	return out, nil
}

// Labels returns the target column values.
func (d *Dataset) Labels() ([]string, error) {
	idx := d.Index(d.Target)
	if idx < 0 {
		return nil, fmt.Errorf("target column %q not found", d.Target)
	}
	out := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// DistinctLabels returns the distinct target values in order of first
// appearance.
func (d *Dataset) DistinctLabels() ([]string, error) {
	labels, err := d.Labels()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out, nil
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	rows := make([]Row, len(d.Rows))
	for i, r := range d.Rows {
		rows[i] = append(Row(nil), r...)
	}
	return &Dataset{
		Columns: append([]string(nil), d.Columns...),
		Target:  d.Target,
		Rows:    rows,
	}
}

// PoisonedDataset is a dataset whose last column is the poisoned marker.
type PoisonedDataset struct {
	*Dataset
	Poisoned []bool
}

// PoisonedCount returns the number of rows flagged as poisoned.
func (p *PoisonedDataset) PoisonedCount() int {
	n := 0
	for _, b := range p.Poisoned {
		if b {
			n++
		}
	}
	return n
}

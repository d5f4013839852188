// Package dataset reads and writes the tabular CSV format shared by the
// poisoning engine, the experiment runner and the inference tooling.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/emiliopalmerini/poisonbench/internal/apperr"
	"github.com/emiliopalmerini/poisonbench/internal/domain"
)

// ReadFile loads a CSV dataset. A path that does not resolve yields an error
// wrapping apperr.ErrDatasetNotFound.
func ReadFile(path, target string) (*domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", apperr.ErrDatasetNotFound, path)
		}
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	ds, err := Read(f, target)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Read parses a CSV stream with a mandatory header row. Every record must
// have the header's width and the target column must be present.
func Read(r io.Reader, target string) (*domain.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 0

	header, err := cr.Read()
	if err == io.EOF {
		return nil, apperr.Validation(nil, "dataset has no header row")
	}
	if err != nil {
		return nil, apperr.Validation(err, "malformed dataset header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	ds := &domain.Dataset{Columns: header, Target: target}
	if ds.Index(target) < 0 {
		return nil, apperr.Validation(nil, "target column %q not in header %v", target, header)
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperr.Validation(err, "malformed dataset record")
		}
		ds.Rows = append(ds.Rows, domain.Row(rec))
	}

	return ds, nil
}

// WriteFile writes ds as CSV to path, creating parent directories.
func WriteFile(path string, ds *domain.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}
	if err := Write(f, ds); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Write serializes ds as CSV with a header row.
func Write(w io.Writer, ds *domain.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range ds.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Marker parses the poisoned column. A dataset without one is all clean.
func Marker(ds *domain.Dataset) ([]bool, error) {
	out := make([]bool, ds.Len())
	idx := ds.Index(domain.MarkerColumn)
	if idx < 0 {
		return out, nil
	}
	for i, row := range ds.Rows {
		b, err := strconv.ParseBool(row[idx])
		if err != nil {
			return nil, apperr.Validation(err, "row %d: invalid %s value %q", i, domain.MarkerColumn, row[idx])
		}
		out[i] = b
	}
	return out, nil
}

// FormatBool renders a marker cell as "True" or "False".
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// FormatFloat renders a generated feature value.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Features builds the row-major feature matrix for the given columns.
func Features(ds *domain.Dataset, cols []string) ([][]float64, error) {
	x := make([][]float64, ds.Len())
	for i := range x {
		x[i] = make([]float64, len(cols))
	}
	for j, col := range cols {
		vals, err := ds.Floats(col)
		if err != nil {
			return nil, apperr.Validation(err, "non-numeric feature")
		}
		for i, v := range vals {
			x[i][j] = v
		}
	}
	return x, nil
}

// BaseName strips directory and extension: "data/iris_clean.csv" -> "iris_clean".
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

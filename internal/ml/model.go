package ml

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"

	"github.com/emiliopalmerini/poisonbench/internal/apperr"
)

// SchemaVersion is the feature schema version written with every model.
const SchemaVersion = 1

// Feature describes one model input column.
type Feature struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// FeatureSchema is the ordered input contract of a serialized model.
type FeatureSchema struct {
	Version  int       `json:"version"`
	Features []Feature `json:"features"`
	Target   string    `json:"target"`
	Classes  []string  `json:"classes"`
}

// NewFeatureSchema describes numeric feature columns in the given order.
func NewFeatureSchema(features []string, target string, classes []string) FeatureSchema {
	fs := make([]Feature, len(features))
	for i, f := range features {
		fs[i] = Feature{Name: f, Type: "float64"}
	}
	return FeatureSchema{Version: SchemaVersion, Features: fs, Target: target, Classes: classes}
}

// Validate checks that a row-major matrix matches the schema width.
func (s FeatureSchema) Validate(x [][]float64) error {
	for i, row := range x {
		if len(row) != len(s.Features) {
			return fmt.Errorf("%w: instance %d has %d values, model expects %d (%s)",
				apperr.ErrSchemaMismatch, i, len(row), len(s.Features), strings.Join(s.Names(), ", "))
		}
	}
	return nil
}

// Names returns the feature names in order.
func (s FeatureSchema) Names() []string {
	out := make([]string, len(s.Features))
	for i, f := range s.Features {
		out[i] = f.Name
	}
	return out
}

// Model is a trained forest bundled with the schema it was trained on.
type Model struct {
	Schema FeatureSchema `json:"schema"`
	Forest *Forest       `json:"forest"`
}

// Predict validates x against the schema and returns class names.
func (m *Model) Predict(x [][]float64) ([]string, error) {
	if err := m.Schema.Validate(x); err != nil {
		return nil, err
	}
	codes := m.Forest.Predict(x)
	return NewLabelEncoder(m.Schema.Classes).Inverse(codes), nil
}

// Encode writes the model as JSON.
func (m *Model) Encode(w io.Writer) error {
	return json.NewEncoder(w).Encode(m)
}

// DecodeModel reads a JSON model and checks its schema version.
func DecodeModel(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if m.Schema.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: unsupported schema version %d", apperr.ErrSchemaMismatch, m.Schema.Version)
	}
	if m.Forest == nil || len(m.Forest.Trees) == 0 {
		return nil, fmt.Errorf("model has no trees")
	}
	if m.Forest.NFeatures != len(m.Schema.Features) {
		return nil, fmt.Errorf("%w: forest expects %d features, schema lists %d",
			apperr.ErrSchemaMismatch, m.Forest.NFeatures, len(m.Schema.Features))
	}
	return &m, nil
}

// CompressedExt marks snappy-framed model files.
const CompressedExt = ".sz"

// SaveModel writes m to path, snappy-framed when path ends in CompressedExt.
func SaveModel(path string, m *Model) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if strings.HasSuffix(path, CompressedExt) {
		sw := snappy.NewBufferedWriter(f)
		if err := m.Encode(sw); err != nil {
			return fmt.Errorf("failed to encode model: %w", err)
		}
		if err := sw.Close(); err != nil {
			return fmt.Errorf("failed to flush model: %w", err)
		}
	} else if err := m.Encode(f); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return f.Close()
}

// LoadModel reads a model saved by SaveModel.
func LoadModel(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, CompressedExt) {
		r = snappy.NewReader(f)
	}
	return DecodeModel(r)
}

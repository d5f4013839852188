package dataset

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/poisonbench/internal/apperr"
	"github.com/emiliopalmerini/poisonbench/internal/domain"
)

const sample = `sepal_length,sepal_width,species
5.1,3.5,setosa
7.0,3.2,versicolor
6.30,3.3,virginica
`

func TestReadWriteRoundTrip(t *testing.T) {
	ds, err := Read(strings.NewReader(sample), domain.DefaultTarget)
	require.NoError(t, err)
	assert.Equal(t, []string{"sepal_length", "sepal_width", "species"}, ds.Columns)
	assert.Equal(t, 3, ds.Len())

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ds))
	assert.Equal(t, sample, buf.String(), "raw cells survive unchanged")
}

func TestReadFileNotFound(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"), domain.DefaultTarget)
	assert.ErrorIs(t, err, apperr.ErrDatasetNotFound)
}

func TestReadRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"missing target", "a,b\n1,2\n"},
		{"ragged row", "a,species\n1,x\n2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.data), domain.DefaultTarget)
			assert.True(t, apperr.IsValidation(err), "err = %v", err)
		})
	}
}

func TestWriteFileCreatesDirs(t *testing.T) {
	ds, err := Read(strings.NewReader(sample), domain.DefaultTarget)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "a", "b", "out.csv")
	require.NoError(t, WriteFile(path, ds))

	back, err := ReadFile(path, domain.DefaultTarget)
	require.NoError(t, err)
	assert.Equal(t, ds.Rows, back.Rows)
}

func TestFeaturesAndMarker(t *testing.T) {
	data := "a,species,poisoned,b\n1,x,True,2.5\n3,y,False,4\n"
	ds, err := Read(strings.NewReader(data), domain.DefaultTarget)
	require.NoError(t, err)

	cols := ds.FeatureColumns()
	assert.Equal(t, []string{"a", "b"}, cols)

	x, err := Features(ds, cols)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2.5}, {3, 4}}, x)

	marker, err := Marker(ds)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, marker)
}

func TestFeaturesRejectsText(t *testing.T) {
	ds, err := Read(strings.NewReader("a,species\nabc,x\n"), domain.DefaultTarget)
	require.NoError(t, err)

	_, err = Features(ds, ds.FeatureColumns())
	assert.True(t, apperr.IsValidation(err))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "iris_poison_10pct_random", BaseName("data/poisoned/iris_poison_10pct_random.csv"))
	assert.Equal(t, "iris", BaseName("iris"))
}

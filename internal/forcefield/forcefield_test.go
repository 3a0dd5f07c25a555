package forcefield

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoSubatomTable() *Table {
	return &Table{
		Types: []AtomType{
			{Name: "C", Charge: 0.5, Radius: 1.7, SubID: 0},
			{Name: "O", Charge: -0.5, Radius: 1.5, SubID: 1},
			{Name: "H", Charge: 0.1, Radius: 1.0, SubID: NoSubatom},
		},
		NumSubatoms: 2,
		Potential: PairPotential{
			R1:      4,
			R2:      6,
			Lambdas: []float64{2, -1},
			Xs:      []float64{1, 2, 3, 4},
		},
	}
}

func TestCoeffRowMajor(t *testing.T) {
	tbl := twoSubatomTable()
	p := &tbl.Potential

	// index = ek*nsub + sub
	assert.Equal(t, 1.0, p.Coeff(0, 0, 2))
	assert.Equal(t, 2.0, p.Coeff(0, 1, 2))
	assert.Equal(t, 3.0, p.Coeff(1, 0, 2))
	assert.Equal(t, 4.0, p.Coeff(1, 1, 2))
	assert.Equal(t, 2, p.K())
}

func TestTypeLookup(t *testing.T) {
	tbl := twoSubatomTable()

	at, err := tbl.Type(1)
	require.NoError(t, err)
	assert.Equal(t, "O", at.Name)

	for _, i := range []int{-1, 3} {
		_, err := tbl.Type(i)
		assert.True(t, errors.Is(err, ErrInvalidAtomType), "type %d: %v", i, err)
	}
}

func TestSubatom(t *testing.T) {
	tbl := twoSubatomTable()

	sub, skip, err := tbl.Subatom(1)
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Equal(t, 1, sub)

	_, skip, err = tbl.Subatom(2)
	require.NoError(t, err)
	assert.True(t, skip)

	tbl.Types[0].SubID = 2
	_, _, err = tbl.Subatom(0)
	assert.ErrorIs(t, err, ErrInvalidSubatomMapping)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Table)
		want   error
	}{
		{"ok", func(*Table) {}, nil},
		{"negative r1", func(t *Table) { t.Potential.R1 = -1 }, ErrInvalidPotential},
		{"negative r2", func(t *Table) { t.Potential.R2 = -0.5 }, ErrInvalidPotential},
		{"r1 above r2", func(t *Table) { t.Potential.R1 = 7 }, ErrInvalidPotential},
		{"short xs", func(t *Table) { t.Potential.Xs = t.Potential.Xs[:3] }, ErrInvalidPotential},
		{"bad subid", func(t *Table) { t.Types[1].SubID = 5 }, ErrInvalidSubatomMapping},
		{"zero basis", func(t *Table) { t.Potential.Lambdas = nil; t.Potential.Xs = nil }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := twoSubatomTable()
			tt.mutate(tbl)
			err := tbl.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
nsubatoms: 2
types:
  - {name: C, charge: 1.0, radius: 1.7, subid: 0}
  - {name: O, charge: -1.0, radius: 1.5, subid: 1}
potential:
  r1: 4
  r2: 6
  lambdas: [2.0, 0.5]
  xs:
    - [1, 2]
    - [3, 4]
`)
	tbl, err := Parse(data)
	require.NoError(t, err)
	require.NoError(t, tbl.Validate())

	assert.Equal(t, []float64{1, 2, 3, 4}, tbl.Potential.Xs)
	assert.Equal(t, 2, tbl.NumTypes())
	assert.Equal(t, -1.0, tbl.Types[1].Charge)
}

func TestParse_RaggedRows(t *testing.T) {
	data := []byte(`
nsubatoms: 2
potential:
  lambdas: [1]
  xs: [[1, 2, 3]]
`)
	_, err := Parse(data)
	assert.ErrorIs(t, err, ErrInvalidPotential)
}

func TestParse_NegativeSubatomCount(t *testing.T) {
	data := []byte(`
nsubatoms: -1
potential:
  lambdas: [1]
  xs: [[1]]
`)
	tbl, err := Parse(data)
	assert.Nil(t, tbl)
	assert.ErrorIs(t, err, ErrInvalidPotential)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ff.yaml")
	tbl := twoSubatomTable()

	require.NoError(t, Save(path, tbl))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, tbl.Potential.Xs, loaded.Potential.Xs)
	assert.Equal(t, tbl.Types, loaded.Types)
	assert.Equal(t, tbl.NumSubatoms, loaded.NumSubatoms)
}

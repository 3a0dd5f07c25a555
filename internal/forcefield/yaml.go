package forcefield

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Spec is the YAML form of a Table. Xs is written as one row per basis
// function and flattened on conversion.
type Spec struct {
	NumSubatoms int           `yaml:"nsubatoms"`
	Types       []AtomType    `yaml:"types"`
	Potential   PotentialSpec `yaml:"potential"`
}

type PotentialSpec struct {
	R1      float64     `yaml:"r1"`
	R2      float64     `yaml:"r2"`
	Lambdas []float64   `yaml:"lambdas"`
	Xs      [][]float64 `yaml:"xs"`
}

func (s *Spec) Table() (*Table, error) {
	if s.NumSubatoms < 0 {
		return nil, fmt.Errorf("%w: negative subatom count %d", ErrInvalidPotential, s.NumSubatoms)
	}
	if len(s.Potential.Xs) != len(s.Potential.Lambdas) {
		return nil, fmt.Errorf("%w: %d coefficient rows for %d lambdas",
			ErrInvalidPotential, len(s.Potential.Xs), len(s.Potential.Lambdas))
	}
	xs := make([]float64, 0, len(s.Potential.Lambdas)*s.NumSubatoms)
	for ek, row := range s.Potential.Xs {
		if len(row) != s.NumSubatoms {
			return nil, fmt.Errorf("%w: row %d has %d coefficients, want %d",
				ErrInvalidPotential, ek, len(row), s.NumSubatoms)
		}
		xs = append(xs, row...)
	}
	t := &Table{
		Types:       append([]AtomType(nil), s.Types...),
		NumSubatoms: s.NumSubatoms,
		Potential: PairPotential{
			R1:      s.Potential.R1,
			R2:      s.Potential.R2,
			Lambdas: append([]float64(nil), s.Potential.Lambdas...),
			Xs:      xs,
		},
	}
	return t, nil
}

// SpecOf is the inverse of Spec.Table.
func SpecOf(t *Table) Spec {
	rows := make([][]float64, t.Potential.K())
	for ek := range rows {
		rows[ek] = append([]float64(nil), t.Potential.Xs[ek*t.NumSubatoms:(ek+1)*t.NumSubatoms]...)
	}
	return Spec{
		NumSubatoms: t.NumSubatoms,
		Types:       append([]AtomType(nil), t.Types...),
		Potential: PotentialSpec{
			R1:      t.Potential.R1,
			R2:      t.Potential.R2,
			Lambdas: append([]float64(nil), t.Potential.Lambdas...),
			Xs:      rows,
		},
	}
}

func Parse(data []byte) (*Table, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Table()
}

func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Save(path string, t *Table) error {
	data, err := yaml.Marshal(SpecOf(t))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

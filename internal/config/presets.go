package config

import (
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/molpot/internal/forcefield"
)

// single type, single subatom: r1=4, r2=6, lambda=2, x=3
var unitTable = forcefield.Spec{
	NumSubatoms: 1,
	Types:       []forcefield.AtomType{{Name: "X", Charge: 1, Radius: 3, SubID: 0}},
	Potential: forcefield.PotentialSpec{
		R1: 4, R2: 6,
		Lambdas: []float64{2},
		Xs:      [][]float64{{3}},
	},
}

var ionTable = forcefield.Spec{
	NumSubatoms: 1,
	Types: []forcefield.AtomType{
		{Name: "Na", Charge: 1, Radius: 1.4, SubID: forcefield.NoSubatom},
		{Name: "Cl", Charge: -1, Radius: 2.2, SubID: forcefield.NoSubatom},
	},
	Potential: forcefield.PotentialSpec{
		R1: 0, R2: 0,
		Lambdas: []float64{0},
		Xs:      [][]float64{{0}},
	},
}

var mixedTable = forcefield.Spec{
	NumSubatoms: 3,
	Types: []forcefield.AtomType{
		{Name: "C", Charge: 0.4, Radius: 1.7, SubID: 0},
		{Name: "N", Charge: -0.3, Radius: 1.6, SubID: 1},
		{Name: "O", Charge: -0.5, Radius: 1.5, SubID: 2},
		{Name: "H", Charge: 0.2, Radius: 1.0, SubID: forcefield.NoSubatom},
	},
	Potential: forcefield.PotentialSpec{
		R1: 3, R2: 8,
		Lambdas: []float64{0.5, -1.25},
		Xs: [][]float64{
			{1.0, -0.5, 0.25},
			{0.3, 0.8, -1.1},
		},
	},
}

var Presets = map[string]*Config{
	"pair": {System: SystemConfig{
		ForceField: unitTable,
		A:          []AtomConfig{{Name: "a0", Type: 0, Pos: [3]float64{0, 0, 0}, SA: true}},
		B:          []AtomConfig{{Name: "b0", Type: 0, Pos: [3]float64{5, 0, 0}, SA: true}},
	}},
	"ionpair": {System: SystemConfig{
		ForceField: ionTable,
		A:          []AtomConfig{{Name: "NA", Type: 0}},
		B:          []AtomConfig{{Name: "CL", Type: 1, Pos: [3]float64{2.8, 0, 0}}},
	}},
	"shell": {System: SystemConfig{
		ForceField: mixedTable,
		OnlySA:     true,
		A: []AtomConfig{
			{Name: "C1", Type: 0, Pos: [3]float64{0, 0, 0}, SA: true},
			{Name: "N1", Type: 1, Pos: [3]float64{1.4, 0, 0}, SA: true},
			{Name: "H1", Type: 3, Pos: [3]float64{-0.6, 0.9, 0}},
		},
		B: []AtomConfig{
			{Name: "O2", Type: 2, Pos: [3]float64{5, 0.5, 0}, SA: true},
			{Name: "C2", Type: 0, Pos: [3]float64{6.2, -0.4, 0.3}, SA: true},
			{Name: "N2", Type: 1, Pos: [3]float64{7.5, 0, 0}},
		},
	}},
	"cluster": {System: SystemConfig{
		ForceField: mixedTable,
		A: []AtomConfig{
			{Name: "C1", Type: 0, Pos: [3]float64{0, 0, 0}},
			{Name: "N1", Type: 1, Pos: [3]float64{3, 0, 0}},
			{Name: "O1", Type: 2, Pos: [3]float64{0, 3, 0}},
			{Name: "H1", Type: 3, Pos: [3]float64{0, 0, 3}},
			{Name: "C2", Type: 0, Pos: [3]float64{3, 3, 0}},
			{Name: "N2", Type: 1, Pos: [3]float64{3, 0, 3}},
			{Name: "O2", Type: 2, Pos: [3]float64{0, 3, 3}},
			{Name: "H2", Type: 3, Pos: [3]float64{3, 3, 3}},
		},
	}},
}

func clone(c *Config) *Config {
	data, err := yaml.Marshal(c)
	if err != nil {
		panic(err)
	}
	out := &Config{}
	if err := yaml.Unmarshal(data, out); err != nil {
		panic(err)
	}
	return out
}

// GetPreset returns a full configuration with the preset's system, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.System = clone(p).System
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

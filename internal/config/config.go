package config

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/molpot/internal/atom"
	"github.com/san-kum/molpot/internal/forcefield"
	"github.com/san-kum/molpot/internal/logging"
	"github.com/san-kum/molpot/internal/scan"
)

const (
	DefaultStep      = 1e-6
	DefaultTolerance = 1e-4
	DefaultWorkers   = 1
	DefaultDataDir   = "runs"

	DefaultScanFrom = 1.0
	DefaultScanTo   = 22.0
	DefaultScanStep = 0.25
)

type Config struct {
	DataDir  string         `yaml:"data_dir"`
	Log      logging.Config `yaml:"log"`
	Validate ValidateConfig `yaml:"validate"`
	Scan     ScanConfig     `yaml:"scan"`
	System   SystemConfig   `yaml:"system"`
}

type ValidateConfig struct {
	Step      float64 `yaml:"step"`
	Tolerance float64 `yaml:"tolerance"`
	Workers   int     `yaml:"workers"`
}

type ScanConfig struct {
	Axis string  `yaml:"axis"`
	From float64 `yaml:"from"`
	To   float64 `yaml:"to"`
	Step float64 `yaml:"step"`
}

// SystemConfig describes the groups and the parameter table. An empty B
// means group A interacts with itself.
type SystemConfig struct {
	OnlySA     bool            `yaml:"only_sa"`
	ForceField forcefield.Spec `yaml:"forcefield"`
	A          []AtomConfig    `yaml:"a"`
	B          []AtomConfig    `yaml:"b,omitempty"`
	// Topology optionally names a JSON file loaded into group A.
	Topology string `yaml:"topology,omitempty"`
}

type AtomConfig struct {
	Name string     `yaml:"name,omitempty"`
	Type int        `yaml:"type"`
	Pos  [3]float64 `yaml:"pos,flow"`
	SA   bool       `yaml:"sa,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir,
		Log:     logging.DefaultConfig(),
		Validate: ValidateConfig{
			Step:      DefaultStep,
			Tolerance: DefaultTolerance,
			Workers:   DefaultWorkers,
		},
		Scan: ScanConfig{
			Axis: "x",
			From: DefaultScanFrom,
			To:   DefaultScanTo,
			Step: DefaultScanStep,
		},
		System: clone(Presets["pair"]).System,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	def := cfg.System
	// a file that names its own system replaces the default one wholesale
	cfg.System = SystemConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if len(cfg.System.A) == 0 {
		cfg.System = def
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Table builds and validates the parameter table.
func (s *SystemConfig) Table() (*forcefield.Table, error) {
	t, err := s.ForceField.Table()
	if err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func group(atoms []AtomConfig) *atom.Group {
	g := atom.NewGroup()
	for _, a := range atoms {
		g.Atoms = append(g.Atoms, atom.Atom{
			Name: a.Name,
			Type: a.Type,
			Pos:  r3.Vec{X: a.Pos[0], Y: a.Pos[1], Z: a.Pos[2]},
			SA:   a.SA,
		})
	}
	return g
}

// Groups returns A and B. B is nil when the system is self-interacting.
func (s *SystemConfig) Groups() (*atom.Group, *atom.Group) {
	a := group(s.A)
	if len(s.B) == 0 {
		return a, nil
	}
	return a, group(s.B)
}

func (c *ScanConfig) Options() (scan.Options, error) {
	axis, err := scan.ParseAxis(c.Axis)
	if err != nil {
		return scan.Options{}, err
	}
	return scan.Options{Axis: axis, From: c.From, To: c.To, Step: c.Step}, nil
}

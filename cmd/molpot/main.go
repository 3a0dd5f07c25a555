package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/molpot/internal/atom"
	"github.com/san-kum/molpot/internal/config"
	"github.com/san-kum/molpot/internal/energy"
	"github.com/san-kum/molpot/internal/forcefield"
	"github.com/san-kum/molpot/internal/logging"
	"github.com/san-kum/molpot/internal/scan"
	"github.com/san-kum/molpot/internal/storage"
	"github.com/san-kum/molpot/internal/topology"
	"github.com/san-kum/molpot/internal/validate"
	"github.com/san-kum/molpot/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFormat  string
	themeName  string
	topoFile   string
	onlySA     bool
	save       bool

	// validate
	step      float64
	tolerance float64
	workers   int
	raw       bool
	strict    bool

	// scan and probe
	axis     string
	from     float64
	to       float64
	scanStep float64
	kernel   string

	asJSON bool
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "molpot",
		Short:         "pairwise molecular energy kernels and gradient checks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "run store directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset system")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "console or json")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", "cyberpunk", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	rootCmd.PersistentFlags().StringVar(&topoFile, "topology", "", "json topology loaded into group A")
	rootCmd.PersistentFlags().BoolVar(&onlySA, "only-sa", false, "restrict the statistical potential to accessible atoms")

	energyCmd := &cobra.Command{
		Use:   "energy",
		Short: "evaluate every kernel",
		RunE:  runEnergy,
	}
	energyCmd.Flags().BoolVar(&save, "save", false, "save the result to the run store")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "check the coulomb gradient against finite differences",
		RunE:  runValidate,
	}
	validateCmd.Flags().Float64Var(&step, "step", config.DefaultStep, "finite difference step")
	validateCmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "largest accepted difference")
	validateCmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "parallel workers")
	validateCmd.Flags().BoolVar(&raw, "raw", false, "print the full per-atom report")
	validateCmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero on mismatch")
	validateCmd.Flags().BoolVar(&save, "save", false, "save the report to the run store")

	diagCmd := &cobra.Command{
		Use:   "diag",
		Short: "print the steric and electrostatic diagnostic tally",
		RunE:  runDiag,
	}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "energy profile while moving group B along an axis",
		RunE:  runScan,
	}
	scanCmd.Flags().StringVar(&axis, "axis", "x", "x, y or z")
	scanCmd.Flags().Float64Var(&from, "from", config.DefaultScanFrom, "first separation")
	scanCmd.Flags().Float64Var(&to, "to", config.DefaultScanTo, "last separation")
	scanCmd.Flags().Float64Var(&scanStep, "step", config.DefaultScanStep, "separation step")
	scanCmd.Flags().StringVar(&kernel, "kernel", "total", "statistical, coulomb or total")
	scanCmd.Flags().BoolVar(&save, "save", false, "save the profile to the run store")

	probeCmd := &cobra.Command{
		Use:   "probe",
		Short: "interactive pair distance probe",
		RunE:  runProbe,
	}
	probeCmd.Flags().StringVar(&axis, "axis", "x", "x, y or z")
	probeCmd.Flags().Float64Var(&from, "from", config.DefaultScanFrom, "initial separation")
	probeCmd.Flags().Float64Var(&scanStep, "step", config.DefaultScanStep, "separation step")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "export as json")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset systems",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(energyCmd, validateCmd, diagCmd, scanCmd, probeCmd, listCmd, showCmd, presetsCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// session is everything a command needs after config, preset and flags
// have been merged.
type session struct {
	cfg    *config.Config
	name   string
	log    *zap.Logger
	table  *forcefield.Table
	a, b   *atom.Group
	system *energy.System
	theme  viz.Theme
}

// resolveConfig merges defaults, preset, config file and flags, in that
// order of increasing precedence.
func resolveConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "pair"

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg, name = p, preset
	}

	// config file overrides preset
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	// CLI flags override config
	flags := cmd.Flags()
	if flags.Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if flags.Changed("only-sa") {
		cfg.System.OnlySA = onlySA
	}
	if flags.Changed("topology") {
		cfg.System.Topology = topoFile
	}
	if flags.Lookup("workers") != nil {
		if flags.Changed("step") {
			cfg.Validate.Step = step
		}
		if flags.Changed("tol") {
			cfg.Validate.Tolerance = tolerance
		}
		if flags.Changed("workers") {
			cfg.Validate.Workers = workers
		}
	}
	if flags.Lookup("axis") != nil {
		if flags.Changed("axis") {
			cfg.Scan.Axis = axis
		}
		if flags.Changed("from") {
			cfg.Scan.From = from
		}
		if flags.Changed("to") {
			cfg.Scan.To = to
		}
		if flags.Changed("step") {
			cfg.Scan.Step = scanStep
		}
	}
	return cfg, name, nil
}

func setup(cmd *cobra.Command) (*session, error) {
	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	table, err := cfg.System.Table()
	if err != nil {
		return nil, err
	}
	a, b := cfg.System.Groups()

	if cfg.System.Topology != "" {
		sum, err := topology.ReadFile(cfg.System.Topology, a)
		if err != nil {
			return nil, err
		}
		log.Info("topology loaded",
			zap.String("path", cfg.System.Topology),
			zap.Int("atoms", sum.Atoms),
			zap.Int("bonds", sum.Bonds),
			zap.Int("angles", sum.Angles),
			zap.Int("torsions", sum.Torsions),
			zap.Int("impropers", sum.Impropers),
		)
	}

	if !a.IsValid() || (b != nil && !b.IsValid()) {
		return nil, errors.New("system has non-finite coordinates")
	}

	log.Debug("system ready",
		zap.String("system", name),
		zap.Int("types", table.NumTypes()),
		zap.Int("atoms_a", a.Len()),
		zap.Int("atoms_b", b.Len()),
		zap.Bool("self", b == nil),
	)

	return &session{
		cfg:    cfg,
		name:   name,
		log:    log,
		table:  table,
		a:      a,
		b:      b,
		system: &energy.System{Table: table, Partner: b, OnlySA: cfg.System.OnlySA},
		theme:  viz.GetTheme(themeName),
	}, nil
}

// openStore reads saved runs from the merged data directory without
// building a system.
func openStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, _, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.DataDir), nil
}

func (s *session) store() (*storage.Store, error) {
	st := storage.New(s.cfg.DataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func runEnergy(cmd *cobra.Command, args []string) error {
	s, err := setup(cmd)
	if err != nil {
		return err
	}
	defer s.log.Sync()

	start := time.Now()
	bd, err := s.system.Evaluate(s.a)
	if err != nil {
		return err
	}
	s.log.Info("energy evaluated", zap.Duration("elapsed", time.Since(start)), zap.Float64("total", bd.Total()))

	fmt.Println(viz.RenderBreakdown(s.name, bd, s.theme))

	if save {
		st, err := s.store()
		if err != nil {
			return err
		}
		runID, err := st.Save("energy", s.name, nil, map[string]float64{
			"statistical": bd.Statistical,
			"coulomb":     bd.Coulomb,
			"total":       bd.Total(),
			"vrE":         bd.Diagnostics.StericRepulsion,
			"vaE":         bd.Diagnostics.StericAttraction,
			"eE":          bd.Diagnostics.Electrostatic,
		}, storage.Table{})
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := setup(cmd)
	if err != nil {
		return err
	}
	defer s.log.Sync()

	vc := s.cfg.Validate
	r, err := validate.GradientsWith(s.a, s.system, (*energy.System).CoulombEnergyGrad, vc.Step,
		validate.Options{Workers: vc.Workers, Logger: s.log})
	if err != nil {
		return err
	}

	if raw {
		if _, err := r.WriteTo(os.Stdout); err != nil {
			return err
		}
	} else {
		fmt.Println(viz.RenderReport(r, vc.Tolerance, s.theme))
	}

	if save {
		st, err := s.store()
		if err != nil {
			return err
		}
		tbl := storage.Table{Columns: []string{"atom", "ax", "ay", "az", "nx", "ny", "nz", "dx", "dy", "dz"}}
		for _, row := range r.Rows {
			a, n, d := row.Analytical, row.Numerical, row.Difference
			tbl.Rows = append(tbl.Rows, []float64{float64(row.Index), a.X, a.Y, a.Z, n.X, n.Y, n.Z, d.X, d.Y, d.Z})
		}
		runID, err := st.Save("validate", s.name,
			map[string]float64{"step": vc.Step, "tolerance": vc.Tolerance, "workers": float64(vc.Workers)},
			map[string]float64{"energy": r.Energy, "max_difference": r.MaxDifference()},
			tbl)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	if strict {
		return r.Check(vc.Tolerance)
	}
	return nil
}

func runDiag(cmd *cobra.Command, args []string) error {
	s, err := setup(cmd)
	if err != nil {
		return err
	}
	defer s.log.Sync()

	b := s.b
	if b == nil {
		b = s.a
	}
	_, err = energy.Diagnostic(s.a, b, s.table, os.Stdout)
	return err
}

func scanFunc(s *session, kernel string) (scan.EnergyFunc, error) {
	switch kernel {
	case "statistical":
		return func(a, b *atom.Group) (float64, error) {
			return energy.PairwisePotential(a, b, s.table, s.cfg.System.OnlySA)
		}, nil
	case "coulomb":
		return func(a, b *atom.Group) (float64, error) {
			return energy.CoulombicElec(a, b, s.table)
		}, nil
	case "total":
		return func(a, b *atom.Group) (float64, error) {
			sys := *s.system
			sys.Partner = b
			bd, err := sys.Evaluate(a)
			return bd.Total(), err
		}, nil
	}
	return nil, fmt.Errorf("unknown kernel: %s", kernel)
}

func runScan(cmd *cobra.Command, args []string) error {
	s, err := setup(cmd)
	if err != nil {
		return err
	}
	defer s.log.Sync()

	if s.b == nil {
		return errors.New("scan needs a system with a group B")
	}
	opts, err := s.cfg.Scan.Options()
	if err != nil {
		return err
	}
	fn, err := scanFunc(s, kernel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	series, err := scan.Distance(ctx, s.a, s.b, opts, fn)
	if err != nil {
		return err
	}
	dmin, emin := series.Min()
	s.log.Info("scan finished", zap.Int("points", series.Len()), zap.Float64("min_distance", dmin), zap.Float64("min_energy", emin))

	if series.Len() > 1 {
		graph := asciigraph.Plot(series.Energies,
			asciigraph.Height(15),
			asciigraph.Width(70),
			asciigraph.Caption(fmt.Sprintf("%s energy vs %s separation [%g, %g]", kernel, opts.Axis, opts.From, opts.To)),
		)
		fmt.Println(graph)
	}
	fmt.Printf("\nminimum: %.6f at %.3f\n", emin, dmin)

	if save {
		st, err := s.store()
		if err != nil {
			return err
		}
		tbl := storage.Table{Columns: []string{"distance", "energy"}}
		for i := range series.Distances {
			tbl.Rows = append(tbl.Rows, []float64{series.Distances[i], series.Energies[i]})
		}
		runID, err := st.Save("scan", s.name,
			map[string]float64{"from": opts.From, "to": opts.To, "step": opts.Step, "axis": float64(opts.Axis)},
			map[string]float64{"min_distance": dmin, "min_energy": emin},
			tbl)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}

func runProbe(cmd *cobra.Command, args []string) error {
	s, err := setup(cmd)
	if err != nil {
		return err
	}
	defer s.log.Sync()

	p, err := s.newProbe()
	if err != nil {
		return err
	}

	_, err = tea.NewProgram(p, tea.WithAltScreen()).Run()
	return err
}

func (s *session) newProbe() (viz.Probe, error) {
	ax, err := scan.ParseAxis(s.cfg.Scan.Axis)
	if err != nil {
		return viz.Probe{}, err
	}
	return viz.NewProbe(*s.system, s.a, s.b, ax, s.cfg.Scan.From, s.cfg.Scan.Step)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSYSTEM\tTIME\tCOLUMNS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			run.ID,
			run.Kind,
			run.System,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			len(run.Columns),
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st, err := openStore(cmd)
	if err != nil {
		return err
	}

	if asJSON {
		return st.Export(os.Stdout, runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s on %s, %s)\n", meta.ID, meta.Kind, meta.System, meta.Timestamp.Format(time.RFC3339))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for k, v := range meta.Params {
		fmt.Fprintf(w, "  param\t%s\t%g\n", k, v)
	}
	for k, v := range meta.Metrics {
		fmt.Fprintf(w, "  metric\t%s\t%.6f\n", k, v)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if meta.Kind != "scan" {
		return nil
	}
	tbl, err := st.LoadRows(runID)
	if err != nil {
		return err
	}
	if len(tbl.Rows) < 2 {
		return nil
	}
	energies := make([]float64, len(tbl.Rows))
	for i, r := range tbl.Rows {
		energies[i] = r[1]
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(energies, asciigraph.Height(12), asciigraph.Width(70), asciigraph.Caption(meta.ID)))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPES\tATOMS A\tATOMS B")
	for _, name := range config.ListPresets() {
		sys := config.Presets[name].System
		b := fmt.Sprint(len(sys.B))
		if len(sys.B) == 0 {
			b = "self"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", name, len(sys.ForceField.Types), len(sys.A), b)
	}
	return w.Flush()
}

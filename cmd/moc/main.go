// Command moc runs a characteristic sweep transport calculation described
// by an ini input file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/notargets/gomoc/checkpoint"
	"github.com/notargets/gomoc/config"
	"github.com/notargets/gomoc/manager"
	"github.com/notargets/gomoc/mesh"
	"github.com/notargets/gomoc/monitor"
	"github.com/notargets/gomoc/output"
	"github.com/notargets/gomoc/solver"
	"github.com/notargets/gomoc/telemetry"
	log "github.com/sirupsen/logrus"
)

type cliFlags struct {
	Input  string
	Mesh   string
	OutDir string
}

func parseFlags(fs *flag.FlagSet, args []string) (cliFlags, error) {
	var f cliFlags
	fs.StringVar(&f.Input, "input", "", "ini input file")
	fs.StringVar(&f.Mesh, "mesh", "", "mesh file overriding the input's mesh section")
	fs.StringVar(&f.OutDir, "out", "", "output directory (default MOC_OUTPUT_DIR)")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if f.Input == "" {
		return f, errors.New("-input is required")
	}
	return f, nil
}

func main() {
	f, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := config.SetupLogging(env.LogLevel, env.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if f.OutDir != "" {
		env.OutputDir = f.OutDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f, env); err != nil {
		log.WithError(err).Fatal("run failed")
	}
}

func run(ctx context.Context, f cliFlags, env config.Env) error {
	shutdown, err := telemetry.Setup(ctx, "moc", env.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.WithError(err).Warn("telemetry shutdown")
		}
	}()

	cfg, err := config.Load(f.Input)
	if err != nil {
		return err
	}
	m, err := cfg.BuildMesh(f.Mesh)
	if err != nil {
		return err
	}
	p, err := cfg.BuildProblem(m)
	if err != nil {
		return err
	}
	s, err := cfg.NewSolver(p, cfg.SolverOptions(env))
	if err != nil {
		return err
	}

	store, err := checkpoint.Open(ctx, env.CheckpointDB)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("close checkpoint store")
		}
	}()

	out := manager.Output{
		Sink:        output.Dir{Path: env.OutputDir},
		Checkpoints: store,
		SolverType:  cfg.Solver.Type,
	}
	if env.MonitorAddr != "" {
		hub := monitor.NewHub()
		go hub.Run(ctx)
		go func() {
			if err := hub.ListenAndServe(ctx, env.MonitorAddr); err != nil {
				log.WithError(err).Error("monitor stopped")
			}
		}()
		out.Observers = append(out.Observers, hub)
	}

	switch cfg.Manager {
	case config.TransientRun:
		err = runTransient(ctx, cfg, s, out, env.OutputDir)
	default:
		_, err = manager.NewFixedSource(s, out).Run(ctx)
	}
	if err != nil {
		return err
	}
	return writeFlux(env.OutputDir, m, s)
}

func newStepper(tc config.TransientConfig) manager.Stepper {
	if tc.Stepper != "ndadaptive" {
		return manager.UTS{}
	}
	nd := manager.NewNDAdaptive()
	nd.DtMin, nd.DtMax = tc.DtMin, tc.DtMax
	nd.LTETol, nd.RelChange = tc.LTETol, tc.RelChange
	return nd
}

func runTransient(ctx context.Context, cfg *config.Config, s solver.Solver, out manager.Output, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	series, err := output.CreateSeriesCSV(filepath.Join(dir, "power.csv"))
	if err != nil {
		return err
	}
	defer func() {
		if err := series.Close(); err != nil {
			log.WithError(err).Warn("close power series")
		}
	}()
	out.Observers = append(out.Observers, series)

	tr, err := manager.NewTransient(s, newStepper(cfg.Transient), out, manager.TransientOptions{
		MaxTime:          cfg.Transient.MaxTime,
		Dt:               cfg.Transient.Dt,
		InitialCondition: cfg.Transient.InitialCondition,
		K:                cfg.Solver.CriticalEigenvalue,
	})
	if err != nil {
		return err
	}
	sum, err := tr.Run(ctx)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"run":         tr.RunID,
		"steps":       sum.Steps,
		"t":           sum.Time,
		"power":       sum.Production,
		"unconverged": sum.Unconverged,
	}).Info("transient finished")
	return writeFile(filepath.Join(dir, "power.gnu"), func(w io.Writer) error {
		return output.WriteSeriesGnuplot(w, "power.csv", "power.png")
	})
}

func writeFlux(dir string, m *mesh.TriMesh, s solver.Solver) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	G := s.Problem().NumGroups
	if err := writeFile(filepath.Join(dir, "flux.csv"), func(w io.Writer) error {
		return output.WriteScalarFluxCSV(w, m, s, G)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, "flux.gnu"), func(w io.Writer) error {
		return output.WriteFluxGnuplot(w, "flux.csv", "flux.png", G)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

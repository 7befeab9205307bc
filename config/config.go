// Package config reads the run input file and turns it into a mesh,
// problem and solver.
//
// The input is INI. Sections:
//
//	[Mesh]                    type = rectangle | file
//	[Material.<name>]         one per material
//	[Transport]               boundary and quadrature
//	[Transport.ExternalSource]
//	[Solver]
//	[FixedSource] or [Transient]
package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/notargets/gomoc/material"
	"gopkg.in/ini.v1"
)

// Manager kinds.
const (
	FixedSourceRun = "FixedSource"
	TransientRun   = "Transient"
)

// MeshConfig describes where the mesh comes from.
type MeshConfig struct {
	Type   string // rectangle or file
	File   string
	Nx, Ny int
	Width  float64
	Height float64
	// Block is the block id of every rectangle element, except those
	// with centroid x below InnerWidth which get InnerBlock.
	Block      int
	InnerBlock int
	InnerWidth float64
	// Ordering is upwind (default) or natural.
	Ordering string
	// Sweep holds explicit per-direction orders from sweep<n> keys.
	Sweep [][]int
}

// TransportConfig is the boundary policy and the quadrature.
type TransportConfig struct {
	Boundary string
	// QuadType is azimuthal or half3d when QuadOrder > 0; otherwise the
	// explicit Omega* and Weights are used.
	QuadType  string
	QuadOrder int
	OmegaX    []float64
	OmegaY    []float64
	OmegaZ    []float64
	Weights   []float64
	Strict    bool

	Source SourceConfig
}

// SourceConfig is [Transport.ExternalSource].
type SourceConfig struct {
	Type      string // none, uniform, file or boundary
	Magnitude []float64
	File      string
	// NxNyQ are (nx, ny, value) triples for the boundary source policy.
	NxNyQ []float64
}

// SolverConfig is [Solver].
type SolverConfig struct {
	Type               string // localMOC or regMOC
	Tolerance          float64
	MaxIters           int
	SourceScaling      float64
	CriticalEigenvalue float64
	Workers            int
	FissionSource      bool
}

// TransientConfig is [Transient].
type TransientConfig struct {
	MaxTime          float64
	Dt               float64
	InitialCondition string // zero or a checkpoint run id
	Stepper          string // uts or ndadaptive
	DtMin            float64
	DtMax            float64
	LTETol           float64
	RelChange        float64
}

// Config is a parsed input file.
type Config struct {
	Mesh      MeshConfig
	Materials *material.Registry
	Transport TransportConfig
	Solver    SolverConfig
	// Manager is FixedSourceRun or TransientRun.
	Manager   string
	Transient TransientConfig
}

// Load reads and parses an input file.
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return Parse(f)
}

// Parse builds a Config from an already loaded file.
func Parse(f *ini.File) (*Config, error) {
	c := &Config{}
	var err error
	if c.Mesh, err = loadMesh(f.Section("Mesh")); err != nil {
		return nil, err
	}
	if c.Materials, err = material.LoadRegistry(f); err != nil {
		return nil, err
	}
	if c.Transport, err = loadTransport(f); err != nil {
		return nil, err
	}
	c.Solver = loadSolver(f.Section("Solver"))

	switch {
	case f.HasSection(TransientRun):
		c.Manager = TransientRun
		c.Transient, err = loadTransient(f.Section(TransientRun))
		if err != nil {
			return nil, err
		}
	case f.HasSection(FixedSourceRun):
		c.Manager = FixedSourceRun
	default:
		return nil, fmt.Errorf("input needs a [%s] or [%s] section", FixedSourceRun, TransientRun)
	}
	return c, nil
}

func loadMesh(sec *ini.Section) (MeshConfig, error) {
	m := MeshConfig{
		Type:       sec.Key("type").In("rectangle", []string{"rectangle", "file"}),
		File:       sec.Key("file").String(),
		Nx:         sec.Key("nx").MustInt(10),
		Ny:         sec.Key("ny").MustInt(1),
		Width:      sec.Key("width").MustFloat64(1),
		Height:     sec.Key("height").MustFloat64(1),
		Block:      sec.Key("block").MustInt(1),
		InnerBlock: sec.Key("innerBlock").MustInt(0),
		InnerWidth: sec.Key("innerWidth").MustFloat64(0),
		Ordering:   sec.Key("ordering").In("upwind", []string{"upwind", "natural"}),
	}
	if m.Type == "file" && m.File == "" {
		return m, fmt.Errorf("[Mesh] type = file needs a file key")
	}

	orders := map[int][]int{}
	for _, key := range sec.Keys() {
		name := key.Name()
		if !strings.HasPrefix(name, "sweep") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(name, "sweep"))
		if err != nil {
			return m, fmt.Errorf("[Mesh] %s: want sweep<ordinate>", name)
		}
		order, err := key.StrictInts(",")
		if err != nil {
			return m, fmt.Errorf("[Mesh] %s: %w", name, err)
		}
		orders[n] = order
	}
	if len(orders) > 0 {
		idx := make([]int, 0, len(orders))
		for n := range orders {
			idx = append(idx, n)
		}
		sort.Ints(idx)
		for i, n := range idx {
			if n != i {
				return m, fmt.Errorf("[Mesh] sweep orders must be numbered 0..%d", len(idx)-1)
			}
			m.Sweep = append(m.Sweep, orders[n])
		}
	}
	return m, nil
}

func floats(sec *ini.Section, key string) ([]float64, error) {
	if !sec.HasKey(key) {
		return nil, nil
	}
	v, err := sec.Key(key).StrictFloat64s(",")
	if err != nil {
		return nil, fmt.Errorf("[%s] %s: %w", sec.Name(), key, err)
	}
	return v, nil
}

func loadTransport(f *ini.File) (TransportConfig, error) {
	sec := f.Section("Transport")
	t := TransportConfig{
		Boundary:  sec.Key("boundary").MustString("vacuum"),
		QuadType:  sec.Key("quadType").In("azimuthal", []string{"azimuthal", "half3d"}),
		QuadOrder: sec.Key("quadOrder").MustInt(0),
		Strict:    sec.Key("strict").MustBool(false),
	}
	var err error
	for _, l := range []struct {
		key string
		dst *[]float64
	}{
		{"omega_x", &t.OmegaX},
		{"omega_y", &t.OmegaY},
		{"omega_z", &t.OmegaZ},
		{"weights", &t.Weights},
	} {
		if *l.dst, err = floats(sec, l.key); err != nil {
			return t, err
		}
	}
	if t.QuadOrder == 0 && len(t.Weights) == 0 {
		return t, fmt.Errorf("[Transport] needs quadOrder or explicit weights")
	}

	src := f.Section("Transport.ExternalSource")
	t.Source.Type = src.Key("type").In("none", []string{"none", "uniform", "file", "boundary"})
	t.Source.File = src.Key("file").String()
	if t.Source.Magnitude, err = floats(src, "magnitude"); err != nil {
		return t, err
	}
	if t.Source.NxNyQ, err = floats(src, "nxnyq"); err != nil {
		return t, err
	}
	switch t.Source.Type {
	case "uniform":
		if len(t.Source.Magnitude) == 0 {
			return t, fmt.Errorf("uniform external source needs magnitude")
		}
	case "file":
		if t.Source.File == "" {
			return t, fmt.Errorf("file external source needs file")
		}
	case "boundary":
		if len(t.Source.NxNyQ) == 0 || len(t.Source.NxNyQ)%3 != 0 {
			return t, fmt.Errorf("boundary source needs nxnyq triples, got %d values", len(t.Source.NxNyQ))
		}
	}
	return t, nil
}

func loadSolver(sec *ini.Section) SolverConfig {
	return SolverConfig{
		Type:               sec.Key("type").In("localMOC", []string{"localMOC", "regMOC"}),
		Tolerance:          sec.Key("tolerance").MustFloat64(1.0e-6),
		MaxIters:           sec.Key("maxIters").MustInt(1000),
		SourceScaling:      sec.Key("sourceScaling").MustFloat64(1),
		CriticalEigenvalue: sec.Key("criticalEigenvalue").MustFloat64(1),
		Workers:            sec.Key("workers").MustInt(0),
		FissionSource:      sec.Key("fissionSource").MustBool(false),
	}
}

func loadTransient(sec *ini.Section) (TransientConfig, error) {
	t := TransientConfig{
		MaxTime:          sec.Key("maxTime").MustFloat64(0),
		Dt:               sec.Key("dt").MustFloat64(0),
		InitialCondition: sec.Key("initialCondition").MustString("zero"),
		Stepper:          sec.Key("type").In("uts", []string{"uts", "ndadaptive"}),
		DtMin:            sec.Key("dtMin").MustFloat64(1.0e-5),
		DtMax:            sec.Key("dtMax").MustFloat64(1.0e-1),
		LTETol:           sec.Key("lteTol").MustFloat64(1.0e-4),
		RelChange:        sec.Key("relChange").MustFloat64(0.05),
	}
	if t.MaxTime <= 0 || t.Dt <= 0 {
		return t, fmt.Errorf("[Transient] needs positive maxTime and dt")
	}
	return t, nil
}

package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// FluxField is the part of a solver the flux table reads.
type FluxField interface {
	ScalarFlux(cell, g int) float64
}

// Cells locates mesh elements.
type Cells interface {
	NumElements() int
	Centroid(e int) (cx, cy float64)
}

func format(v float64) string { return strconv.FormatFloat(v, 'g', 10, 64) }

// WriteScalarFluxCSV writes one row per element: element, centroid x and
// y, then the scalar flux of every group.
func WriteScalarFluxCSV(w io.Writer, cells Cells, flux FluxField, numGroups int) error {
	cw := csv.NewWriter(w)
	header := []string{"element", "x", "y"}
	for g := 1; g <= numGroups; g++ {
		header = append(header, fmt.Sprintf("group%d", g))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for e := 0; e < cells.NumElements(); e++ {
		cx, cy := cells.Centroid(e)
		row[0], row[1], row[2] = strconv.Itoa(e), format(cx), format(cy)
		for g := 0; g < numGroups; g++ {
			row[3+g] = format(flux.ScalarFlux(e, g))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SeriesCSV streams transient samples as step,t,value,dt rows.
type SeriesCSV struct {
	mu sync.Mutex
	cw *csv.Writer
	c  io.Closer
}

var _ Observer = (*SeriesCSV)(nil)

// NewSeriesCSV writes the header to w. If w is an io.Closer, Close
// closes it.
func NewSeriesCSV(w io.Writer) (*SeriesCSV, error) {
	s := &SeriesCSV{cw: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	if err := s.cw.Write([]string{"step", "t", "value", "dt"}); err != nil {
		return nil, err
	}
	s.cw.Flush()
	return s, s.cw.Error()
}

// CreateSeriesCSV creates the file at path and streams into it.
func CreateSeriesCSV(path string) (*SeriesCSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s, err := NewSeriesCSV(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

func (s *SeriesCSV) Observe(_ context.Context, p Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.cw.Write([]string{strconv.Itoa(p.Step), format(p.T), format(p.Value), format(p.Dt)})
	if err != nil {
		return err
	}
	s.cw.Flush()
	return s.cw.Error()
}

func (s *SeriesCSV) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cw.Flush()
	if s.c == nil {
		return s.cw.Error()
	}
	return s.c.Close()
}

// Dir is a Sink writing each array to <name>.dat under Path, one value
// per line.
type Dir struct {
	Path string
}

var _ Sink = Dir{}

func (d Dir) WriteData(name string, data []float64) error {
	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(d.Path, name+".dat"))
	if err != nil {
		return err
	}
	for _, v := range data {
		if _, err := fmt.Fprintln(f, format(v)); err != nil {
			_ = f.Close()
			return err
		}
	}
	return f.Close()
}

// ReadData reads an array written by WriteData.
func (d Dir) ReadData(name string) ([]float64, error) {
	b, err := os.ReadFile(filepath.Join(d.Path, name+".dat"))
	if err != nil {
		return nil, err
	}
	var values []float64
	for _, field := range strings.Fields(string(b)) {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		values = append(values, v)
	}
	return values, nil
}

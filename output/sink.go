// Package output writes solver results: named data arrays, per-element
// scalar flux tables, time series and gnuplot scripts.
package output

import (
	"fmt"
	"sort"
	"sync"
)

// Sink receives named arrays from a solver.
type Sink interface {
	WriteData(name string, data []float64) error
}

// Recorder is an in-memory Sink.
type Recorder struct {
	mu   sync.Mutex
	data map[string][]float64
}

func NewRecorder() *Recorder {
	return &Recorder{data: make(map[string][]float64)}
}

func (r *Recorder) WriteData(name string, data []float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[name] = append([]float64(nil), data...)
	return nil
}

// Get returns a copy of the named array.
func (r *Recorder) Get(name string) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.data[name]
	if !ok {
		return nil, fmt.Errorf("no data named %q", name)
	}
	return append([]float64(nil), d...), nil
}

// Names lists the stored arrays in sorted order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.data))
	for n := range r.data {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

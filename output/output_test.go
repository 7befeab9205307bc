package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type twoCells struct{}

func (twoCells) NumElements() int { return 2 }
func (twoCells) Centroid(e int) (float64, float64) {
	return float64(e) + 0.5, 0.25
}

type linearFlux struct{}

func (linearFlux) ScalarFlux(cell, g int) float64 { return float64(10*cell + g) }

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	data := []float64{1, 2}
	require.NoError(t, r.WriteData("b", data))
	require.NoError(t, r.WriteData("a", nil))
	data[0] = 9

	got, err := r.Get("b")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, got)
	assert.Equal(t, []string{"a", "b"}, r.Names())
	_, err = r.Get("c")
	assert.Error(t, err)
}

func TestScalarFluxCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteScalarFluxCSV(&buf, twoCells{}, linearFlux{}, 2))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"element", "x", "y", "group1", "group2"}, rows[0])
	assert.Equal(t, []string{"1", "1.5", "0.25", "10", "11"}, rows[2])
}

func TestSeriesCSV(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewSeriesCSV(&buf)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Observe(ctx, Point{Step: 1, T: 0.1, Value: 1.5, Dt: 0.1}))
	require.NoError(t, s.Observe(ctx, Point{Step: 2, T: 0.2, Value: 2, Dt: 0.1}))
	require.NoError(t, s.Close())

	assert.Equal(t, "step,t,value,dt\n1,0.1,1.5,0.1\n2,0.2,2,0.1\n", buf.String())
}

func TestSeriesCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "power.csv")
	s, err := CreateSeriesCSV(path)
	require.NoError(t, err)
	require.NoError(t, s.Observe(context.Background(), Point{Step: 1, T: 1, Value: 1, Dt: 1}))
	require.NoError(t, s.Close())
}

func TestDirSink(t *testing.T) {
	d := Dir{Path: filepath.Join(t.TempDir(), "run")}
	want := []float64{0.1, -2.5e-12, 3}
	require.NoError(t, d.WriteData("solution", want))
	got, err := d.ReadData("solution")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	_, err = d.ReadData("missing")
	assert.Error(t, err)
}

func TestObserverFunc(t *testing.T) {
	var seen []Point
	var o Observer = ObserverFunc(func(_ context.Context, p Point) error {
		seen = append(seen, p)
		return nil
	})
	require.NoError(t, o.Observe(context.Background(), Point{Step: 3}))
	assert.Equal(t, []Point{{Step: 3}}, seen)
}

func TestGnuplotScripts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFluxGnuplot(&buf, "flux.csv", "flux.png", 2))
	script := buf.String()
	assert.Contains(t, script, "set output 'flux.png'")
	assert.Contains(t, script, "'flux.csv' using 2:4")
	assert.Contains(t, script, "'flux.csv' using 2:5")
	assert.Equal(t, 1, strings.Count(script, "plot '"))

	buf.Reset()
	require.NoError(t, WriteSeriesGnuplot(&buf, "power.csv", "power.png"))
	assert.Contains(t, buf.String(), "'power.csv' using 2:3")
	assert.Contains(t, buf.String(), "axes x1y2")
}

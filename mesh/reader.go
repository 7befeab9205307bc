package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Read parses the plain-text mesh format:
//
//	# comment
//	vertices N
//	x y            (N lines)
//	triangles M
//	a b c [block]  (M lines, 0-based vertex ids)
func Read(r io.Reader) (*TriMesh, error) {
	sc := bufio.NewScanner(r)
	line := 0
	next := func() ([]string, bool) {
		for sc.Scan() {
			line++
			text := strings.TrimSpace(sc.Text())
			if text == "" || strings.HasPrefix(text, "#") {
				continue
			}
			return strings.Fields(text), true
		}
		return nil, false
	}
	header := func(name string) (int, error) {
		f, ok := next()
		if !ok {
			return 0, fmt.Errorf("missing %q header", name)
		}
		if len(f) != 2 || f[0] != name {
			return 0, fmt.Errorf("line %d: want %q header", line, name)
		}
		n, err := strconv.Atoi(f[1])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("line %d: bad %s count %q", line, name, f[1])
		}
		return n, nil
	}

	nv, err := header("vertices")
	if err != nil {
		return nil, err
	}
	vx, vy := make([]float64, nv), make([]float64, nv)
	for i := 0; i < nv; i++ {
		f, ok := next()
		if !ok || len(f) < 2 {
			return nil, fmt.Errorf("line %d: vertex %d needs x y", line, i)
		}
		if vx[i], err = strconv.ParseFloat(f[0], 64); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if vy[i], err = strconv.ParseFloat(f[1], 64); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}

	nt, err := header("triangles")
	if err != nil {
		return nil, err
	}
	EToV := make([][3]int, nt)
	blocks := make([]int, nt)
	for e := 0; e < nt; e++ {
		f, ok := next()
		if !ok || len(f) < 3 {
			return nil, fmt.Errorf("line %d: triangle %d needs three vertex ids", line, e)
		}
		for k := 0; k < 3; k++ {
			if EToV[e][k], err = strconv.Atoi(f[k]); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		blocks[e] = 1
		if len(f) > 3 {
			if blocks[e], err = strconv.Atoi(f[3]); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read mesh: %w", err)
	}
	return NewTriMesh(vx, vy, EToV, blocks)
}

// ReadFile opens and parses a mesh file.
func ReadFile(path string) (*TriMesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mesh: %w", err)
	}
	defer f.Close()
	m, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("mesh %s: %w", path, err)
	}
	return m, nil
}

// Write emits m in the format Read parses.
func (m *TriMesh) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "vertices %d\n", m.NumVertices())
	for i := range m.VX {
		fmt.Fprintf(bw, "%.17g %.17g\n", m.VX[i], m.VY[i])
	}
	fmt.Fprintf(bw, "triangles %d\n", m.NumElements())
	for e := 0; e < m.NumElements(); e++ {
		c := m.Connectivity(e)
		fmt.Fprintf(bw, "%d %d %d %d\n", c[0], c[1], c[2], m.Blocks[e])
	}
	return bw.Flush()
}

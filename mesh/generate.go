package mesh

import "fmt"

// BlockFunc assigns a material block from an element centroid.
type BlockFunc func(cx, cy float64) int

// Rectangle meshes [0,width]x[0,height] with nx by ny quads, each split
// into two triangles along the (i+1,j)-(i,j+1) diagonal. block may be nil.
func Rectangle(nx, ny int, width, height float64, block BlockFunc) (*TriMesh, error) {
	if nx < 1 || ny < 1 || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("rectangle: invalid discretization %dx%d of %gx%g", nx, ny, width, height)
	}
	dx, dy := width/float64(nx), height/float64(ny)
	vx := make([]float64, 0, (nx+1)*(ny+1))
	vy := make([]float64, 0, (nx+1)*(ny+1))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			vx = append(vx, float64(i)*dx)
			vy = append(vy, float64(j)*dy)
		}
	}

	vid := func(i, j int) int { return j*(nx+1) + i }
	EToV := make([][3]int, 0, 2*nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			a, b := vid(i, j), vid(i+1, j)
			c, d := vid(i+1, j+1), vid(i, j+1)
			EToV = append(EToV, [3]int{a, b, d}, [3]int{b, c, d})
		}
	}

	var blocks []int
	if block != nil {
		blocks = make([]int, len(EToV))
		for e, tri := range EToV {
			cx := (vx[tri[0]] + vx[tri[1]] + vx[tri[2]]) / 3
			cy := (vy[tri[0]] + vy[tri[1]] + vy[tri[2]]) / 3
			blocks[e] = block(cx, cy)
		}
	}
	return NewTriMesh(vx, vy, EToV, blocks)
}

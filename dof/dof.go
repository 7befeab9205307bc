// Package dof maps (space, ordinate, group, sub index) tuples onto flat
// offsets of the unknown arrays.
package dof

import (
	"fmt"
	"sort"
)

// Key is one unknown. Spatial is an edge id, a cell id, or a synthetic
// boundary slot id depending on the array it addresses.
type Key struct {
	Spatial int
	Angular int
	Group   int
	Sub     int
}

// Less orders keys spatial-major, then angular, then group, then sub index.
func (k Key) Less(o Key) bool {
	switch {
	case k.Spatial != o.Spatial:
		return k.Spatial < o.Spatial
	case k.Angular != o.Angular:
		return k.Angular < o.Angular
	case k.Group != o.Group:
		return k.Group < o.Group
	}
	return k.Sub < o.Sub
}

func (k Key) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", k.Spatial, k.Angular, k.Group, k.Sub)
}

// Layout is a dense spatial-major layout. No bounds checking is done by
// Index; callers keep every component inside the counts given here.
type Layout struct {
	NumSpatial int
	NumAngles  int
	NumGroups  int
	NumSub     int
}

// NewEdgeLayout stores two values per edge, direction and group.
func NewEdgeLayout(numEdges, numAngles, numGroups int) Layout {
	return Layout{NumSpatial: numEdges, NumAngles: numAngles, NumGroups: numGroups, NumSub: 2}
}

// NewPhaseSpaceLayout stores subCells cell averages per cell, direction
// and group.
func NewPhaseSpaceLayout(numCells, numAngles, numGroups, subCells int) Layout {
	return Layout{NumSpatial: numCells, NumAngles: numAngles, NumGroups: numGroups, NumSub: subCells}
}

// Size is the number of offsets the layout spans.
func (l Layout) Size() int {
	return l.NumSpatial * l.NumAngles * l.NumGroups * l.NumSub
}

// Index returns the flat offset of (i, n, g, sub).
func (l Layout) Index(i, n, g, sub int) int {
	return l.NumSub*(l.NumAngles*l.NumGroups*i+l.NumGroups*n+g) + sub
}

// IndexKey is Index for a Key.
func (l Layout) IndexKey(k Key) int {
	return l.Index(k.Spatial, k.Angular, k.Group, k.Sub)
}

// Key inverts Index.
func (l Layout) Key(offset int) Key {
	sub := offset % l.NumSub
	offset /= l.NumSub
	g := offset % l.NumGroups
	offset /= l.NumGroups
	n := offset % l.NumAngles
	return Key{Spatial: offset / l.NumAngles, Angular: n, Group: g, Sub: sub}
}

// Values is a sparse set of unknowns addressed by Key. Missing keys read
// as zero.
type Values map[Key]float64

// Get returns the value at k, or zero.
func (v Values) Get(k Key) float64 {
	return v[k]
}

// Keys returns the stored keys in Key order.
func (v Values) Keys() []Key {
	keys := make([]Key, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Equal reports whether both maps hold the same keys and values.
func (v Values) Equal(o Values) bool {
	if len(v) != len(o) {
		return false
	}
	for k, val := range v {
		if ov, ok := o[k]; !ok || ov != val {
			return false
		}
	}
	return true
}

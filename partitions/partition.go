// Package partitions splits a range of work items (ordinates, cells)
// into partitions that run concurrently.
package partitions

import (
	"fmt"
	"sync"
)

// Partition is a set of items processed sequentially by one worker.
type Partition struct {
	ID int

	Items    []int // global item indices in this partition
	NumItems int   // number of items actually assigned
	MaxItems int   // size of the largest partition in the layout
}

// Layout is a complete decomposition of NumItems items.
type Layout struct {
	Partitions []Partition

	MaxItems      int // max(NumItems) across all partitions
	TotalItems    int
	NumPartitions int

	// ItemToPartition[i] is the partition owning item i.
	ItemToPartition []int
}

// GetPartition returns the partition containing item i, or -1.
func (pl *Layout) GetPartition(i int) int {
	if i < 0 || i >= len(pl.ItemToPartition) {
		return -1
	}
	return pl.ItemToPartition[i]
}

// ValidateLayout checks that every item is owned exactly once and that the
// stored sizes agree with the partitions.
func (pl *Layout) ValidateLayout() error {
	actualMax := 0
	owned := make([]int, pl.TotalItems)
	for _, p := range pl.Partitions {
		if p.NumItems != len(p.Items) {
			return fmt.Errorf("partition %d: NumItems %d != len(Items) %d",
				p.ID, p.NumItems, len(p.Items))
		}
		if p.MaxItems != pl.MaxItems {
			return fmt.Errorf("partition %d: MaxItems %d != layout MaxItems %d",
				p.ID, p.MaxItems, pl.MaxItems)
		}
		actualMax = max(actualMax, p.NumItems)
		for _, i := range p.Items {
			if i < 0 || i >= pl.TotalItems {
				return fmt.Errorf("partition %d: item %d out of range", p.ID, i)
			}
			if pl.ItemToPartition[i] != p.ID {
				return fmt.Errorf("item %d: mapped to %d, found in %d",
					i, pl.ItemToPartition[i], p.ID)
			}
			owned[i]++
		}
	}
	if actualMax != pl.MaxItems {
		return fmt.Errorf("computed MaxItems %d != stored MaxItems %d",
			actualMax, pl.MaxItems)
	}
	for i, n := range owned {
		if n != 1 {
			return fmt.Errorf("item %d owned %d times", i, n)
		}
	}
	return nil
}

// Run calls fn once per non-empty partition, each on its own goroutine,
// and waits for all of them.
func (pl *Layout) Run(fn func(p Partition)) {
	var wg sync.WaitGroup
	for _, p := range pl.Partitions {
		if p.NumItems == 0 {
			continue
		}
		wg.Add(1)
		go func(p Partition) {
			defer wg.Done()
			fn(p)
		}(p)
	}
	wg.Wait()
}

// ForEach calls fn for every item, partitions in parallel and items within
// a partition in order.
func (pl *Layout) ForEach(fn func(item int)) {
	pl.Run(func(p Partition) {
		for _, i := range p.Items {
			fn(i)
		}
	})
}

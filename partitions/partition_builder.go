package partitions

import (
	"fmt"
	"math"
)

// Builder constructs partitions over a range of items.
type Builder struct {
	NumItems int

	TargetPartitionSize int // desired items per partition
	Strategy            Strategy
}

// Strategy defines how items are grouped.
type Strategy int

const (
	BlockPartition Strategy = iota // consecutive items
	RoundRobin                     // distribute cyclically
)

// ForWorkers builds a layout of numItems items over at most workers
// partitions.
func ForWorkers(numItems, workers int, strategy Strategy) (*Layout, error) {
	if workers < 1 {
		workers = 1
	}
	b := &Builder{
		NumItems:            numItems,
		TargetPartitionSize: int(math.Ceil(float64(numItems) / float64(workers))),
		Strategy:            strategy,
	}
	return b.BuildPartitions()
}

// BuildPartitions creates the layout.
func (pb *Builder) BuildPartitions() (*Layout, error) {
	if pb.NumItems < 0 {
		return nil, fmt.Errorf("negative item count %d", pb.NumItems)
	}
	numPartitions := pb.calculateNumPartitions()
	iToP := pb.partitionItems(numPartitions)
	partitions := createPartitions(iToP, numPartitions)

	maxItems := 0
	for _, p := range partitions {
		maxItems = max(maxItems, p.NumItems)
	}
	for i := range partitions {
		partitions[i].MaxItems = maxItems
	}

	layout := &Layout{
		Partitions:      partitions,
		MaxItems:        maxItems,
		TotalItems:      pb.NumItems,
		NumPartitions:   numPartitions,
		ItemToPartition: iToP,
	}
	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}
	return layout, nil
}

func (pb *Builder) calculateNumPartitions() int {
	if pb.TargetPartitionSize < 1 {
		return 1
	}
	return max(1, int(math.Ceil(float64(pb.NumItems)/float64(pb.TargetPartitionSize))))
}

func (pb *Builder) partitionItems(numPartitions int) []int {
	iToP := make([]int, pb.NumItems)
	switch pb.Strategy {
	case RoundRobin:
		for i := range iToP {
			iToP[i] = i % numPartitions
		}
	default:
		perPartition := max(1, int(math.Ceil(float64(pb.NumItems)/float64(numPartitions))))
		for i := range iToP {
			iToP[i] = min(i/perPartition, numPartitions-1)
		}
	}
	return iToP
}

func createPartitions(iToP []int, numPartitions int) []Partition {
	partitions := make([]Partition, numPartitions)
	for i := range partitions {
		partitions[i] = Partition{ID: i, Items: make([]int, 0)}
	}
	for item, part := range iToP {
		partitions[part].Items = append(partitions[part].Items, item)
		partitions[part].NumItems++
	}
	return partitions
}

// Stats summarizes load balance.
type Stats struct {
	NumPartitions int
	MinItems      int
	MaxItems      int
	AvgItems      float64
	Imbalance     float64 // MaxItems / AvgItems
}

// Statistics computes load balance metrics.
func (pl *Layout) Statistics() Stats {
	stats := Stats{
		NumPartitions: pl.NumPartitions,
		MinItems:      math.MaxInt32,
		AvgItems:      float64(pl.TotalItems) / float64(pl.NumPartitions),
	}
	for _, p := range pl.Partitions {
		stats.MinItems = min(stats.MinItems, p.NumItems)
		stats.MaxItems = max(stats.MaxItems, p.NumItems)
	}
	if stats.AvgItems > 0 {
		stats.Imbalance = float64(stats.MaxItems) / stats.AvgItems
	}
	return stats
}

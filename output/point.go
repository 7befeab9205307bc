package output

import "context"

// Point is one sample of a transient time series: the step number, time,
// normalized total neutron production and the step size.
type Point struct {
	Step  int     `json:"step"`
	T     float64 `json:"t"`
	Value float64 `json:"value"`
	Dt    float64 `json:"dt"`
}

// Observer receives every transient sample.
type Observer interface {
	Observe(ctx context.Context, p Point) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, p Point) error

func (f ObserverFunc) Observe(ctx context.Context, p Point) error { return f(ctx, p) }

// Package arith provides the two interchangeable number representations used while
// training: plain probabilities and natural-log probabilities.
package arith

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Arithmetic is the set of operations the trainer performs on probability-like values.
// Values handed to an Arithmetic must have been produced by the same Arithmetic.
type Arithmetic interface {
	Name() string
	// Zero is the representation of probability 0.
	Zero() float64
	// One is the representation of probability 1.
	One() float64
	Mul(a, b float64) float64
	Div(a, b float64) float64
	Add(a, b float64) float64
	// Sum adds all values; an empty slice sums to Zero.
	Sum(xs []float64) float64
	FromProb(p float64) float64
	FromLogProb(lp float64) float64
	ToLogProb(x float64) float64
	ToProb(x float64) float64
	// Smooth returns (count + n) / (total + n*v) for raw linear counts.
	Smooth(count, total, n, v float64) float64
}

// Mode names accepted by ByName.
const (
	LinearName = "linear"
	LogName    = "log"
)

// ByName returns the arithmetic registered under name.
func ByName(name string) (Arithmetic, error) {
	switch name {
	case LinearName:
		return Linear{}, nil
	case LogName, "":
		return Log{}, nil
	default:
		return nil, fmt.Errorf("arith: unknown mode %q", name)
	}
}

// Linear keeps plain probabilities. Long sentences underflow to zero.
type Linear struct{}

func (Linear) Name() string                   { return LinearName }
func (Linear) Zero() float64                  { return 0 }
func (Linear) One() float64                   { return 1 }
func (Linear) Mul(a, b float64) float64       { return a * b }
func (Linear) Div(a, b float64) float64       { return a / b }
func (Linear) Add(a, b float64) float64       { return a + b }
func (Linear) FromProb(p float64) float64     { return p }
func (Linear) FromLogProb(lp float64) float64 { return math.Exp(lp) }
func (Linear) ToLogProb(x float64) float64    { return math.Log(x) }
func (Linear) ToProb(x float64) float64       { return x }

func (Linear) Sum(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return floats.Sum(xs)
}

func (Linear) Smooth(count, total, n, v float64) float64 {
	return (count + n) / (total + n*v)
}

// Log keeps natural-log probabilities.
type Log struct{}

func (Log) Name() string                   { return LogName }
func (Log) Zero() float64                  { return math.Inf(-1) }
func (Log) One() float64                   { return 0 }
func (Log) Mul(a, b float64) float64       { return a + b }
func (Log) Div(a, b float64) float64       { return a - b }
func (Log) Add(a, b float64) float64       { return LogAdd(a, b) }
func (Log) FromProb(p float64) float64     { return math.Log(p) }
func (Log) FromLogProb(lp float64) float64 { return lp }
func (Log) ToLogProb(x float64) float64    { return x }
func (Log) ToProb(x float64) float64       { return math.Exp(x) }

func (Log) Sum(xs []float64) float64 {
	if len(xs) == 0 {
		return math.Inf(-1)
	}
	return floats.LogSumExp(xs)
}

func (Log) Smooth(count, total, n, v float64) float64 {
	return LogAdd(math.Log(count), math.Log(n)) - LogAdd(math.Log(total), math.Log(n*v))
}

// logAddCutoff is the difference below which the smaller operand is dropped.
const logAddCutoff = -20.0

// LogAdd returns log(exp(a) + exp(b)).
func LogAdd(a, b float64) float64 {
	max, negDiff := b, a-b
	if a > b {
		max, negDiff = a, b-a
	}
	switch {
	case math.IsInf(max, -1):
		return max
	case negDiff < logAddCutoff:
		return max
	default:
		return max + math.Log1p(math.Exp(negDiff))
	}
}

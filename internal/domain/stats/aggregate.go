// Package stats computes rollups over sensor samples and activity records.
// Everything here is pure: callers fetch the rows and pass them in.
package stats

// Summary is the result of aggregating optional readings.
// All fields are nil when no reading was present.
type Summary struct {
	Min *float64
	Max *float64
	Avg *float64
}

// Accumulator folds optional readings one at a time in constant space.
// The zero value is ready to use.
type Accumulator struct {
	count int
	sum   float64
	min   float64
	max   float64
}

func (a *Accumulator) Add(v *float64) {
	if v == nil {
		return
	}
	x := *v
	if a.count == 0 {
		a.min, a.max = x, x
	} else {
		a.min = min(a.min, x)
		a.max = max(a.max, x)
	}
	a.sum += x
	a.count++
}

func (a *Accumulator) Count() int {
	return a.count
}

func (a *Accumulator) Summary() Summary {
	if a.count == 0 {
		return Summary{}
	}
	lo, hi, avg := a.min, a.max, a.sum/float64(a.count)
	return Summary{Min: &lo, Max: &hi, Avg: &avg}
}

func Aggregate(values []*float64) Summary {
	var acc Accumulator
	for _, v := range values {
		acc.Add(v)
	}
	return acc.Summary()
}

func valueOr[T int | float64](v *T) T {
	if v == nil {
		return 0
	}
	return *v
}

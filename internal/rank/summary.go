package rank

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of one score column.
type Summary struct {
	Min    float64 `json:"min" toml:"min"`
	Max    float64 `json:"max" toml:"max"`
	Mean   float64 `json:"mean" toml:"mean"`
	StdDev float64 `json:"stddev" toml:"stddev"`
	// Zeros counts nodes scoring exactly 0, e.g. sinks for out-closeness.
	Zeros int `json:"zeros" toml:"zeros"`
}

// Summarize computes the Summary of scores. An empty column yields the zero
// Summary; a single score has zero standard deviation.
func Summarize(scores []float64) Summary {
	if len(scores) == 0 {
		return Summary{}
	}
	s := Summary{
		Min:  floats.Min(scores),
		Max:  floats.Max(scores),
		Mean: stat.Mean(scores, nil),
	}
	if len(scores) > 1 {
		s.StdDev = stat.StdDev(scores, nil)
	}
	for _, v := range scores {
		if v == 0 {
			s.Zeros++
		}
	}
	return s
}

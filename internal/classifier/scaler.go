package classifier

import "math"

// Scaler standardizes features to zero mean and unit variance.
type Scaler struct {
	Mean  [NumFeatures]float64
	Scale [NumFeatures]float64
}

// FitScaler computes per-feature mean and population standard deviation.
// A constant feature gets scale 1.
func FitScaler(rows [][NumFeatures]float64) Scaler {
	var s Scaler
	if len(rows) == 0 {
		for j := range s.Scale {
			s.Scale[j] = 1
		}
		return s
	}
	n := float64(len(rows))
	for _, r := range rows {
		for j, v := range r {
			s.Mean[j] += v
		}
	}
	for j := range s.Mean {
		s.Mean[j] /= n
	}
	var variance [NumFeatures]float64
	for _, r := range rows {
		for j, v := range r {
			d := v - s.Mean[j]
			variance[j] += d * d
		}
	}
	for j := range s.Scale {
		std := math.Sqrt(variance[j] / n)
		if std == 0 {
			std = 1
		}
		s.Scale[j] = std
	}
	return s
}

// Transform standardizes one feature row.
func (s Scaler) Transform(x [NumFeatures]float64) [NumFeatures]float64 {
	var out [NumFeatures]float64
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out
}

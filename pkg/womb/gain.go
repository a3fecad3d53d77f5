package womb

import "math"

// DBToLinear converts a decibel value to a linear amplitude gain.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts a linear amplitude to decibels. Zero maps to -Inf.
func LinearToDB(v float64) float64 {
	return 20 * math.Log10(v)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

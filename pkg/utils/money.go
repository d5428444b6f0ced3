package utils

import "math"

// TotalAmount is price per seat times seats, rounded to minor units
func TotalAmount(price float64, seats int) float64 {
	return math.Round(price*float64(seats)*100) / 100
}

// SameAmount compares two amounts at minor-unit precision
func SameAmount(a, b float64) bool {
	return math.Round(a*100) == math.Round(b*100)
}

package draft

// Total sums quantity times unit price over every line. Callers must compute
// it at the moment they need it; nothing in this package caches a total next
// to the mutable line list.
func Total(lines []Line) float64 {
	var sum float64
	for _, l := range lines {
		sum += float64(l.Quantity) * l.UnitPrice
	}
	return sum
}

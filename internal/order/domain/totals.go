package domain

import "math"

// ComputeTotal sums quantity * price across lines, rounded to 2 decimals.
// Pure function: callers decide when to persist the result, but every path
// that materializes an order for output goes through it.
func ComputeTotal(lines []OrderLine) float64 {
	var total float64
	for _, line := range lines {
		total += float64(line.Quantity) * line.Price
	}
	return math.Round(total*100) / 100
}

// ValidateLine enforces the line-level numeric invariants.
func ValidateLine(line CreateLineRequest) error {
	if line.ProductID == 0 {
		return ErrInvalidProduct
	}
	if line.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if line.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}

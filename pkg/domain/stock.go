package domain

// StockLevel classifies an inventory quantity against its threshold.
type StockLevel string

// Stock levels.
const (
	StockIn  StockLevel = "in-stock"
	StockLow StockLevel = "low-stock"
	StockOut StockLevel = "out-of-stock"
)

// ClassifyStock reports out of stock at zero or below, low stock up to and
// including threshold, and in stock otherwise.
func ClassifyStock(stock, threshold int) StockLevel {
	switch {
	case stock <= 0:
		return StockOut
	case stock <= threshold:
		return StockLow
	default:
		return StockIn
	}
}

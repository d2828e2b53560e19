package entity

import "github.com/shopspring/decimal"

// StockStatus estado derivado del stock de un producto.
type StockStatus string

// Estados de stock.
const (
	StockStatusRupture StockStatus = "RUPTURE" // cantidad == 0
	StockStatusLow     StockStatus = "FAIBLE"  // 0 < cantidad <= stock mínimo
	StockStatusNormal  StockStatus = "NORMAL"
)

// Valid indica si el estado es uno de los conocidos.
func (s StockStatus) Valid() bool {
	switch s {
	case StockStatusRupture, StockStatusLow, StockStatusNormal:
		return true
	}
	return false
}

// Balance foto derivada del stock de un producto: no se persiste.
type Balance struct {
	ProductID string
	Quantity  int64
	Value     decimal.Decimal // Quantity * PurchasePrice, 2 decimales
	Status    StockStatus
}

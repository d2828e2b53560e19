package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// La cantidad en stock NO se guarda aquí: se deriva de los movimientos (ver Balance).
// CategoryID y SupplierID son referencias débiles: vacías si no hay, y se anulan
// cuando se borra la categoría o el proveedor.
type Product struct {
	ID            string
	Name          string
	Description   string
	CategoryID    string
	SupplierID    string
	PurchasePrice decimal.Decimal // precio de compra, 2 decimales
	SalePrice     decimal.Decimal // precio de venta, 2 decimales
	MinimumStock  int64           // umbral de alerta (inclusive)
	CreatedAt     time.Time
}

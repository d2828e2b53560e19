package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	Name          string          `json:"name" validate:"required,min=1,max=100"`
	Description   string          `json:"description"`
	CategoryID    string          `json:"category_id,omitempty"`
	SupplierID    string          `json:"supplier_id,omitempty"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	MinimumStock  int64           `json:"minimum_stock" validate:"gte=0"`
}

// UpdateProductRequest entrada para actualizar un producto (la cantidad nunca: se maneja vía movimientos).
type UpdateProductRequest struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=100"`
	Description   *string          `json:"description"`
	CategoryID    *string          `json:"category_id"` // "" desasigna
	SupplierID    *string          `json:"supplier_id"` // "" desasigna
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SalePrice     *decimal.Decimal `json:"sale_price"`
	MinimumStock  *int64           `json:"minimum_stock" validate:"omitempty,gte=0"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	CategoryID    string          `json:"category_id,omitempty"`
	SupplierID    string          `json:"supplier_id,omitempty"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	MinimumStock  int64           `json:"minimum_stock"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ProductStockResponse producto con su saldo en vivo (listado por estado).
type ProductStockResponse struct {
	ProductResponse
	Balance BalanceResponse `json:"balance"`
}

// ProductStockListResponse listado de productos por estado.
type ProductStockListResponse struct {
	Items         []ProductStockResponse `json:"items"`
	Status        string                 `json:"status,omitempty"`
	LowStockCount int                    `json:"low_stock_count"` // FAIBLE + RUPTURE en la lista
}

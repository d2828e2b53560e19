package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
type RegisterMovementRequest struct {
	ProductID string `json:"product_id"`
	Kind      string `json:"kind"` // ENTRY | EXIT
	Quantity  int64  `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
}

// MovementResponse salida de un movimiento del libro mayor.
type MovementResponse struct {
	ID         string    `json:"id"`
	Seq        int64     `json:"seq"`
	ProductID  string    `json:"product_id"`
	Kind       string    `json:"kind"`
	Quantity   int64     `json:"quantity"`
	OccurredAt time.Time `json:"occurred_at"`
	Actor      string    `json:"actor"`
	Notes      string    `json:"notes,omitempty"`
}

// MovementListResponse página del historial con conteos por tipo.
type MovementListResponse struct {
	Items      []MovementResponse `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
	Entries    int                `json:"entries"`
	Exits      int                `json:"exits"`
}

// BalanceResponse saldo derivado de un producto.
type BalanceResponse struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	Value     decimal.Decimal `json:"value"`
	Status    string          `json:"status"`
}

// InsufficientStockResponse cuerpo 409 con las cantidades para un mensaje preciso.
type InsufficientStockResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Current   int64  `json:"current"`
	Requested int64  `json:"requested"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un producto en FAIBLE o RUPTURE.
type ReplenishmentSuggestionDTO struct {
	ProductID          string          `json:"product_id"`
	ProductName        string          `json:"product_name"`
	SupplierID         string          `json:"supplier_id,omitempty"`
	Status             string          `json:"status"`
	CurrentStock       int64           `json:"current_stock"`
	MinimumStock       int64           `json:"minimum_stock"`
	IdealStock         int64           `json:"ideal_stock"`          // ceil(MinimumStock * 1.5), al menos MinimumStock+1
	SuggestedOrderQty  int64           `json:"suggested_order_qty"`  // IdealStock - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`            // precio de compra
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	Priority           int             `json:"priority"`             // 1 = más urgente
}

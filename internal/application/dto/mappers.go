package dto

import "github.com/jhoicas/stock-ledger/internal/domain/entity"

// NewMovementResponse convierte un movimiento de dominio.
func NewMovementResponse(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:         m.ID,
		Seq:        m.Seq,
		ProductID:  m.ProductID,
		Kind:       string(m.Kind),
		Quantity:   m.Quantity,
		OccurredAt: m.OccurredAt,
		Actor:      m.Actor,
		Notes:      m.Notes,
	}
}

// NewMovementResponses convierte una lista de movimientos (nunca devuelve nil).
func NewMovementResponses(list []*entity.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, NewMovementResponse(m))
	}
	return out
}

// NewBalanceResponse convierte un saldo de dominio.
func NewBalanceResponse(b entity.Balance) BalanceResponse {
	return BalanceResponse{
		ProductID: b.ProductID,
		Quantity:  b.Quantity,
		Value:     b.Value,
		Status:    string(b.Status),
	}
}

// NewProductResponse convierte un producto de dominio.
func NewProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		CategoryID:    p.CategoryID,
		SupplierID:    p.SupplierID,
		PurchasePrice: p.PurchasePrice,
		SalePrice:     p.SalePrice,
		MinimumStock:  p.MinimumStock,
		CreatedAt:     p.CreatedAt,
	}
}

// NewProductStockResponse producto + saldo.
func NewProductStockResponse(p *entity.Product, b entity.Balance) ProductStockResponse {
	return ProductStockResponse{
		ProductResponse: NewProductResponse(p),
		Balance:         NewBalanceResponse(b),
	}
}

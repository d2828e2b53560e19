package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var _ StockObserver = (*LowStockObserver)(nil)

// LowStockObserver después de cada movimiento confirmado vuelve a derivar el saldo del producto
// y, si el estado no es NORMAL, publica una alerta con la identidad del producto y su cantidad.
type LowStockObserver struct {
	balances BalanceReader
	sink     AlertSink
}

// NewLowStockObserver construye el observador.
func NewLowStockObserver(balances BalanceReader, sink AlertSink) *LowStockObserver {
	return &LowStockObserver{balances: balances, sink: sink}
}

// MovementCommitted implementa StockObserver.
func (o *LowStockObserver) MovementCommitted(ctx context.Context, movement *entity.Movement) error {
	product, balance, err := o.balances.GetBalance(ctx, movement.ProductID)
	if err != nil {
		return fmt.Errorf("derivar saldo post-movimiento: %w", err)
	}
	if balance.Status == entity.StockStatusNormal {
		return nil
	}
	return o.sink.Publish(ctx, LowStockAlert{
		ProductID:    product.ID,
		ProductName:  product.Name,
		Quantity:     balance.Quantity,
		MinimumStock: product.MinimumStock,
		Status:       balance.Status,
		MovementID:   movement.ID,
		At:           movement.OccurredAt,
	})
}

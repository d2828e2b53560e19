package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Garantiza atomicidad del ciclo leer saldo → validar → anexar movimiento: si fn devuelve
// error no queda nada escrito.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// StockObserver gancho post-commit. Se invoca solo después de que el movimiento es durable;
// sus errores se registran y nunca llegan al llamador de RecordMovement.
type StockObserver interface {
	MovementCommitted(ctx context.Context, movement *entity.Movement) error
}

// LowStockAlert notificación de stock bajo o en ruptura.
type LowStockAlert struct {
	ProductID    string
	ProductName  string
	Quantity     int64
	MinimumStock int64
	Status       entity.StockStatus
	MovementID   string
	At           time.Time
}

// AlertSink destino de las alertas (log, evento, callback). Best effort.
type AlertSink interface {
	Publish(ctx context.Context, alert LowStockAlert) error
}

// BalanceReader lectura del saldo derivado de un producto.
type BalanceReader interface {
	GetBalance(ctx context.Context, productID string) (*entity.Product, entity.Balance, error)
}

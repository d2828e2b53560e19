package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LockMode ámbito de exclusión por producto tomado antes de escribir en el libro mayor.
type LockMode int

const (
	// LockShared lo toman las entradas: no se serializan entre sí, pero sí contra una salida en curso.
	LockShared LockMode = iota
	// LockExclusive lo toman las salidas: cubre leer saldo, validar y anexar.
	LockExclusive
)

// ProductStock fila agregada: producto más totales del libro mayor (agregación en el almacenamiento).
type ProductStock struct {
	Product      *entity.Product
	TotalEntries int64
	TotalExits   int64
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID devuelve (nil, nil) si no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	// Delete elimina el producto y, en cascada, sus movimientos.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	Count(ctx context.Context) (int, error)

	// LockForMovement bloquea el producto dentro de la transacción actual (SELECT ... FOR UPDATE/SHARE).
	// Devuelve (nil, nil) si no existe y domain.ErrContention si no se obtuvo a tiempo.
	LockForMovement(ctx context.Context, id string, mode LockMode) (*entity.Product, error)

	// ListWithStock devuelve todos los productos con sus totales de entradas y salidas,
	// en una sola consulta agregada, ordenados por nombre.
	ListWithStock(ctx context.Context) ([]ProductStock, error)
}

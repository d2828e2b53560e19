package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementCursor posición en el orden (OccurredAt DESC, Seq DESC); la página siguiente
// empieza estrictamente después de ella.
type MovementCursor struct {
	OccurredAt time.Time
	Seq        int64
}

// MovementFilter filtros opcionales del historial.
type MovementFilter struct {
	Kind      entity.MovementKind // vacío = todos
	ProductID string
	Since     *time.Time // inclusivo
	Until     *time.Time // inclusivo
	After     *MovementCursor
}

// MovementRepository puerto del libro mayor: solo anexar y leer.
// No existe Update ni Delete: los movimientos son inmutables.
type MovementRepository interface {
	// Append persiste el movimiento y asigna Seq.
	Append(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	// Totals suma entradas y salidas del producto en una sola lectura.
	Totals(ctx context.Context, productID string) (entries, exits int64, err error)
	// List devuelve hasta limit movimientos ordenados por (OccurredAt, Seq) descendente.
	List(ctx context.Context, filter MovementFilter, limit int) ([]*entity.Movement, error)
	// CountByKind cuenta entradas y salidas que cumplen el filtro (ignora After).
	CountByKind(ctx context.Context, filter MovementFilter) (entries, exits int, err error)
}

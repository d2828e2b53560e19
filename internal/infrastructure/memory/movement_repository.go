package memory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro mayor en memoria. Dentro de una transacción los anexos quedan
// pendientes hasta el commit y Totals los incluye.
type MovementRepo struct {
	s  *Store
	tx *txState
}

// NewMovementRepository repositorio fuera de transacción (cada Append es inmediato).
func NewMovementRepository(s *Store) *MovementRepo {
	return &MovementRepo{s: s}
}

// Append anexa el movimiento. En transacción, Seq y OccurredAt se asignan al confirmar.
// Fuera de ella se respeta el OccurredAt recibido (carga de históricos) y, si viene vacío,
// se usa el instante actual.
func (r *MovementRepo) Append(_ context.Context, movement *entity.Movement) error {
	if r.tx != nil {
		r.tx.pending = append(r.tx.pending, movement)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if movement.OccurredAt.IsZero() {
		movement.OccurredAt = r.s.stampLocked()
	}
	return r.s.appendLocked(movement)
}

// GetByID devuelve (nil, nil) si no existe.
func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.movByID[id]
	if !ok {
		return nil, nil
	}
	return cloneMovement(m), nil
}

// Totals suma entradas y salidas confirmadas más las pendientes de esta transacción.
func (r *MovementRepo) Totals(_ context.Context, productID string) (int64, int64, error) {
	r.s.mu.RLock()
	entries, exits := r.s.totalsLocked(productID)
	r.s.mu.RUnlock()
	if r.tx != nil {
		var own []*entity.Movement
		for _, m := range r.tx.pending {
			if m.ProductID == productID {
				own = append(own, m)
			}
		}
		e, x := domaininv.FoldMovements(own)
		entries, exits = entries+e, exits+x
	}
	return entries, exits, nil
}

// List movimientos filtrados, (OccurredAt, Seq) descendente, a partir del cursor.
func (r *MovementRepo) List(_ context.Context, filter repository.MovementFilter, limit int) ([]*entity.Movement, error) {
	r.s.mu.RLock()
	out := make([]*entity.Movement, 0)
	for _, m := range r.s.movements {
		if matches(m, filter, true) {
			out = append(out, cloneMovement(m))
		}
	}
	r.s.mu.RUnlock()
	sortDesc(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountByKind cuenta entradas y salidas que cumplen el filtro.
func (r *MovementRepo) CountByKind(_ context.Context, filter repository.MovementFilter) (int, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var entries, exits int
	for _, m := range r.s.movements {
		if !matches(m, filter, false) {
			continue
		}
		if m.Kind == entity.MovementEntry {
			entries++
		} else {
			exits++
		}
	}
	return entries, exits, nil
}

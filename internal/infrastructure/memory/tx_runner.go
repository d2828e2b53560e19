package memory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// txState bloqueos tomados y movimientos pendientes de una transacción.
type txState struct {
	releases []func()
	pending  []*entity.Movement
}

func (t *txState) hold(release func()) {
	t.releases = append(t.releases, release)
}

func (t *txState) releaseAll() {
	for i := len(t.releases) - 1; i >= 0; i-- {
		t.releases[i]()
	}
	t.releases = nil
}

// TxRunner transacciones en memoria: los anexos se aplican todos o ninguno,
// y los bloqueos por producto se mantienen hasta el commit o rollback.
// OccurredAt y Seq se asignan dentro del commit, bajo s.mu: un movimiento que confirma
// tarde nunca queda detrás de filas que ya eran visibles.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el Store.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn con repos atados a la transacción. Si fn devuelve error no se escribe nada.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	tx := &txState{}
	defer tx.releaseAll()

	if err := fn(&MovementRepo{s: r.s, tx: tx}, &ProductRepo{s: r.s, tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[string]struct{}, len(tx.pending))
	for _, m := range tx.pending {
		if _, ok := r.s.products[m.ProductID]; !ok {
			return domain.ErrNotFound
		}
		if _, ok := r.s.movByID[m.ID]; ok {
			return domain.ErrDuplicate
		}
		if _, ok := seen[m.ID]; ok {
			return domain.ErrDuplicate
		}
		seen[m.ID] = struct{}{}
	}
	at := r.s.stampLocked()
	for _, m := range tx.pending {
		m.OccurredAt = at
		if err := r.s.appendLocked(m); err != nil {
			return err
		}
	}
	return nil
}

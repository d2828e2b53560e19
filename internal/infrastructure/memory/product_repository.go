package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo productos en memoria. Con tx != nil los bloqueos quedan atados a la transacción.
type ProductRepo struct {
	s  *Store
	tx *txState
}

// NewProductRepository repositorio fuera de transacción.
func NewProductRepository(s *Store) *ProductRepo {
	return &ProductRepo{s: s}
}

// Create agrega un producto.
func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[product.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.products[product.ID] = cloneProduct(product)
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return cloneProduct(p), nil
}

// Update reemplaza los atributos del producto. Sin efecto si no existe.
func (r *ProductRepo) Update(_ context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[product.ID]; !ok {
		return nil
	}
	r.s.products[product.ID] = cloneProduct(product)
	return nil
}

// Delete elimina el producto y sus movimientos.
func (r *ProductRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.products, id)
	r.s.deleteMovementsLocked(id)
	return nil
}

// List productos ordenados por nombre.
func (r *ProductRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	r.s.mu.RLock()
	list := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		list = append(list, cloneProduct(p))
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return page(list, limit, offset), nil
}

// Count total de productos.
func (r *ProductRepo) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.products), nil
}

// LockForMovement toma el bloqueo del producto hasta el fin de la transacción.
// Fuera de transacción el bloqueo se libera de inmediato (solo verifica existencia).
func (r *ProductRepo) LockForMovement(ctx context.Context, id string, mode repository.LockMode) (*entity.Product, error) {
	if p, _ := r.GetByID(ctx, id); p == nil {
		return nil, nil
	}
	release, err := r.s.acquire(ctx, id, mode)
	if err != nil {
		return nil, err
	}
	if r.tx != nil {
		r.tx.hold(release)
	} else {
		release()
	}
	// Releer bajo el bloqueo: pudo haberse borrado durante la espera.
	return r.GetByID(ctx, id)
}

// ListWithStock productos con sus totales, ordenados por nombre.
func (r *ProductRepo) ListWithStock(_ context.Context) ([]repository.ProductStock, error) {
	r.s.mu.RLock()
	out := make([]repository.ProductStock, 0, len(r.s.products))
	for _, p := range r.s.products {
		entries, exits := r.s.totalsLocked(p.ID)
		out = append(out, repository.ProductStock{Product: cloneProduct(p), TotalEntries: entries, TotalExits: exits})
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Product.Name != out[j].Product.Name {
			return out[i].Product.Name < out[j].Product.Name
		}
		return out[i].Product.ID < out[j].Product.ID
	})
	return out, nil
}

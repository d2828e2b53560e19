package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ProductBalance producto con su saldo derivado.
type ProductBalance struct {
	Product *entity.Product
	Balance entity.Balance
}

// BalanceUseCase motor de saldos: deriva cantidad, valor y estado desde el libro mayor.
// Solo lectura; no usa bloqueos (lectura de una sola sentencia, consistente por sí misma).
type BalanceUseCase struct {
	productRepo repository.ProductRepository
	movRepo     repository.MovementRepository
}

// NewBalanceUseCase construye el motor de saldos.
func NewBalanceUseCase(productRepo repository.ProductRepository, movRepo repository.MovementRepository) *BalanceUseCase {
	return &BalanceUseCase{productRepo: productRepo, movRepo: movRepo}
}

// GetBalance devuelve el producto y su saldo actual. ErrNotFound si el producto no existe.
func (uc *BalanceUseCase) GetBalance(ctx context.Context, productID string) (*entity.Product, entity.Balance, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, entity.Balance{}, err
	}
	if product == nil {
		return nil, entity.Balance{}, domain.ErrNotFound
	}
	entries, exits, err := uc.movRepo.Totals(ctx, productID)
	if err != nil {
		return nil, entity.Balance{}, err
	}
	return product, domaininv.BalanceCalculator(product, entries, exits), nil
}

// ListProductsByStatus lista productos con su saldo. status vacío = todos.
// La suma por producto se resuelve en el almacenamiento con una sola consulta agregada.
func (uc *BalanceUseCase) ListProductsByStatus(ctx context.Context, status entity.StockStatus) ([]ProductBalance, error) {
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	rows, err := uc.productRepo.ListWithStock(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProductBalance, 0, len(rows))
	for _, r := range rows {
		b := domaininv.BalanceCalculator(r.Product, r.TotalEntries, r.TotalExits)
		if status != "" && b.Status != status {
			continue
		}
		out = append(out, ProductBalance{Product: r.Product, Balance: b})
	}
	return out, nil
}

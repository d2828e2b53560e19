package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ReplenishmentUseCase genera la lista de reposición: productos en FAIBLE o RUPTURE con la
// cantidad sugerida para volver a un stock ideal y el costo estimado del pedido.
type ReplenishmentUseCase struct {
	productRepo repository.ProductRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(productRepo repository.ProductRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{productRepo: productRepo}
}

// IdealStock nivel objetivo tras reponer: ceil(minimo * 1.5), y siempre por encima del mínimo
// para que el producto quede en NORMAL.
func IdealStock(minimum int64) int64 {
	ideal := (minimum*3 + 1) / 2
	if ideal <= minimum {
		ideal = minimum + 1
	}
	return ideal
}

// GenerateReplenishmentList devuelve las sugerencias ordenadas por urgencia:
// primero RUPTURE, luego mayor déficit relativo al mínimo, por último nombre.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context) ([]dto.ReplenishmentSuggestionDTO, error) {
	rows, err := uc.productRepo.ListWithStock(ctx)
	if err != nil {
		return nil, err
	}

	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0)
	for _, r := range rows {
		b := domaininv.BalanceCalculator(r.Product, r.TotalEntries, r.TotalExits)
		if b.Status == entity.StockStatusNormal {
			continue
		}
		ideal := IdealStock(r.Product.MinimumStock)
		qty := ideal - b.Quantity
		if qty < 0 {
			qty = 0
		}
		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ProductID:          r.Product.ID,
			ProductName:        r.Product.Name,
			SupplierID:         r.Product.SupplierID,
			Status:             string(b.Status),
			CurrentStock:       b.Quantity,
			MinimumStock:       r.Product.MinimumStock,
			IdealStock:         ideal,
			SuggestedOrderQty:  qty,
			UnitCost:           r.Product.PurchasePrice,
			EstimatedOrderCost: domaininv.StockValue(qty, r.Product.PurchasePrice),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if (a.Status == string(entity.StockStatusRupture)) != (b.Status == string(entity.StockStatusRupture)) {
			return a.Status == string(entity.StockStatusRupture)
		}
		da, db := relativeDeficit(a), relativeDeficit(b)
		if !da.Equal(db) {
			return da.GreaterThan(db)
		}
		return a.ProductName < b.ProductName
	})

	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}

// relativeDeficit fracción del mínimo que falta: (min - qty) / min. Mínimo 0 cuenta como déficit total.
func relativeDeficit(s dto.ReplenishmentSuggestionDTO) decimal.Decimal {
	if s.MinimumStock <= 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(s.MinimumStock - s.CurrentStock).Div(decimal.NewFromInt(s.MinimumStock))
}

package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MoneyPlaces precisión fija de los montos (precios y valor de stock).
const MoneyPlaces = 2

const (
	// MaxMovementQuantity tope de unidades de un solo movimiento.
	MaxMovementQuantity int64 = 1_000_000_000
	// MaxStockQuantity tope del saldo que puede alcanzar un producto con una entrada.
	// Entradas concurrentes (bloqueo compartido) pueden superarlo como mucho en
	// MaxMovementQuantity cada una, muy lejos del límite de int64.
	MaxStockQuantity int64 = 1_000_000_000_000
)

// BalanceCalculator implementa el plegado del libro mayor (servicio de dominio).
// Cantidad = Σ entradas − Σ salidas; Valor = Cantidad * PrecioCompra.
// No se aplica clamp: la no negatividad la garantiza el servicio de movimientos al escribir.
func BalanceCalculator(product *entity.Product, totalEntries, totalExits int64) entity.Balance {
	qty := totalEntries - totalExits
	return entity.Balance{
		ProductID: product.ID,
		Quantity:  qty,
		Value:     StockValue(qty, product.PurchasePrice),
		Status:    StatusFor(qty, product.MinimumStock),
	}
}

// FoldMovements calcula los totales de entradas y salidas recorriendo los movimientos.
// Es la definición de referencia del saldo; los adaptadores que no suman en la base lo usan.
func FoldMovements(movements []*entity.Movement) (entries, exits int64) {
	for _, m := range movements {
		switch m.Kind {
		case entity.MovementEntry:
			entries += m.Quantity
		case entity.MovementExit:
			exits += m.Quantity
		}
	}
	return entries, exits
}

// StockValue valor del stock redondeado a 2 decimales.
func StockValue(quantity int64, purchasePrice decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(quantity).Mul(purchasePrice).Round(MoneyPlaces)
}

// StatusFor deriva el estado del stock.
// 0 siempre es RUPTURE (aunque el mínimo sea 0); el mínimo es inclusivo en la banda FAIBLE.
func StatusFor(quantity, minimumStock int64) entity.StockStatus {
	switch {
	case quantity == 0:
		return entity.StockStatusRupture
	case quantity <= minimumStock:
		return entity.StockStatusLow
	default:
		return entity.StockStatusNormal
	}
}

// CheckExit valida una salida contra la cantidad actual (tomada dentro del mismo ámbito de bloqueo).
func CheckExit(current, requested int64) error {
	if requested > current {
		return &domain.InsufficientStockError{Current: current, Requested: requested}
	}
	return nil
}

// CheckEntry valida que la entrada no lleve el saldo por encima de MaxStockQuantity.
// La comparación se hace por resta para no desbordar.
func CheckEntry(current, requested int64) error {
	if requested > MaxStockQuantity-current {
		return fmt.Errorf("%w: el saldo superaría %d unidades (actual %d, entrada %d)",
			domain.ErrInvalidQuantity, MaxStockQuantity, current, requested)
	}
	return nil
}

// NormalizePrice valida que el monto sea no negativo y tenga como máximo 2 decimales,
// y lo devuelve con exactamente 2 decimales.
func NormalizePrice(p decimal.Decimal) (decimal.Decimal, error) {
	if p.IsNegative() {
		return decimal.Zero, domain.ErrInvalidInput
	}
	if !p.Equal(p.Round(MoneyPlaces)) {
		return decimal.Zero, domain.ErrInvalidInput
	}
	return p.Round(MoneyPlaces), nil
}

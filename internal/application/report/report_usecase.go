// Package report arma el reporte de stock (PDF) a partir de los saldos derivados.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockReportRow una línea del reporte.
type StockReportRow struct {
	ProductName   string
	Status        entity.StockStatus
	Quantity      int64
	MinimumStock  int64
	PurchasePrice decimal.Decimal
	Value         decimal.Decimal
}

// StockReport datos listos para renderizar.
type StockReport struct {
	Title       string
	GeneratedAt time.Time
	Filter      entity.StockStatus // vacío = todos
	Rows        []StockReportRow
	TotalValue  decimal.Decimal
	Ruptures    int
	Low         int
}

// StockReportGenerator renderiza el reporte (PDF u otro formato) y devuelve sus bytes.
type StockReportGenerator interface {
	GenerateStockReport(ctx context.Context, report *StockReport) ([]byte, error)
}

// ProductBalanceLister fuente de saldos (BalanceUseCase).
type ProductBalanceLister interface {
	ListProductsByStatus(ctx context.Context, status entity.StockStatus) ([]inventory.ProductBalance, error)
}

// StockReportUseCase genera el reporte de stock.
type StockReportUseCase struct {
	balances  ProductBalanceLister
	generator StockReportGenerator
	title     string
	now       func() time.Time
}

// NewStockReportUseCase construye el caso de uso. title aparece en el encabezado.
func NewStockReportUseCase(balances ProductBalanceLister, generator StockReportGenerator, title string) *StockReportUseCase {
	return &StockReportUseCase{balances: balances, generator: generator, title: title, now: time.Now}
}

// Build arma los datos del reporte sin renderizar.
func (uc *StockReportUseCase) Build(ctx context.Context, status entity.StockStatus) (*StockReport, error) {
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	items, err := uc.balances.ListProductsByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	rep := &StockReport{
		Title:       uc.title,
		GeneratedAt: uc.now(),
		Filter:      status,
		Rows:        make([]StockReportRow, 0, len(items)),
		TotalValue:  decimal.Zero,
	}
	for _, it := range items {
		rep.Rows = append(rep.Rows, StockReportRow{
			ProductName:   it.Product.Name,
			Status:        it.Balance.Status,
			Quantity:      it.Balance.Quantity,
			MinimumStock:  it.Product.MinimumStock,
			PurchasePrice: it.Product.PurchasePrice,
			Value:         it.Balance.Value,
		})
		rep.TotalValue = rep.TotalValue.Add(it.Balance.Value)
		switch it.Balance.Status {
		case entity.StockStatusRupture:
			rep.Ruptures++
		case entity.StockStatusLow:
			rep.Low++
		}
	}
	return rep, nil
}

// Download genera el PDF y un nombre de archivo con la fecha.
func (uc *StockReportUseCase) Download(ctx context.Context, status entity.StockStatus) ([]byte, string, error) {
	rep, err := uc.Build(ctx, status)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err := uc.generator.GenerateStockReport(ctx, rep)
	if err != nil {
		return nil, "", fmt.Errorf("reporte de stock: %w", err)
	}
	filename := fmt.Sprintf("stock_%s.pdf", rep.GeneratedAt.Format("20060102_1504"))
	return pdfBytes, filename, nil
}

package report_test

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/report"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

type stubBalances struct {
	items []inventory.ProductBalance
}

func (s stubBalances) ListProductsByStatus(_ context.Context, status entity.StockStatus) ([]inventory.ProductBalance, error) {
	out := make([]inventory.ProductBalance, 0)
	for _, it := range s.items {
		if status == "" || it.Balance.Status == status {
			out = append(out, it)
		}
	}
	return out, nil
}

type stubGenerator struct{ got *report.StockReport }

func (g *stubGenerator) GenerateStockReport(_ context.Context, r *report.StockReport) ([]byte, error) {
	g.got = r
	return []byte("%PDF-stub"), nil
}

func item(name string, qty int64, status entity.StockStatus, value string) inventory.ProductBalance {
	return inventory.ProductBalance{
		Product: &entity.Product{ID: name, Name: name, MinimumStock: 5, PurchasePrice: decimal.RequireFromString("10.00")},
		Balance: entity.Balance{ProductID: name, Quantity: qty, Status: status, Value: decimal.RequireFromString(value)},
	}
}

func TestStockReport_TotalesYConteos(t *testing.T) {
	gen := &stubGenerator{}
	uc := report.NewStockReportUseCase(stubBalances{items: []inventory.ProductBalance{
		item("a", 20, entity.StockStatusNormal, "200.00"),
		item("b", 4, entity.StockStatusLow, "40.00"),
		item("c", 0, entity.StockStatusRupture, "0.00"),
	}}, gen, "Stock")

	pdf, filename, err := uc.Download(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-stub"), pdf)
	assert.True(t, strings.HasPrefix(filename, "stock_"))
	assert.True(t, strings.HasSuffix(filename, ".pdf"))

	require.NotNil(t, gen.got)
	assert.Len(t, gen.got.Rows, 3)
	assert.Equal(t, "240.00", gen.got.TotalValue.StringFixed(2))
	assert.Equal(t, 1, gen.got.Ruptures)
	assert.Equal(t, 1, gen.got.Low)
}

func TestStockReport_FiltroPorEstado(t *testing.T) {
	uc := report.NewStockReportUseCase(stubBalances{items: []inventory.ProductBalance{
		item("a", 20, entity.StockStatusNormal, "200.00"),
		item("c", 0, entity.StockStatusRupture, "0.00"),
	}}, &stubGenerator{}, "Stock")

	rep, err := uc.Build(context.Background(), entity.StockStatusRupture)
	require.NoError(t, err)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, "c", rep.Rows[0].ProductName)

	_, err = uc.Build(context.Background(), "OTRO")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

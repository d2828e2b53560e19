package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/report"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":         "0,00",
		"40":        "40,00",
		"1234.5":    "1.234,50",
		"1234567.5": "1.234.567,50",
		"999":       "999,00",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestGenerateStockReport_ProducePDF(t *testing.T) {
	rep := &report.StockReport{
		Title:       "Inventario",
		GeneratedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Rows: []report.StockReportRow{
			{ProductName: "Agua", Status: entity.StockStatusLow, Quantity: 4, MinimumStock: 5,
				PurchasePrice: decimal.RequireFromString("10.00"), Value: decimal.RequireFromString("40.00")},
		},
		TotalValue: decimal.RequireFromString("40.00"),
		Low:        1,
	}
	out, err := NewMarotoPDFGenerator().GenerateStockReport(context.Background(), rep)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

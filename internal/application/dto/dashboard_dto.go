package dto

import "github.com/shopspring/decimal"

// DashboardSummaryDTO respuesta de GET /api/dashboard.
// KPIs del catálogo más la actividad de la ventana reciente (por defecto 7 días).
type DashboardSummaryDTO struct {
	TotalProducts   int             `json:"total_products"`
	TotalSuppliers  int             `json:"total_suppliers"`
	TotalStockValue decimal.Decimal `json:"total_stock_value"` // Σ cantidad * precio de compra

	WindowDays      int                    `json:"window_days"`
	RecentMovements []MovementResponse     `json:"recent_movements"` // los 10 más recientes de la ventana
	RecentEntries   int                    `json:"recent_entries"`
	RecentExits     int                    `json:"recent_exits"`
	LowStock        []ProductStockResponse `json:"low_stock"` // FAIBLE o RUPTURE
}

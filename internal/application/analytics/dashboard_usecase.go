// Package analytics contiene el resumen del dashboard de inventario.
package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

const (
	dashboardRecentMovements = 10 // movimientos en el widget de actividad
	defaultWindowDays        = 7
)

// DashboardUseCase genera el resumen de inventario: KPIs del catálogo y actividad reciente.
//
// Solo lectura. Cada bloque es una consulta independiente y se ejecutan en paralelo.
type DashboardUseCase struct {
	productRepo  repository.ProductRepository
	supplierRepo repository.SupplierRepository
	movRepo      repository.MovementRepository
	windowDays   int
	now          func() time.Time
}

// NewDashboardUseCase construye el caso de uso. windowDays <= 0 usa 7 días.
func NewDashboardUseCase(
	productRepo repository.ProductRepository,
	supplierRepo repository.SupplierRepository,
	movRepo repository.MovementRepository,
	windowDays int,
) *DashboardUseCase {
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}
	return &DashboardUseCase{
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		movRepo:      movRepo,
		windowDays:   windowDays,
		now:          time.Now,
	}
}

// GetSummary construye el DashboardSummaryDTO.
//
// Cuatro lecturas en paralelo:
//  1. Count de productos y de proveedores
//  2. ListWithStock        → valor total + productos FAIBLE/RUPTURE
//  3. List(ventana, 10)    → últimos movimientos
//  4. CountByKind(ventana) → entradas y salidas recientes
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	since := uc.now().UTC().AddDate(0, 0, -uc.windowDays)
	window := repository.MovementFilter{Since: &since}

	out := &dto.DashboardSummaryDTO{
		TotalStockValue: decimal.Zero,
		WindowDays:      uc.windowDays,
		LowStock:        []dto.ProductStockResponse{},
	}
	var recent []*entity.Movement

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := uc.productRepo.Count(gctx)
		out.TotalProducts = n
		return err
	})
	g.Go(func() error {
		n, err := uc.supplierRepo.Count(gctx)
		out.TotalSuppliers = n
		return err
	})
	g.Go(func() error {
		rows, err := uc.productRepo.ListWithStock(gctx)
		if err != nil {
			return err
		}
		for _, r := range rows {
			b := domaininv.BalanceCalculator(r.Product, r.TotalEntries, r.TotalExits)
			out.TotalStockValue = out.TotalStockValue.Add(b.Value)
			if b.Status != entity.StockStatusNormal {
				out.LowStock = append(out.LowStock, dto.NewProductStockResponse(r.Product, b))
			}
		}
		return nil
	})
	g.Go(func() error {
		list, err := uc.movRepo.List(gctx, window, dashboardRecentMovements)
		recent = list
		return err
	})
	g.Go(func() error {
		entries, exits, err := uc.movRepo.CountByKind(gctx, window)
		out.RecentEntries, out.RecentExits = entries, exits
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.TotalStockValue = out.TotalStockValue.Round(2)
	out.RecentMovements = dto.NewMovementResponses(recent)
	return out, nil
}

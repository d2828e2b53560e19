package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

type catalog struct {
	categories *usecase.CategoryUseCase
	suppliers  *usecase.SupplierUseCase
	products   *usecase.ProductUseCase
}

func newCatalog() catalog {
	s := memory.NewStore(0)
	cats := memory.NewCategoryRepository(s)
	sups := memory.NewSupplierRepository(s)
	return catalog{
		categories: usecase.NewCategoryUseCase(cats),
		suppliers:  usecase.NewSupplierUseCase(sups),
		products:   usecase.NewProductUseCase(memory.NewProductRepository(s), cats, sups),
	}
}

// ─── Productos ───────────────────────────────────────────────────────────────

func TestProductCreate_ConReferencias(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()

	cat, err := c.categories.Create(ctx, dto.CategoryRequest{Name: "Granos"})
	require.NoError(t, err)
	sup, err := c.suppliers.Create(ctx, dto.SupplierRequest{Name: "Agro SAS", Phone: "3001234567"})
	require.NoError(t, err)

	p, err := c.products.Create(ctx, dto.CreateProductRequest{
		Name:          "  Arroz  ",
		CategoryID:    cat.ID,
		SupplierID:    sup.ID,
		PurchasePrice: decimal.RequireFromString("2.50"),
		SalePrice:     decimal.RequireFromString("3.1"),
		MinimumStock:  5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Arroz", p.Name)
	assert.Equal(t, cat.ID, p.CategoryID)
	assert.Equal(t, "3.10", p.SalePrice.StringFixed(2))

	got, err := c.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestProductCreate_Validaciones(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()
	price := decimal.RequireFromString("1.00")

	cases := []struct {
		name string
		in   dto.CreateProductRequest
		want error
	}{
		{"sin nombre", dto.CreateProductRequest{Name: "  ", PurchasePrice: price}, domain.ErrInvalidInput},
		{"precio negativo", dto.CreateProductRequest{Name: "X", PurchasePrice: decimal.RequireFromString("-1")}, domain.ErrInvalidInput},
		{"tres decimales", dto.CreateProductRequest{Name: "X", PurchasePrice: decimal.RequireFromString("1.005")}, domain.ErrInvalidInput},
		{"mínimo negativo", dto.CreateProductRequest{Name: "X", PurchasePrice: price, MinimumStock: -1}, domain.ErrInvalidInput},
		{"categoría inexistente", dto.CreateProductRequest{Name: "X", PurchasePrice: price, CategoryID: "no-existe"}, domain.ErrNotFound},
		{"proveedor inexistente", dto.CreateProductRequest{Name: "X", PurchasePrice: price, SupplierID: "no-existe"}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.products.Create(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestProductUpdate_SoloCamposPresentes(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()

	p, err := c.products.Create(ctx, dto.CreateProductRequest{
		Name:          "Frijol",
		Description:   "bulto",
		PurchasePrice: decimal.RequireFromString("4.00"),
		MinimumStock:  3,
	})
	require.NoError(t, err)

	minStock := int64(8)
	updated, err := c.products.Update(ctx, p.ID, dto.UpdateProductRequest{MinimumStock: &minStock})
	require.NoError(t, err)
	assert.Equal(t, int64(8), updated.MinimumStock)
	assert.Equal(t, "Frijol", updated.Name)
	assert.Equal(t, "bulto", updated.Description)
	assert.True(t, updated.PurchasePrice.Equal(decimal.RequireFromString("4")))

	_, err = c.products.Update(ctx, "no-existe", dto.UpdateProductRequest{MinimumStock: &minStock})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductDelete(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()

	p, err := c.products.Create(ctx, dto.CreateProductRequest{Name: "Sal", PurchasePrice: decimal.Zero})
	require.NoError(t, err)
	require.NoError(t, c.products.Delete(ctx, p.ID))

	_, err = c.products.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, c.products.Delete(ctx, p.ID), domain.ErrNotFound)
}

// ─── Proveedores y categorías ────────────────────────────────────────────────

func TestSupplier_ValidacionesYOrden(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()

	_, err := c.suppliers.Create(ctx, dto.SupplierRequest{Name: "Sin teléfono"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = c.suppliers.Create(ctx, dto.SupplierRequest{Name: "Mal correo", Phone: "1", Email: "no-es-correo"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	for _, name := range []string{"Zeta", "Alfa", "Media"} {
		_, err := c.suppliers.Create(ctx, dto.SupplierRequest{Name: name, Phone: "123"})
		require.NoError(t, err)
	}
	list, total, err := c.suppliers.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 3)
	assert.Equal(t, "Alfa", list[0].Name)
	assert.Equal(t, "Zeta", list[2].Name)
}

func TestCategory_CRUD(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()

	_, err := c.categories.Create(ctx, dto.CategoryRequest{Name: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	cat, err := c.categories.Create(ctx, dto.CategoryRequest{Name: "Aseo"})
	require.NoError(t, err)
	upd, err := c.categories.Update(ctx, cat.ID, dto.CategoryRequest{Name: "Aseo hogar", Description: "limpieza"})
	require.NoError(t, err)
	assert.Equal(t, "Aseo hogar", upd.Name)

	require.NoError(t, c.categories.Delete(ctx, cat.ID))
	_, err = c.categories.GetByID(ctx, cat.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

func seedProduct(t *testing.T, s *memory.Store, id string) {
	t.Helper()
	err := memory.NewProductRepository(s).Create(context.Background(), &entity.Product{
		ID:            id,
		Name:          "Producto " + id,
		PurchasePrice: decimal.RequireFromString("10.00"),
		MinimumStock:  5,
		CreatedAt:     time.Now(),
	})
	require.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Bloqueos por producto
// ──────────────────────────────────────────────────────────────────────────────

func TestLockForMovement_ExclusivoBloqueaCompartido(t *testing.T) {
	s := memory.NewStore(50 * time.Millisecond)
	seedProduct(t, s, "p1")
	runner := memory.NewTxRunner(s)
	ctx := context.Background()

	holding := make(chan struct{})
	done := make(chan struct{})
	finished := make(chan error, 1)
	go func() {
		finished <- runner.Run(ctx, func(_ repository.MovementRepository, products repository.ProductRepository) error {
			_, err := products.LockForMovement(ctx, "p1", repository.LockExclusive)
			close(holding)
			if err != nil {
				return err
			}
			<-done
			return nil
		})
	}()
	<-holding

	err := runner.Run(ctx, func(_ repository.MovementRepository, products repository.ProductRepository) error {
		_, err := products.LockForMovement(ctx, "p1", repository.LockShared)
		return err
	})
	close(done)
	assert.ErrorIs(t, err, domain.ErrContention, "la entrada no debe obtener el bloqueo mientras hay una salida en curso")
	assert.NoError(t, <-finished)
}

func TestLockForMovement_CompartidosNoSeExcluyen(t *testing.T) {
	s := memory.NewStore(50 * time.Millisecond)
	seedProduct(t, s, "p1")
	runner := memory.NewTxRunner(s)
	ctx := context.Background()

	err := runner.Run(ctx, func(_ repository.MovementRepository, products repository.ProductRepository) error {
		if _, err := products.LockForMovement(ctx, "p1", repository.LockShared); err != nil {
			return err
		}
		return runner.Run(ctx, func(_ repository.MovementRepository, inner repository.ProductRepository) error {
			_, err := inner.LockForMovement(ctx, "p1", repository.LockShared)
			return err
		})
	})
	assert.NoError(t, err)
}

func TestLockForMovement_ProductoInexistente(t *testing.T) {
	s := memory.NewStore(0)
	p, err := memory.NewProductRepository(s).LockForMovement(context.Background(), "nope", repository.LockExclusive)
	require.NoError(t, err)
	assert.Nil(t, p)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transacciones
// ──────────────────────────────────────────────────────────────────────────────

func TestTxRunner_RollbackNoEscribe(t *testing.T) {
	s := memory.NewStore(0)
	seedProduct(t, s, "p1")
	ctx := context.Background()

	err := memory.NewTxRunner(s).Run(ctx, func(movs repository.MovementRepository, _ repository.ProductRepository) error {
		require.NoError(t, movs.Append(ctx, &entity.Movement{ID: "m1", ProductID: "p1", Kind: entity.MovementEntry, Quantity: 3, OccurredAt: time.Now()}))
		entries, _, err := movs.Totals(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), entries, "los pendientes de la tx cuentan dentro de ella")
		return domain.ErrInvalidInput
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	entries, exits, err := memory.NewMovementRepository(s).Totals(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, entries)
	assert.Zero(t, exits)
}

func TestTxRunner_CommitAsignaSeq(t *testing.T) {
	s := memory.NewStore(0)
	seedProduct(t, s, "p1")
	ctx := context.Background()

	m := &entity.Movement{ID: "m1", ProductID: "p1", Kind: entity.MovementEntry, Quantity: 3, OccurredAt: time.Now()}
	err := memory.NewTxRunner(s).Run(ctx, func(movs repository.MovementRepository, _ repository.ProductRepository) error {
		return movs.Append(ctx, m)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.Seq)

	got, err := memory.NewMovementRepository(s).GetByID(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(3), got.Quantity)
}

func TestTotals_SeDerivaDelLibro(t *testing.T) {
	s := memory.NewStore(0)
	seedProduct(t, s, "p1")
	seedProduct(t, s, "p2")
	ctx := context.Background()
	movs := memory.NewMovementRepository(s)

	for i, m := range []struct {
		product string
		kind    entity.MovementKind
		qty     int64
	}{
		{"p1", entity.MovementEntry, 10},
		{"p1", entity.MovementExit, 4},
		{"p2", entity.MovementEntry, 7},
		{"p1", entity.MovementEntry, 2},
	} {
		require.NoError(t, movs.Append(ctx, &entity.Movement{
			ID: string(rune('a' + i)), ProductID: m.product, Kind: m.kind, Quantity: m.qty,
		}))
	}

	entries, exits, err := movs.Totals(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(12), entries)
	assert.Equal(t, int64(4), exits)

	// Al borrar el producto su libro desaparece; un producto nuevo con el mismo id parte de cero.
	require.NoError(t, memory.NewProductRepository(s).Delete(ctx, "p1"))
	seedProduct(t, s, "p1")
	entries, exits, err = movs.Totals(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, entries)
	assert.Zero(t, exits)

	entries, _, err = movs.Totals(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, int64(7), entries)
}

func TestTxRunner_SelloDeConfirmacionMonotono(t *testing.T) {
	s := memory.NewStore(0)
	seedProduct(t, s, "p1")
	ctx := context.Background()
	future := time.Now().Add(time.Hour)

	var last time.Time
	for i := 0; i < 5; i++ {
		m := &entity.Movement{ID: string(rune('a' + i)), ProductID: "p1", Kind: entity.MovementEntry, Quantity: 1, OccurredAt: future}
		require.NoError(t, memory.NewTxRunner(s).Run(ctx, func(movs repository.MovementRepository, _ repository.ProductRepository) error {
			return movs.Append(ctx, m)
		}))
		assert.True(t, m.OccurredAt.Before(future), "la hora la fija la confirmación, no quien llama")
		assert.False(t, m.OccurredAt.Before(last))
		last = m.OccurredAt
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Cascadas e historial
// ──────────────────────────────────────────────────────────────────────────────

func TestProductDelete_CascadaMovimientos(t *testing.T) {
	s := memory.NewStore(0)
	seedProduct(t, s, "p1")
	seedProduct(t, s, "p2")
	ctx := context.Background()
	movs := memory.NewMovementRepository(s)
	require.NoError(t, movs.Append(ctx, &entity.Movement{ID: "a", ProductID: "p1", Kind: entity.MovementEntry, Quantity: 1, OccurredAt: time.Now()}))
	require.NoError(t, movs.Append(ctx, &entity.Movement{ID: "b", ProductID: "p2", Kind: entity.MovementEntry, Quantity: 1, OccurredAt: time.Now()}))

	require.NoError(t, memory.NewProductRepository(s).Delete(ctx, "p1"))

	list, err := movs.List(ctx, repository.MovementFilter{}, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].ID)
	gone, err := movs.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestCategoryDelete_DesasignaProductos(t *testing.T) {
	s := memory.NewStore(0)
	ctx := context.Background()
	cats := memory.NewCategoryRepository(s)
	require.NoError(t, cats.Create(ctx, &entity.Category{ID: "c1", Name: "Bebidas"}))
	require.NoError(t, memory.NewProductRepository(s).Create(ctx, &entity.Product{ID: "p1", Name: "Agua", CategoryID: "c1"}))

	require.NoError(t, cats.Delete(ctx, "c1"))

	p, err := memory.NewProductRepository(s).GetByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p, "el producto sobrevive al borrado de su categoría")
	assert.Empty(t, p.CategoryID)
}

func TestMovementList_OrdenYCursor(t *testing.T) {
	s := memory.NewStore(0)
	seedProduct(t, s, "p1")
	ctx := context.Background()
	movs := memory.NewMovementRepository(s)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	// Dos movimientos con el mismo instante: desempata Seq.
	for i, at := range []time.Time{base, base.Add(time.Minute), base.Add(time.Minute), base.Add(2 * time.Minute)} {
		require.NoError(t, movs.Append(ctx, &entity.Movement{
			ID: string(rune('a' + i)), ProductID: "p1", Kind: entity.MovementEntry, Quantity: 1, OccurredAt: at,
		}))
	}

	first, err := movs.List(ctx, repository.MovementFilter{}, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "d", first[0].ID)
	assert.Equal(t, "c", first[1].ID)

	last := first[1]
	rest, err := movs.List(ctx, repository.MovementFilter{After: &repository.MovementCursor{OccurredAt: last.OccurredAt, Seq: last.Seq}}, 10)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "b", rest[0].ID)
	assert.Equal(t, "a", rest[1].ID)

	entries, exits, err := movs.CountByKind(ctx, repository.MovementFilter{After: &repository.MovementCursor{OccurredAt: last.OccurredAt, Seq: last.Seq}})
	require.NoError(t, err)
	assert.Equal(t, 4, entries, "CountByKind ignora el cursor")
	assert.Zero(t, exits)
}

func TestUserCreate_UsernameDuplicado(t *testing.T) {
	s := memory.NewStore(0)
	users := memory.NewUserRepository(s)
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &entity.User{ID: "u1", Username: "ana"}))
	assert.ErrorIs(t, users.Create(ctx, &entity.User{ID: "u2", Username: "ana"}), domain.ErrUsernameTaken)
}

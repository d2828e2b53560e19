package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

// gatedRunner retiene la transacción después de anexar y antes de confirmar.
type gatedRunner struct {
	inner   inventory.TxRunner
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRunner) Run(ctx context.Context, fn func(repository.MovementRepository, repository.ProductRepository) error) error {
	return g.inner.Run(ctx, func(movs repository.MovementRepository, products repository.ProductRepository) error {
		if err := fn(movs, products); err != nil {
			return err
		}
		close(g.entered)
		<-g.release
		return nil
	})
}

func TestListMovements_PaginacionEstable(t *testing.T) {
	f := newFixture(t, nil)
	f.addProduct(t, "p1")
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := f.record(t, "p1", "ENTRY", int64(i+1))
		require.NoError(t, err)
	}

	first, err := f.history.ListMovements(ctx, inventory.MovementQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.Equal(t, 5, first.Entries)

	// Un movimiento nuevo entre páginas no debe desplazar las siguientes.
	_, err = f.record(t, "p1", "EXIT", 1)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, m := range first.Items {
		seen[m.ID] = true
	}
	cursor := first.NextCursor
	for cursor != "" {
		p, err := f.history.ListMovements(ctx, inventory.MovementQuery{Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		for _, m := range p.Items {
			assert.False(t, seen[m.ID], "movimiento repetido entre páginas: %s", m.ID)
			assert.Equal(t, entity.MovementEntry, m.Kind, "la salida posterior no aparece en páginas antiguas")
			seen[m.ID] = true
		}
		cursor = p.NextCursor
	}
	assert.Len(t, seen, 5)
}

// Un movimiento que confirma tarde aparece arriba, nunca entre páginas ya devueltas.
func TestListMovements_ConfirmacionTardiaNoSeIntercala(t *testing.T) {
	f := newFixture(t, nil)
	f.addProduct(t, "p1")
	ctx := context.Background()

	x, err := f.record(t, "p1", "ENTRY", 1)
	require.NoError(t, err)

	gate := &gatedRunner{inner: memory.NewTxRunner(f.store), entered: make(chan struct{}), release: make(chan struct{})}
	slow := inventory.NewRegisterMovementUseCase(gate, nil, zerolog.Nop(), 0)
	type result struct {
		mov *entity.Movement
		err error
	}
	done := make(chan result, 1)
	go func() {
		m, err := slow.RecordMovement(ctx, inventory.MovementInputDTO{ProductID: "p1", Kind: "ENTRY", Quantity: 2, ActorID: testActor})
		done <- result{m, err}
	}()
	<-gate.entered

	b, err := f.record(t, "p1", "ENTRY", 3)
	require.NoError(t, err)

	first, err := f.history.ListMovements(ctx, inventory.MovementQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, first.Items, 1)
	assert.Equal(t, b.ID, first.Items[0].ID)

	close(gate.release)
	late := <-done
	require.NoError(t, late.err)

	second, err := f.history.ListMovements(ctx, inventory.MovementQuery{Limit: 1, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, x.ID, second.Items[0].ID)
	assert.Empty(t, second.NextCursor)

	fresh, err := f.history.ListMovements(ctx, inventory.MovementQuery{})
	require.NoError(t, err)
	ids := make([]string, 0, len(fresh.Items))
	for _, m := range fresh.Items {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{late.mov.ID, b.ID, x.ID}, ids, "las páginas ya recorridas quedan intactas debajo")
	assert.False(t, late.mov.OccurredAt.Before(b.OccurredAt))
	assert.Greater(t, late.mov.Seq, b.Seq)
}

func TestListMovements_OrdenDescendente(t *testing.T) {
	f := newFixture(t, nil)
	f.addProduct(t, "p1")
	for _, kind := range []string{"ENTRY", "ENTRY", "EXIT"} {
		_, err := f.record(t, "p1", kind, 1)
		require.NoError(t, err)
	}

	page, err := f.history.ListMovements(context.Background(), inventory.MovementQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	for i := 1; i < len(page.Items); i++ {
		prev, cur := page.Items[i-1], page.Items[i]
		assert.False(t, cur.OccurredAt.After(prev.OccurredAt))
		if cur.OccurredAt.Equal(prev.OccurredAt) {
			assert.Less(t, cur.Seq, prev.Seq)
		}
	}
	assert.Empty(t, page.NextCursor)
}

func TestListMovements_Filtros(t *testing.T) {
	f := newFixture(t, nil)
	f.addProduct(t, "p1")
	f.addProduct(t, "p2")
	ctx := context.Background()
	_, err := f.record(t, "p1", "ENTRY", 5)
	require.NoError(t, err)
	_, err = f.record(t, "p2", "ENTRY", 5)
	require.NoError(t, err)
	_, err = f.record(t, "p1", "EXIT", 2)
	require.NoError(t, err)

	page, err := f.history.ListMovements(ctx, inventory.MovementQuery{Kind: "exit"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 0, page.Entries)
	assert.Equal(t, 1, page.Exits)

	page, err = f.history.ListMovements(ctx, inventory.MovementQuery{ProductID: "p2"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "p2", page.Items[0].ProductID)

	future := time.Now().Add(time.Hour)
	page, err = f.history.ListMovements(ctx, inventory.MovementQuery{Since: &future})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestListMovements_EntradasInvalidas(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.history.ListMovements(ctx, inventory.MovementQuery{Kind: "TRANSFER"})
	assert.ErrorIs(t, err, domain.ErrInvalidKind)

	_, err = f.history.ListMovements(ctx, inventory.MovementQuery{Cursor: "%%%"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	since := time.Now()
	until := since.Add(-time.Hour)
	_, err = f.history.ListMovements(ctx, inventory.MovementQuery{Since: &since, Until: &until})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.history.GetMovement(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

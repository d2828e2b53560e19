package inventory_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const testActor = "00000000-0000-0000-0000-000000000001"

type fixture struct {
	store    *memory.Store
	register *inventory.RegisterMovementUseCase
	balances *inventory.BalanceUseCase
	history  *inventory.MovementQueryUseCase
}

func newFixture(t *testing.T, observer inventory.StockObserver) *fixture {
	t.Helper()
	store := memory.NewStore(time.Second)
	products := memory.NewProductRepository(store)
	movs := memory.NewMovementRepository(store)
	return &fixture{
		store:    store,
		register: inventory.NewRegisterMovementUseCase(memory.NewTxRunner(store), observer, zerolog.Nop(), inventory.DefaultMaxRetries),
		balances: inventory.NewBalanceUseCase(products, movs),
		history:  inventory.NewMovementQueryUseCase(movs, 0),
	}
}

// addProduct crea un producto con stock mínimo 5 y precio de compra 10.00.
func (f *fixture) addProduct(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, memory.NewProductRepository(f.store).Create(context.Background(), &entity.Product{
		ID:            id,
		Name:          "Producto " + id,
		PurchasePrice: decimal.RequireFromString("10.00"),
		SalePrice:     decimal.RequireFromString("15.00"),
		MinimumStock:  5,
		CreatedAt:     time.Now(),
	}))
}

func (f *fixture) record(t *testing.T, productID, kind string, qty int64) (*entity.Movement, error) {
	t.Helper()
	return f.register.RecordMovement(context.Background(), inventory.MovementInputDTO{
		ProductID: productID,
		Kind:      kind,
		Quantity:  qty,
		ActorID:   testActor,
	})
}

func (f *fixture) balance(t *testing.T, productID string) entity.Balance {
	t.Helper()
	_, b, err := f.balances.GetBalance(context.Background(), productID)
	require.NoError(t, err)
	return b
}

// ──────────────────────────────────────────────────────────────────────────────
// Ciclo completo del libro mayor
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordMovement_CicloEntradaSalidaRuptura(t *testing.T) {
	f := newFixture(t, nil)
	f.addProduct(t, "p1")

	_, err := f.record(t, "p1", "ENTRY", 20)
	require.NoError(t, err)
	b := f.balance(t, "p1")
	assert.Equal(t, int64(20), b.Quantity)
	assert.Equal(t, entity.StockStatusNormal, b.Status)
	assert.Equal(t, "200.00", b.Value.StringFixed(2))

	_, err = f.record(t, "p1", "EXIT", 16)
	require.NoError(t, err)
	b = f.balance(t, "p1")
	assert.Equal(t, int64(4), b.Quantity)
	assert.Equal(t, entity.StockStatusLow, b.Status)
	assert.Equal(t, "40.00", b.Value.StringFixed(2))

	_, err = f.record(t, "p1", "EXIT", 4)
	require.NoError(t, err)
	b = f.balance(t, "p1")
	assert.Equal(t, int64(0), b.Quantity)
	assert.Equal(t, entity.StockStatusRupture, b.Status)
	assert.True(t, b.Value.IsZero())

	_, err = f.record(t, "p1", "EXIT", 1)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, int64(0), insufficient.Current)
	assert.Equal(t, int64(1), insufficient.Requested)

	page, err := f.history.ListMovements(context.Background(), inventory.MovementQuery{ProductID: "p1"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3, "la salida rechazada no se registra")
	assert.Equal(t, 1, page.Entries)
	assert.Equal(t, 2, page.Exits)
}

func TestRecordMovement_DevuelveMovimientoConfirmado(t *testing.T) {
	f := newFixture(t, nil)
	f.addProduct(t, "p1")

	mov, err := f.register.RecordMovement(context.Background(), inventory.MovementInputDTO{
		ProductID: "p1", Kind: "entry", Quantity: 7, ActorID: testActor, Notes: "compra inicial",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, mov.ID)
	assert.Equal(t, int64(1), mov.Seq)
	assert.Equal(t, entity.MovementEntry, mov.Kind, "el tipo se normaliza a mayúsculas")
	assert.Equal(t, testActor, mov.Actor)
	assert.Equal(t, "compra inicial", mov.Notes)
	assert.False(t, mov.OccurredAt.IsZero())

	got, err := f.history.GetMovement(context.Background(), mov.ID)
	require.NoError(t, err)
	assert.Equal(t, mov.ID, got.ID)
}

func TestRecordMovement_Validaciones(t *testing.T) {
	f := newFixture(t, nil)
	f.addProduct(t, "p1")
	ctx := context.Background()

	cases := []struct {
		name  string
		input inventory.MovementInputDTO
		want  error
	}{
		{"cantidad cero", inventory.MovementInputDTO{ProductID: "p1", Kind: "ENTRY", Quantity: 0, ActorID: testActor}, domain.ErrInvalidQuantity},
		{"cantidad negativa", inventory.MovementInputDTO{ProductID: "p1", Kind: "EXIT", Quantity: -3, ActorID: testActor}, domain.ErrInvalidQuantity},
		{"cantidad sobre el tope", inventory.MovementInputDTO{ProductID: "p1", Kind: "ENTRY", Quantity: domaininv.MaxMovementQuantity + 1, ActorID: testActor}, domain.ErrInvalidQuantity},
		{"cantidad máxima de int64", inventory.MovementInputDTO{ProductID: "p1", Kind: "ENTRY", Quantity: math.MaxInt64, ActorID: testActor}, domain.ErrInvalidQuantity},
		{"tipo inválido", inventory.MovementInputDTO{ProductID: "p1", Kind: "MOVE", Quantity: 1, ActorID: testActor}, domain.ErrInvalidKind},
		{"producto inexistente", inventory.MovementInputDTO{ProductID: "nope", Kind: "ENTRY", Quantity: 1, ActorID: testActor}, domain.ErrNotFound},
		{"sin actor", inventory.MovementInputDTO{ProductID: "p1", Kind: "ENTRY", Quantity: 1}, domain.ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.register.RecordMovement(ctx, tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	page, err := f.history.ListMovements(ctx, inventory.MovementQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Items, "ningún rechazo deja rastro en el libro mayor")
}

// Una entrada que llevaría el saldo sobre el tope se rechaza sin escribir; el saldo
// nunca desborda a negativo.
func TestRecordMovement_EntradaNoDesbordaSaldo(t *testing.T) {
	f := newFixture(t, nil)
	f.addProduct(t, "p1")
	ctx := context.Background()

	// Histórico cargado directamente, cerca del tope.
	require.NoError(t, memory.NewMovementRepository(f.store).Append(ctx, &entity.Movement{
		ID: "carga", ProductID: "p1", Kind: entity.MovementEntry,
		Quantity: domaininv.MaxStockQuantity - 5, OccurredAt: time.Now(),
	}))

	_, err := f.record(t, "p1", "ENTRY", 5)
	require.NoError(t, err)
	assert.Equal(t, domaininv.MaxStockQuantity, f.balance(t, "p1").Quantity)

	_, err = f.record(t, "p1", "ENTRY", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.record(t, "p1", "ENTRY", domaininv.MaxMovementQuantity)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	b := f.balance(t, "p1")
	assert.Equal(t, domaininv.MaxStockQuantity, b.Quantity)
	assert.Equal(t, entity.StockStatusNormal, b.Status)
	assert.True(t, b.Value.IsPositive())

	// Las salidas siguen funcionando con el saldo en el tope.
	_, err = f.record(t, "p1", "EXIT", domaininv.MaxMovementQuantity)
	require.NoError(t, err)
	_, err = f.record(t, "p1", "ENTRY", 1)
	require.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

// Dos salidas concurrentes que juntas superan el stock: exactamente una gana.
func TestRecordMovement_SalidasConcurrentesNoSobrevenden(t *testing.T) {
	f := newFixture(t, nil)
	f.addProduct(t, "p1")
	_, err := f.record(t, "p1", "ENTRY", 10)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.record(t, "p1", "EXIT", 7)
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, int64(3), f.balance(t, "p1").Quantity)
}

func TestRecordMovement_CargaMixtaNuncaNegativa(t *testing.T) {
	f := newFixture(t, nil)
	f.addProduct(t, "p1")
	_, err := f.record(t, "p1", "ENTRY", 5)
	require.NoError(t, err)

	const workers = 40
	var wg sync.WaitGroup
	var entries, exits atomic.Int64
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kind := "EXIT"
			if i%3 == 0 {
				kind = "ENTRY"
			}
			_, err := f.record(t, "p1", kind, 2)
			switch {
			case err == nil && kind == "ENTRY":
				entries.Add(2)
			case err == nil:
				exits.Add(2)
			case !errors.Is(err, domain.ErrInsufficientStock) && !errors.Is(err, domain.ErrContention):
				t.Errorf("error inesperado: %v", err)
			}
		}(i)
	}
	wg.Wait()

	b := f.balance(t, "p1")
	assert.GreaterOrEqual(t, b.Quantity, int64(0))
	assert.Equal(t, 5+entries.Load()-exits.Load(), b.Quantity, "el saldo es exactamente el plegado de lo confirmado")
}

func TestRecordMovement_ContencionAgotaEspera(t *testing.T) {
	store := memory.NewStore(20 * time.Millisecond)
	require.NoError(t, memory.NewProductRepository(store).Create(context.Background(), &entity.Product{ID: "p1", Name: "p1", MinimumStock: 1}))
	runner := memory.NewTxRunner(store)
	uc := inventory.NewRegisterMovementUseCase(runner, nil, zerolog.Nop(), 1)
	ctx := context.Background()

	holding := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan error, 1)
	go func() {
		finished <- runner.Run(ctx, func(_ repository.MovementRepository, products repository.ProductRepository) error {
			_, err := products.LockForMovement(ctx, "p1", repository.LockExclusive)
			close(holding)
			<-release
			return err
		})
	}()
	<-holding

	_, err := uc.RecordMovement(ctx, inventory.MovementInputDTO{ProductID: "p1", Kind: "ENTRY", Quantity: 1, ActorID: testActor})
	close(release)
	require.NoError(t, <-finished)
	assert.ErrorIs(t, err, domain.ErrContention)

	entries, _, err := memory.NewMovementRepository(store).Totals(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, entries, "un movimiento que no obtuvo el bloqueo no se escribe")
}

// ──────────────────────────────────────────────────────────────────────────────
// Observador post-commit
// ──────────────────────────────────────────────────────────────────────────────

type captureSink struct {
	mu     sync.Mutex
	alerts []inventory.LowStockAlert
}

func (s *captureSink) Publish(_ context.Context, alert inventory.LowStockAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
	return nil
}

type failingObserver struct{ panics bool }

func (o failingObserver) MovementCommitted(context.Context, *entity.Movement) error {
	if o.panics {
		panic("observador roto")
	}
	return errors.New("sink caído")
}

func TestLowStockObserver_AlertaSoloFueraDeNormal(t *testing.T) {
	sink := &captureSink{}
	f := newFixture(t, nil)
	observer := inventory.NewLowStockObserver(f.balances, sink)
	f.register = inventory.NewRegisterMovementUseCase(memory.NewTxRunner(f.store), observer, zerolog.Nop(), 0)
	f.addProduct(t, "p1")

	_, err := f.record(t, "p1", "ENTRY", 20)
	require.NoError(t, err)
	assert.Empty(t, sink.alerts, "NORMAL no alerta")

	mov, err := f.record(t, "p1", "EXIT", 16)
	require.NoError(t, err)
	require.Len(t, sink.alerts, 1)
	alert := sink.alerts[0]
	assert.Equal(t, "p1", alert.ProductID)
	assert.Equal(t, "Producto p1", alert.ProductName)
	assert.Equal(t, int64(4), alert.Quantity)
	assert.Equal(t, entity.StockStatusLow, alert.Status)
	assert.Equal(t, mov.ID, alert.MovementID)

	_, err = f.record(t, "p1", "EXIT", 4)
	require.NoError(t, err)
	require.Len(t, sink.alerts, 2)
	assert.Equal(t, entity.StockStatusRupture, sink.alerts[1].Status)
}

func TestRecordMovement_FalloDelObservadorNoAfectaCommit(t *testing.T) {
	for _, obs := range []failingObserver{{panics: false}, {panics: true}} {
		f := newFixture(t, obs)
		f.addProduct(t, "p1")

		mov, err := f.record(t, "p1", "ENTRY", 3)
		require.NoError(t, err)
		require.NotNil(t, mov)
		assert.Equal(t, int64(3), f.balance(t, "p1").Quantity)
	}
}

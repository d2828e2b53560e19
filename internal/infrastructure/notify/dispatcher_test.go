package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/notify"
)

type recordingSink struct {
	mu     sync.Mutex
	alerts []inventory.LowStockAlert
	block  chan struct{}
}

func (s *recordingSink) Publish(_ context.Context, a inventory.LowStockAlert) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

func alert(id string) inventory.LowStockAlert {
	return inventory.LowStockAlert{ProductID: id, Quantity: 1, MinimumStock: 5, Status: entity.StockStatusLow, At: time.Now()}
}

func TestDispatcher_EntregaYDrenaAlCerrar(t *testing.T) {
	sink := &recordingSink{}
	d := notify.NewDispatcher(zerolog.Nop(), 8, sink)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, d.Publish(context.Background(), alert(id)))
	}
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, 3, sink.count())
	assert.ErrorIs(t, d.Publish(context.Background(), alert("d")), notify.ErrClosed)
	assert.NoError(t, d.Close(context.Background()), "cerrar dos veces es inofensivo")
}

func TestDispatcher_ColaLlenaDescarta(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	d := notify.NewDispatcher(zerolog.Nop(), 1, sink)

	// El worker toma la primera y queda bloqueado en el sink; la segunda ocupa la cola.
	require.NoError(t, d.Publish(context.Background(), alert("a")))
	require.Eventually(t, func() bool {
		return d.Publish(context.Background(), alert("b")) == nil
	}, time.Second, time.Millisecond)

	err := d.Publish(context.Background(), alert("c"))
	assert.ErrorIs(t, err, notify.ErrQueueFull)
	assert.GreaterOrEqual(t, d.Dropped(), int64(1))

	close(sink.block)
	require.NoError(t, d.Close(context.Background()))
}

func TestLogSink_EscribeEventoWarn(t *testing.T) {
	var buf bytes.Buffer
	sink := notify.NewLogSink(zerolog.New(&buf))

	require.NoError(t, sink.Publish(context.Background(), inventory.LowStockAlert{
		ProductID: "p1", ProductName: "Agua", Quantity: 0, MinimumStock: 5, Status: entity.StockStatusRupture,
	}))

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "warn", event["level"])
	assert.Equal(t, "p1", event["product_id"])
	assert.Equal(t, "RUPTURE", event["status"])
}

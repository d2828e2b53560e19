package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

var _ inventory.AlertSink = (*Dispatcher)(nil)

// ErrQueueFull la cola está llena y la alerta se descartó.
var ErrQueueFull = errors.New("cola de alertas llena")

// ErrClosed el despachador ya fue cerrado.
var ErrClosed = errors.New("despachador de alertas cerrado")

// Dispatcher entrega alertas en segundo plano a uno o más sinks.
// Publish nunca bloquea: con la cola llena la alerta se descarta y se cuenta.
// Close deja de aceptar alertas y drena las pendientes antes de volver.
type Dispatcher struct {
	sinks   []inventory.AlertSink
	log     zerolog.Logger
	queue   chan inventory.LowStockAlert
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewDispatcher arranca el worker. queueSize <= 0 usa 64.
func NewDispatcher(log zerolog.Logger, queueSize int, sinks ...inventory.AlertSink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		sinks: sinks,
		log:   log,
		queue: make(chan inventory.LowStockAlert, queueSize),
	}
	d.wg.Add(1)
	go d.listen()
	return d
}

func (d *Dispatcher) listen() {
	defer d.wg.Done()
	for alert := range d.queue {
		d.broadcast(alert)
	}
}

func (d *Dispatcher) broadcast(alert inventory.LowStockAlert) {
	for _, sink := range d.sinks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.log.Error().Interface("panic", r).Str("product_id", alert.ProductID).Msg("sink de alertas")
				}
			}()
			if err := sink.Publish(context.Background(), alert); err != nil {
				d.log.Error().Err(err).Str("product_id", alert.ProductID).Msg("sink de alertas")
			}
		}()
	}
}

// Publish encola la alerta sin bloquear.
func (d *Dispatcher) Publish(_ context.Context, alert inventory.LowStockAlert) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- alert:
		return nil
	default:
		d.dropped.Add(1)
		d.log.Warn().Str("product_id", alert.ProductID).Msg("cola de alertas llena, alerta descartada")
		return ErrQueueFull
	}
}

// Dropped cantidad de alertas descartadas por cola llena.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Close cierra la cola y espera a que se entreguen las alertas pendientes o a que ctx venza.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

var _ inventory.AlertSink = (*LogSink)(nil)

// LogSink escribe cada alerta como un evento warn estructurado.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink construye el sink.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

// Publish implementa inventory.AlertSink.
func (s *LogSink) Publish(_ context.Context, alert inventory.LowStockAlert) error {
	s.log.Warn().
		Str("product_id", alert.ProductID).
		Str("product_name", alert.ProductName).
		Int64("quantity", alert.Quantity).
		Int64("minimum_stock", alert.MinimumStock).
		Str("status", string(alert.Status)).
		Str("movement_id", alert.MovementID).
		Time("at", alert.At).
		Msg("alerta de stock")
	return nil
}

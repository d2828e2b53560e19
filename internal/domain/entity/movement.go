package entity

import "time"

// MovementKind tipo de movimiento de stock.
type MovementKind string

// Tipos de movimiento soportados por el libro mayor.
const (
	MovementEntry MovementKind = "ENTRY" // entrada
	MovementExit  MovementKind = "EXIT"  // salida
)

// Valid indica si el tipo es ENTRY o EXIT.
func (k MovementKind) Valid() bool {
	return k == MovementEntry || k == MovementExit
}

// Movement registro inmutable del libro mayor de stock.
// Orden total: OccurredAt y, en empate, Seq (orden de inserción).
type Movement struct {
	ID         string
	Seq        int64
	ProductID  string
	Kind       MovementKind
	Quantity   int64 // siempre > 0; el signo lo da Kind
	OccurredAt time.Time
	Actor      string // identificador del usuario que registró el movimiento
	Notes      string
}

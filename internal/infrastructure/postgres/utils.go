package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// Querier lo implementan *pgxpool.Pool y pgx.Tx: los repositorios funcionan dentro o fuera de una transacción.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Códigos SQLSTATE relevantes.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeNumericOutOfRange    = "22003"
	codeLockNotAvailable     = "55P03"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeQueryCanceled        = "57014"
	codeInvalidText          = "22P02" // p. ej. un id que no es UUID
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	if code := pgCode(err); code != "" {
		return code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

func isForeignKeyViolation(err error) bool {
	return pgCode(err) == codeForeignKeyViolation
}

// isMissing fila inexistente o id con formato inválido: ambos se reportan como "no existe".
func isMissing(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || pgCode(err) == codeInvalidText
}

// isContention bloqueo no obtenido dentro de lock_timeout, fallo de serialización o deadlock.
func isContention(err error) bool {
	switch pgCode(err) {
	case codeLockNotAvailable, codeSerializationFailure, codeDeadlockDetected, codeQueryCanceled:
		return true
	}
	return false
}

// wrapErr traduce errores de PostgreSQL a errores de dominio; el resto se envuelve con op.
func wrapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isContention(err):
		return fmt.Errorf("%s: %w", op, domain.ErrContention)
	case isUniqueViolation(err):
		return domain.ErrDuplicate
	case isForeignKeyViolation(err), pgCode(err) == codeInvalidText:
		return domain.ErrNotFound
	case pgCode(err) == codeCheckViolation:
		return fmt.Errorf("%s: %w", op, domain.ErrInvalidInput)
	case pgCode(err) == codeNumericOutOfRange:
		return fmt.Errorf("%s: %w", op, domain.ErrInvalidQuantity)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

func TestWrapErr_TraduceSQLState(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{"55P03", domain.ErrContention},
		{"40001", domain.ErrContention},
		{"40P01", domain.ErrContention},
		{"23505", domain.ErrDuplicate},
		{"23503", domain.ErrNotFound},
		{"22P02", domain.ErrNotFound},
		{"23514", domain.ErrInvalidInput},
		{"22003", domain.ErrInvalidQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			err := fmt.Errorf("exec: %w", &pgconn.PgError{Code: tc.code})
			assert.ErrorIs(t, wrapErr("op", err), tc.want)
		})
	}

	plain := errors.New("conexión perdida")
	assert.ErrorIs(t, wrapErr("op", plain), plain)
	assert.NoError(t, wrapErr("op", nil))
}

func TestIsMissing(t *testing.T) {
	assert.True(t, isMissing(pgx.ErrNoRows))
	assert.True(t, isMissing(&pgconn.PgError{Code: "22P02"}))
	assert.False(t, isMissing(&pgconn.PgError{Code: "23505"}))
}

func TestBuildMovementWhere(t *testing.T) {
	where, args := buildMovementWhere(repository.MovementFilter{}, true, 0)
	assert.Empty(t, where)
	assert.Empty(t, args)

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cursor := &repository.MovementCursor{OccurredAt: since.Add(time.Hour), Seq: 42}
	f := repository.MovementFilter{Kind: entity.MovementExit, ProductID: "p1", Since: &since, After: cursor}

	where, args = buildMovementWhere(f, true, 0)
	assert.Equal(t, "WHERE kind = $1 AND product_id = $2 AND occurred_at >= $3 AND (occurred_at, seq) < ($4, $5)", where)
	assert.Equal(t, []any{"EXIT", "p1", since, cursor.OccurredAt, int64(42)}, args)

	where, args = buildMovementWhere(f, false, 0)
	assert.Equal(t, "WHERE kind = $1 AND product_id = $2 AND occurred_at >= $3", where)
	assert.Len(t, args, 3)
}

func TestBuildMovementWhere_HorizonteDeConfirmacion(t *testing.T) {
	cursor := &repository.MovementCursor{OccurredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Seq: 7}

	where, args := buildMovementWhere(repository.MovementFilter{After: cursor}, true, 1500*time.Millisecond)
	assert.Equal(t, "WHERE (occurred_at, seq) < ($1, $2) AND occurred_at <= clock_timestamp() - make_interval(secs => $3::double precision)", where)
	assert.Equal(t, []any{cursor.OccurredAt, int64(7), 1.5}, args)

	// Los conteos usan el mismo horizonte que la página.
	where, args = buildMovementWhere(repository.MovementFilter{ProductID: "p1", After: cursor}, false, time.Second)
	assert.Equal(t, "WHERE product_id = $1 AND occurred_at <= clock_timestamp() - make_interval(secs => $2::double precision)", where)
	assert.Equal(t, []any{"p1", 1.0}, args)
}

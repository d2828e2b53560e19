package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, seq, product_id, kind, quantity, occurred_at, actor, notes`

// MovementRepo libro mayor sobre PostgreSQL. Solo INSERT y SELECT.
//
// occurred_at lo fija la base con clock_timestamp() en el INSERT, que es la última
// sentencia antes del COMMIT. Aun así una fila puede hacerse visible después de otras
// con occurred_at mayor; por eso el historial solo muestra filas con más de settle de
// antigüedad, y todo lo que cae bajo ese horizonte ya está confirmado.
type MovementRepo struct {
	q      Querier
	settle time.Duration
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// WithSettleWindow fija el horizonte del historial (List y CountByKind).
func (r *MovementRepo) WithSettleWindow(d time.Duration) *MovementRepo {
	r.settle = d
	return r
}

func scanMovement(row scanner) (*entity.Movement, error) {
	var m entity.Movement
	var kind string
	if err := row.Scan(&m.ID, &m.Seq, &m.ProductID, &kind, &m.Quantity, &m.OccurredAt, &m.Actor, &m.Notes); err != nil {
		return nil, err
	}
	m.Kind = entity.MovementKind(kind)
	m.OccurredAt = m.OccurredAt.UTC()
	return &m, nil
}

// Append inserta el movimiento; Seq y OccurredAt los asigna la base.
func (r *MovementRepo) Append(ctx context.Context, movement *entity.Movement) error {
	query := `
		INSERT INTO movements (id, product_id, kind, quantity, occurred_at, actor, notes)
		VALUES ($1, $2, $3, $4, clock_timestamp(), $5, $6)
		RETURNING seq, occurred_at`
	err := r.q.QueryRow(ctx, query,
		movement.ID, movement.ProductID, string(movement.Kind), movement.Quantity,
		movement.Actor, movement.Notes,
	).Scan(&movement.Seq, &movement.OccurredAt)
	if err != nil {
		return wrapErr("insert movement", err)
	}
	movement.OccurredAt = movement.OccurredAt.UTC()
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = $1`, id))
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// Totals suma entradas y salidas del producto en una sola sentencia.
func (r *MovementRepo) Totals(ctx context.Context, productID string) (int64, int64, error) {
	query := `
		SELECT
			COALESCE(SUM(quantity) FILTER (WHERE kind = 'ENTRY'), 0)::bigint,
			COALESCE(SUM(quantity) FILTER (WHERE kind = 'EXIT'), 0)::bigint
		FROM movements WHERE product_id = $1`
	var entries, exits int64
	if err := r.q.QueryRow(ctx, query, productID).Scan(&entries, &exits); err != nil {
		if isMissing(err) {
			return 0, 0, nil
		}
		return 0, 0, wrapErr("movement totals", err)
	}
	return entries, exits, nil
}

// List movimientos filtrados por keyset (occurred_at, seq) descendente.
func (r *MovementRepo) List(ctx context.Context, filter repository.MovementFilter, limit int) ([]*entity.Movement, error) {
	where, args := buildMovementWhere(filter, true, r.settle)
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT %s FROM movements %s ORDER BY occurred_at DESC, seq DESC LIMIT $%d`,
		movementColumns, where, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		if isMissing(err) {
			return []*entity.Movement{}, nil
		}
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Movement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// CountByKind cuenta entradas y salidas que cumplen el filtro (sin el cursor).
func (r *MovementRepo) CountByKind(ctx context.Context, filter repository.MovementFilter) (int, int, error) {
	where, args := buildMovementWhere(filter, false, r.settle)
	query := `
		SELECT
			COUNT(*) FILTER (WHERE kind = 'ENTRY'),
			COUNT(*) FILTER (WHERE kind = 'EXIT')
		FROM movements ` + where
	var entries, exits int
	if err := r.q.QueryRow(ctx, query, args...).Scan(&entries, &exits); err != nil {
		if isMissing(err) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("count movements: %w", err)
	}
	return entries, exits, nil
}

func buildMovementWhere(f repository.MovementFilter, useCursor bool, settle time.Duration) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, vals ...any) {
		for _, v := range vals {
			args = append(args, v)
			cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(args)), 1)
		}
		conds = append(conds, cond)
	}
	if f.Kind != "" {
		add("kind = ?", string(f.Kind))
	}
	if f.ProductID != "" {
		add("product_id = ?", f.ProductID)
	}
	if f.Since != nil {
		add("occurred_at >= ?", *f.Since)
	}
	if f.Until != nil {
		add("occurred_at <= ?", *f.Until)
	}
	if useCursor && f.After != nil {
		add("(occurred_at, seq) < (?, ?)", f.After.OccurredAt, f.After.Seq)
	}
	if settle > 0 {
		add("occurred_at <= clock_timestamp() - make_interval(secs => ?::double precision)", settle.Seconds())
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

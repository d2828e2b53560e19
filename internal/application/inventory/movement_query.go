package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// DefaultPageSize tamaño de página del historial.
const DefaultPageSize = 25

const maxPageSize = 100

// MovementQuery filtros y paginación del historial.
type MovementQuery struct {
	Kind      string
	ProductID string
	Since     *time.Time
	Until     *time.Time
	Limit     int    // 0 = tamaño por defecto
	Cursor    string // vacío = primera página
}

// MovementPage página del historial, de más reciente a más antiguo.
type MovementPage struct {
	Items      []*entity.Movement
	NextCursor string // vacío si no hay más
	Entries    int    // entradas que cumplen el filtro (todas las páginas)
	Exits      int    // salidas que cumplen el filtro (todas las páginas)
}

// MovementQueryUseCase lecturas del libro mayor.
type MovementQueryUseCase struct {
	movRepo  repository.MovementRepository
	pageSize int
}

// NewMovementQueryUseCase construye el caso de uso. pageSize <= 0 usa DefaultPageSize.
func NewMovementQueryUseCase(movRepo repository.MovementRepository, pageSize int) *MovementQueryUseCase {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return &MovementQueryUseCase{movRepo: movRepo, pageSize: pageSize}
}

// ListMovements devuelve una página estable: la paginación es por cursor (OccurredAt, Seq),
// así que los movimientos nuevos nunca desplazan páginas ya devueltas.
func (uc *MovementQueryUseCase) ListMovements(ctx context.Context, q MovementQuery) (*MovementPage, error) {
	filter := repository.MovementFilter{
		ProductID: q.ProductID,
		Since:     q.Since,
		Until:     q.Until,
	}
	if q.Kind != "" {
		kind := entity.MovementKind(strings.ToUpper(strings.TrimSpace(q.Kind)))
		if !kind.Valid() {
			return nil, domain.ErrInvalidKind
		}
		filter.Kind = kind
	}
	if q.Since != nil && q.Until != nil && q.Since.After(*q.Until) {
		return nil, domain.ErrInvalidInput
	}

	limit := q.Limit
	if limit <= 0 {
		limit = uc.pageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	entries, exits, err := uc.movRepo.CountByKind(ctx, filter)
	if err != nil {
		return nil, err
	}

	if q.Cursor != "" {
		after, err := decodeCursor(q.Cursor)
		if err != nil {
			return nil, err
		}
		filter.After = after
	}

	items, err := uc.movRepo.List(ctx, filter, limit+1)
	if err != nil {
		return nil, err
	}
	page := &MovementPage{Entries: entries, Exits: exits}
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		page.NextCursor = encodeCursor(repository.MovementCursor{OccurredAt: last.OccurredAt, Seq: last.Seq})
	}
	page.Items = items
	return page, nil
}

// GetMovement obtiene un movimiento por ID.
func (uc *MovementQueryUseCase) GetMovement(ctx context.Context, id string) (*entity.Movement, error) {
	m, err := uc.movRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

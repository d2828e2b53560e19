package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// DefaultMaxRetries reintentos internos ante contención antes de devolver ErrContention.
const DefaultMaxRetries = 3

// RegisterMovementUseCase único camino de escritura al libro mayor.
// Cada movimiento se registra en una transacción que bloquea el producto
// (exclusivo para salidas, compartido para entradas), recalcula el saldo, valida y anexa.
type RegisterMovementUseCase struct {
	txRunner   TxRunner
	observer   StockObserver
	log        zerolog.Logger
	maxRetries int
}

// NewRegisterMovementUseCase construye el caso de uso. observer puede ser nil.
func NewRegisterMovementUseCase(
	txRunner TxRunner,
	observer StockObserver,
	log zerolog.Logger,
	maxRetries int,
) *RegisterMovementUseCase {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &RegisterMovementUseCase{
		txRunner:   txRunner,
		observer:   observer,
		log:        log,
		maxRetries: maxRetries,
	}
}

// MovementInputDTO entrada para registrar un movimiento.
type MovementInputDTO struct {
	ProductID string
	Kind      string // ENTRY | EXIT
	Quantity  int64
	ActorID   string
	Notes     string
}

// RecordMovement valida la entrada, registra el movimiento y dispara el observador.
// Errores: ErrInvalidQuantity, ErrInvalidKind, ErrNotFound, *InsufficientStockError, ErrContention.
func (uc *RegisterMovementUseCase) RecordMovement(ctx context.Context, input MovementInputDTO) (*entity.Movement, error) {
	if input.Quantity <= 0 || input.Quantity > domaininv.MaxMovementQuantity {
		return nil, domain.ErrInvalidQuantity
	}
	kind := entity.MovementKind(strings.ToUpper(strings.TrimSpace(input.Kind)))
	if !kind.Valid() {
		return nil, domain.ErrInvalidKind
	}
	if input.ProductID == "" {
		return nil, domain.ErrNotFound
	}
	if strings.TrimSpace(input.ActorID) == "" {
		return nil, domain.ErrUnauthorized
	}

	op := func() (*entity.Movement, error) {
		mov, err := uc.commit(ctx, input, kind)
		if err == nil {
			return mov, nil
		}
		if errors.Is(err, domain.ErrContention) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}
	mov, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(newContentionBackOff()),
		backoff.WithMaxTries(uint(uc.maxRetries)+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			uc.log.Warn().Err(err).
				Str("product_id", input.ProductID).
				Str("kind", string(kind)).
				Dur("retry_in", next).
				Msg("contención al registrar movimiento, reintentando")
		}),
	)
	if err != nil {
		return nil, uc.translateErr(ctx, err, input, kind)
	}

	uc.log.Debug().
		Str("movement_id", mov.ID).
		Str("product_id", mov.ProductID).
		Str("kind", string(mov.Kind)).
		Int64("quantity", mov.Quantity).
		Str("actor", mov.Actor).
		Msg("movimiento registrado")

	uc.notify(ctx, mov)
	out := *mov
	return &out, nil
}

// commit un intento completo: bloquear, validar y anexar dentro de la misma transacción.
func (uc *RegisterMovementUseCase) commit(ctx context.Context, input MovementInputDTO, kind entity.MovementKind) (*entity.Movement, error) {
	var created *entity.Movement
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		productRepo repository.ProductRepository,
	) error {
		mode := repository.LockShared
		if kind == entity.MovementExit {
			mode = repository.LockExclusive
		}
		product, err := productRepo.LockForMovement(ctx, input.ProductID, mode)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}

		entries, exits, err := movRepo.Totals(ctx, product.ID)
		if err != nil {
			return err
		}
		check := domaininv.CheckEntry
		if kind == entity.MovementExit {
			check = domaininv.CheckExit
		}
		if err := check(entries-exits, input.Quantity); err != nil {
			return err
		}

		// OccurredAt y Seq los asigna el almacenamiento al confirmar.
		mov := &entity.Movement{
			ID:        uuid.New().String(),
			ProductID: product.ID,
			Kind:      kind,
			Quantity:  input.Quantity,
			Actor:     input.ActorID,
			Notes:     input.Notes,
		}
		if err := movRepo.Append(ctx, mov); err != nil {
			return err
		}
		created = mov
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// translateErr deja el error de negocio tal cual y convierte la expiración del contexto
// durante la espera del bloqueo en ErrContention.
func (uc *RegisterMovementUseCase) translateErr(ctx context.Context, err error, input MovementInputDTO, kind entity.MovementKind) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}
	if ctx.Err() != nil && !errors.Is(err, domain.ErrContention) {
		err = fmt.Errorf("%w: %v", domain.ErrContention, err)
	}
	ev := uc.log.Info()
	if errors.Is(err, domain.ErrContention) {
		ev = uc.log.Warn()
	}
	ev.Err(err).
		Str("product_id", input.ProductID).
		Str("kind", string(kind)).
		Int64("quantity", input.Quantity).
		Msg("movimiento rechazado")
	return err
}

// notify invoca el observador post-commit; nunca propaga errores ni pánicos.
func (uc *RegisterMovementUseCase) notify(ctx context.Context, mov *entity.Movement) {
	if uc.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			uc.log.Error().Interface("panic", r).Str("movement_id", mov.ID).Msg("observador de stock")
		}
	}()
	snapshot := *mov
	if err := uc.observer.MovementCommitted(context.WithoutCancel(ctx), &snapshot); err != nil {
		uc.log.Error().Err(err).Str("movement_id", mov.ID).Msg("observador de stock")
	}
}

func newContentionBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	return b
}

package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// exclusiveWeight peso del bloqueo exclusivo; uno compartido pesa 1.
const exclusiveWeight = 1 << 30

// DefaultLockTimeout espera máxima por el bloqueo de un producto.
const DefaultLockTimeout = 2 * time.Second

// Store almacenamiento en memoria con la misma semántica que el adaptador PostgreSQL:
// bloqueo por producto (exclusivo/compartido), libro mayor solo-anexar y cascadas.
// Se usa en desarrollo (STORE_DRIVER=memory) y en las pruebas.
type Store struct {
	mu          sync.RWMutex
	products    map[string]*entity.Product
	categories  map[string]*entity.Category
	suppliers   map[string]*entity.Supplier
	users       map[string]*entity.User
	movements   []*entity.Movement
	movByID     map[string]*entity.Movement
	byProduct   map[string][]*entity.Movement // índice del libro mayor por producto
	nextSeq     int64
	lastStamp   time.Time
	clock       func() time.Time
	locks       map[string]*semaphore.Weighted
	lockTimeout time.Duration
}

// NewStore construye un Store vacío. lockTimeout <= 0 usa DefaultLockTimeout.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{
		products:    make(map[string]*entity.Product),
		categories:  make(map[string]*entity.Category),
		suppliers:   make(map[string]*entity.Supplier),
		users:       make(map[string]*entity.User),
		movByID:     make(map[string]*entity.Movement),
		byProduct:   make(map[string][]*entity.Movement),
		clock:       time.Now,
		locks:       make(map[string]*semaphore.Weighted),
		lockTimeout: lockTimeout,
	}
}

func (s *Store) productLock(id string) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = semaphore.NewWeighted(exclusiveWeight)
		s.locks[id] = l
	}
	return l
}

// acquire toma el bloqueo del producto con espera acotada. El semáforo es FIFO, así que
// una salida en espera no queda postergada indefinidamente por entradas nuevas.
func (s *Store) acquire(ctx context.Context, id string, mode repository.LockMode) (func(), error) {
	weight := int64(1)
	if mode == repository.LockExclusive {
		weight = exclusiveWeight
	}
	l := s.productLock(id)
	waitCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	if err := l.Acquire(waitCtx, weight); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.ErrContention
	}
	return func() { l.Release(weight) }, nil
}

// stampLocked instante de confirmación: nunca anterior al último asignado, así el orden
// (OccurredAt, Seq) coincide con el orden de confirmación. Requiere s.mu en escritura.
func (s *Store) stampLocked() time.Time {
	now := s.clock().UTC().Truncate(time.Microsecond)
	if now.Before(s.lastStamp) {
		now = s.lastStamp
	}
	s.lastStamp = now
	return now
}

// appendLocked asigna Seq y agrega al libro mayor. Requiere s.mu tomado en escritura.
func (s *Store) appendLocked(m *entity.Movement) error {
	if _, ok := s.products[m.ProductID]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := s.movByID[m.ID]; ok {
		return domain.ErrDuplicate
	}
	s.nextSeq++
	m.Seq = s.nextSeq
	stored := *m
	s.movements = append(s.movements, &stored)
	s.movByID[stored.ID] = &stored
	s.byProduct[stored.ProductID] = append(s.byProduct[stored.ProductID], &stored)
	return nil
}

// totalsLocked pliega el libro mayor del producto; no hay contadores mantenidos.
func (s *Store) totalsLocked(productID string) (int64, int64) {
	return domaininv.FoldMovements(s.byProduct[productID])
}

// deleteMovementsLocked cascada de borrado de producto.
func (s *Store) deleteMovementsLocked(productID string) {
	kept := s.movements[:0]
	for _, m := range s.movements {
		if m.ProductID == productID {
			delete(s.movByID, m.ID)
			continue
		}
		kept = append(kept, m)
	}
	for i := len(kept); i < len(s.movements); i++ {
		s.movements[i] = nil
	}
	s.movements = kept
	delete(s.byProduct, productID)
}

func matches(m *entity.Movement, f repository.MovementFilter, useCursor bool) bool {
	if f.Kind != "" && m.Kind != f.Kind {
		return false
	}
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if f.Since != nil && m.OccurredAt.Before(*f.Since) {
		return false
	}
	if f.Until != nil && m.OccurredAt.After(*f.Until) {
		return false
	}
	if useCursor && f.After != nil {
		if m.OccurredAt.After(f.After.OccurredAt) {
			return false
		}
		if m.OccurredAt.Equal(f.After.OccurredAt) && m.Seq >= f.After.Seq {
			return false
		}
	}
	return true
}

// sortDesc orden del historial: (OccurredAt, Seq) descendente.
func sortDesc(list []*entity.Movement) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.After(b.OccurredAt)
		}
		return a.Seq > b.Seq
	})
}

func cloneProduct(p *entity.Product) *entity.Product {
	c := *p
	return &c
}

func cloneMovement(m *entity.Movement) *entity.Movement {
	c := *m
	return &c
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end]
}

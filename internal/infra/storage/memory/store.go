package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// ErrTransaction ошибка управления транзакцией
var ErrTransaction = errors.New("memory: transaction error")

// op изменение состояния; применяется под мьютексом и возвращает функцию отката
type op func(s *Store) (undo func(), err error)

type tx struct {
	readOnly bool
	ops      []op
	done     bool
}

type txKey struct{}

// Store хранилище в памяти для storage.driver = "memory".
// Записи внутри транзакции копятся в журнале и применяются атомарно при фиксации,
// при этом проверяются те же ограничения, что и в PostgreSQL:
// уникальность client_generated_id и отсутствие пересечений активных бронирований ресурса.
// Чтения внутри транзакции видят только зафиксированное состояние.
type Store struct {
	mu sync.RWMutex

	bookings   map[string]*domain.Booking
	clientIDs  map[string]string // tenant/client_id -> booking id
	rules      map[string]*domain.AvailabilityRule
	exceptions map[string]*domain.AvailabilityException
	blocks     map[string]*domain.TimeBlock
	events     []*domain.OutboxEvent
}

// New создает пустое хранилище
func New() *Store {
	return &Store{
		bookings:   make(map[string]*domain.Booking),
		clientIDs:  make(map[string]string),
		rules:      make(map[string]*domain.AvailabilityRule),
		exceptions: make(map[string]*domain.AvailabilityException),
		blocks:     make(map[string]*domain.TimeBlock),
	}
}

// Bookings репозиторий бронирований поверх хранилища
func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{store: s}
}

// Availability репозиторий расписания поверх хранилища
func (s *Store) Availability() *AvailabilityRepository {
	return &AvailabilityRepository{store: s}
}

// Outbox репозиторий outbox поверх хранилища
func (s *Store) Outbox() *OutboxRepository {
	return &OutboxRepository{store: s}
}

// Do выполняет fn в транзакции
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.run(ctx, false, fn)
}

// DoSerializable выполняет fn в транзакции. Фиксация журнала под мьютексом уже сериализуема.
func (s *Store) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.run(ctx, false, fn)
}

// DoReadOnly выполняет fn в транзакции только для чтения
func (s *Store) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.run(ctx, true, fn)
}

func (s *Store) run(ctx context.Context, readOnly bool, fn func(ctx context.Context) error) error {
	// Вложенный вызов переиспользует внешнюю транзакцию
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	t := &tx{readOnly: readOnly}
	defer func() { t.done = true }()

	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrTransaction, err)
	}
	return s.commit(t.ops)
}

// commit применяет журнал целиком или не применяет ничего
func (s *Store) commit(ops []op) error {
	if len(ops) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	undos := make([]func(), 0, len(ops))
	for _, o := range ops {
		undo, err := o(s)
		if err != nil {
			for i := len(undos) - 1; i >= 0; i-- {
				undos[i]()
			}
			return err
		}
		undos = append(undos, undo)
	}
	return nil
}

// write ставит изменение в журнал транзакции или применяет его сразу
func (s *Store) write(ctx context.Context, o op) error {
	if t, ok := txFromContext(ctx); ok {
		if t.done {
			return fmt.Errorf("%w: transaction already finished", ErrTransaction)
		}
		if t.readOnly {
			return fmt.Errorf("%w: write in read-only transaction", ErrTransaction)
		}
		t.ops = append(t.ops, o)
		return nil
	}
	return s.commit([]op{o})
}

func txFromContext(ctx context.Context) (*tx, bool) {
	t, ok := ctx.Value(txKey{}).(*tx)
	return t, ok
}

func clientKey(tenantID, clientID string) string {
	return tenantID + "/" + clientID
}

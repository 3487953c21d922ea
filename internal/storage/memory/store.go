package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/menus/internal/domain"
)

// menuState — снимок таблицы меню.
type menuState struct {
	menus  map[int64]domain.Menu
	nextID int64
}

func (s *menuState) clone() *menuState {
	cp := &menuState{
		menus:  make(map[int64]domain.Menu, len(s.menus)),
		nextID: s.nextID,
	}
	for id, m := range s.menus {
		cp.menus[id] = copyMenu(m)
	}
	return cp
}

// Store — in-memory хранилище для локальной разработки и тестов.
//
// Транзакции работают по принципу copy-on-write: fn получает рабочую копию
// состояния, commit подменяет состояние целиком. Читатели не видят
// незавершённых изменений, транзакции выполняются последовательно.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	state  *menuState
	outbox *outboxRepositoryInMemory
	now    func() time.Time
}

// NewStore создаёт пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{
		state:  &menuState{menus: make(map[int64]domain.Menu), nextID: 1},
		outbox: NewOutboxRepository(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Menus возвращает репозиторий вне транзакции: каждая запись фиксируется сразу.
func (s *Store) Menus() domain.MenuRepository {
	return &menuRepository{store: s}
}

// Outbox возвращает outbox-репозиторий хранилища.
func (s *Store) Outbox() domain.OutboxRepository {
	return s.outbox
}

// WithinTx выполняет fn на рабочей копии состояния. Внутри fn нельзя
// использовать нетранзакционные репозитории Store для записи.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	work := s.state.clone()
	s.mu.RUnlock()

	tx := &memoryTx{
		menus: &menuRepository{store: s, work: work},
	}
	tx.outbox = &txOutbox{tx: tx}

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit menu tx: %w", err)
	}

	s.mu.Lock()
	s.state = work
	s.mu.Unlock()

	for _, msg := range tx.pending {
		if _, err := s.outbox.Enqueue(ctx, msg); err != nil {
			return fmt.Errorf("flush outbox after commit: %w", err)
		}
	}
	return nil
}

type memoryTx struct {
	menus   *menuRepository
	outbox  *txOutbox
	pending []domain.OutboxMessage
}

func (t *memoryTx) Menus() domain.MenuRepository    { return t.menus }
func (t *memoryTx) Outbox() domain.OutboxRepository { return t.outbox }

// txOutbox буферизует события до commit; чтение видит только зафиксированные записи.
type txOutbox struct {
	tx *memoryTx
}

func (o *txOutbox) Enqueue(_ context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	msg = withOutboxID(msg)
	o.tx.pending = append(o.tx.pending, msg)
	return msg, nil
}

func (o *txOutbox) PullPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	return nil, fmt.Errorf("pull pending inside menu tx is not supported")
}

func (o *txOutbox) Stats(context.Context) (domain.OutboxStats, error) {
	return domain.OutboxStats{PendingCount: len(o.tx.pending)}, nil
}

func (o *txOutbox) MarkSent(context.Context, string) error {
	return fmt.Errorf("mark sent inside menu tx is not supported")
}

func (o *txOutbox) MarkFailed(context.Context, string) error {
	return fmt.Errorf("mark failed inside menu tx is not supported")
}

var (
	_ domain.Transactor       = (*Store)(nil)
	_ domain.Tx               = (*memoryTx)(nil)
	_ domain.OutboxRepository = (*txOutbox)(nil)
)

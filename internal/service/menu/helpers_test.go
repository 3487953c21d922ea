package menu_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/menus/internal/domain"
	"github.com/vladislavdragonenkov/menus/internal/storage/memory"
)

// fakeCache — in-memory TreeCache без TTL для проверки взаимодействия с кэшем.
type fakeCache struct {
	mu            sync.Mutex
	trees         map[int][]domain.Menu
	puts          int
	invalidations int
}

func newFakeCache() *fakeCache {
	return &fakeCache{trees: make(map[int][]domain.Menu)}
}

func (c *fakeCache) Get(depth int) ([]domain.Menu, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tree, ok := c.trees[depth]
	if !ok {
		return nil, false
	}
	return domain.CloneTree(tree), true
}

func (c *fakeCache) Put(depth int, tree []domain.Menu, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trees[depth] = domain.CloneTree(tree)
	c.puts++
}

func (c *fakeCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trees = make(map[int][]domain.Menu)
	c.invalidations++
}

func (c *fakeCache) has(depth int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.trees[depth]
	return ok
}

func (c *fakeCache) counts() (puts, invalidations int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.puts, c.invalidations
}

// hookStore оборачивает memory.Store и позволяет внедрять сбои и
// побочные эффекты в отдельные методы репозитория.
type hookStore struct {
	*memory.Store

	treeHook   func()
	treeErr    error
	updateMiss bool
	createErr  error
}

func (h *hookStore) Menus() domain.MenuRepository {
	return &hookRepo{MenuRepository: h.Store.Menus(), store: h}
}

func (h *hookStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	return h.Store.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		return fn(ctx, &hookTx{Tx: tx, store: h})
	})
}

type hookTx struct {
	domain.Tx
	store *hookStore
}

func (t *hookTx) Menus() domain.MenuRepository {
	return &hookRepo{MenuRepository: t.Tx.Menus(), store: t.store}
}

type hookRepo struct {
	domain.MenuRepository
	store *hookStore
}

func (r *hookRepo) TreeToDepth(ctx context.Context, depth int) ([]domain.Menu, error) {
	if r.store.treeErr != nil {
		return nil, r.store.treeErr
	}
	tree, err := r.MenuRepository.TreeToDepth(ctx, depth)
	if r.store.treeHook != nil {
		r.store.treeHook()
	}
	return tree, err
}

func (r *hookRepo) Update(ctx context.Context, id int64, patch domain.MenuPatch) (bool, error) {
	if r.store.updateMiss {
		return false, nil
	}
	return r.MenuRepository.Update(ctx, id, patch)
}

func (r *hookRepo) Create(ctx context.Context, input domain.MenuInput) (domain.Menu, error) {
	if r.store.createErr != nil {
		return domain.Menu{}, r.store.createErr
	}
	return r.MenuRepository.Create(ctx, input)
}

var errStorage = errors.New("storage is down")

func ptr[T any](v T) *T { return &v }

// shape сводит дерево к вложенным именам для структурного сравнения.
func shape(tree []domain.Menu) []any {
	out := make([]any, 0, len(tree))
	for _, node := range tree {
		if len(node.Children) == 0 {
			out = append(out, node.Name)
			continue
		}
		out = append(out, map[string][]any{node.Name: shape(node.Children)})
	}
	return out
}

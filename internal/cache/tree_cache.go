// Package cache содержит реализации domain.TreeCache.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/vladislavdragonenkov/menus/internal/domain"
)

const (
	// defaultInvalidateDepth — глубины, которые сбрасываются всегда,
	// даже если в этот процесс их никто не записывал.
	defaultInvalidateDepth = 5

	numCounters = 1_000
	maxCost     = 1 << 20
	bufferItems = 64
)

// Stats фиксирует обращения к кэшу; nil-safe реализация в metrics.
type Stats interface {
	CacheHit()
	CacheMiss()
	CacheInvalidated()
}

// TreeCache — ristretto-кэш материализованных деревьев меню по глубине.
// Get и Put работают с глубокими копиями, поэтому вызывающий код не может
// изменить закэшированное состояние.
type TreeCache struct {
	cache *ristretto.Cache[int, []domain.Menu]
	stats Stats

	mu     sync.Mutex
	depths map[int]struct{}
}

// Option настраивает TreeCache.
type Option func(*TreeCache)

// WithStats подключает учёт попаданий и промахов.
func WithStats(stats Stats) Option {
	return func(c *TreeCache) {
		c.stats = stats
	}
}

// NewTreeCache создаёт кэш деревьев.
func NewTreeCache(opts ...Option) (*TreeCache, error) {
	rc, err := ristretto.NewCache(&ristretto.Config[int, []domain.Menu]{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: bufferItems,
		// стоимость записи — число узлов дерева
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create tree cache: %w", err)
	}

	c := &TreeCache{
		cache:  rc,
		depths: make(map[int]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get возвращает копию дерева для глубины depth.
func (c *TreeCache) Get(depth int) ([]domain.Menu, bool) {
	tree, ok := c.cache.Get(depth)
	if !ok {
		if c.stats != nil {
			c.stats.CacheMiss()
		}
		return nil, false
	}
	if c.stats != nil {
		c.stats.CacheHit()
	}
	return domain.CloneTree(tree), true
}

// Put сохраняет копию дерева на ttl. Запись видна сразу после возврата.
func (c *TreeCache) Put(depth int, tree []domain.Menu, ttl time.Duration) {
	if tree == nil {
		tree = []domain.Menu{}
	}

	c.mu.Lock()
	c.depths[depth] = struct{}{}
	c.mu.Unlock()

	if c.cache.SetWithTTL(depth, domain.CloneTree(tree), treeCost(tree), ttl) {
		c.cache.Wait()
	}
}

// InvalidateAll удаляет все записанные глубины и глубины 1..5.
func (c *TreeCache) InvalidateAll() {
	c.mu.Lock()
	keys := make([]int, 0, len(c.depths)+defaultInvalidateDepth)
	for depth := range c.depths {
		keys = append(keys, depth)
	}
	c.depths = make(map[int]struct{})
	c.mu.Unlock()

	for depth := 1; depth <= defaultInvalidateDepth; depth++ {
		keys = append(keys, depth)
	}
	for _, depth := range keys {
		c.cache.Del(depth)
	}
	if c.stats != nil {
		c.stats.CacheInvalidated()
	}
}

// Close освобождает ресурсы ristretto.
func (c *TreeCache) Close() {
	c.cache.Close()
}

// treeCost оценивает стоимость дерева числом узлов (минимум 1).
func treeCost(tree []domain.Menu) int64 {
	var count func(nodes []domain.Menu) int64
	count = func(nodes []domain.Menu) int64 {
		n := int64(len(nodes))
		for _, node := range nodes {
			n += count(node.Children)
		}
		return n
	}
	if cost := count(tree); cost > 0 {
		return cost
	}
	return 1
}

var _ domain.TreeCache = (*TreeCache)(nil)

// Package menu реализует движок управления деревом меню: валидацию,
// транзакционные изменения, порядок соседей и инвалидацию кэша деревьев.
package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/menus/internal/domain"
	"github.com/vladislavdragonenkov/menus/internal/metrics"
)

const (
	// DefaultTreeDepth — глубина дерева по умолчанию.
	DefaultTreeDepth = 3
	// TreeCacheTTL — время жизни закэшированного дерева.
	TreeCacheTTL = time.Hour
	// DefaultPerPage — размер страницы плоского списка по умолчанию.
	DefaultPerPage = 15
	// MaxPerPage — верхняя граница размера страницы.
	MaxPerPage = 100
)

const (
	opGetTree  = "get_tree"
	opFind     = "find"
	opCreate   = "create"
	opUpdate   = "update"
	opDelete   = "delete"
	opReorder  = "reorder"
	opChildren = "children"
	opPaginate = "paginate"
)

// Store — хранилище, с которым работает движок: транзакции и
// нетранзакционные чтения.
type Store interface {
	domain.Transactor
	Menus() domain.MenuRepository
}

// Option настраивает Service.
type Option func(*Service)

// WithCache подключает кэш деревьев. Без него GetTree всегда читает хранилище.
func WithCache(cache domain.TreeCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics подключает метрики операций.
func WithMetrics(m *metrics.MenuMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithOutboxEvents включает запись событий об изменениях в outbox.
func WithOutboxEvents(enabled bool) Option {
	return func(s *Service) {
		s.outboxEvents = enabled
	}
}

// WithClock подменяет источник времени для событий.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service — единственная точка записи бизнес-правил дерева меню.
type Service struct {
	store        Store
	cache        domain.TreeCache
	validate     *validator.Validate
	logger       *log.Entry
	metrics      *metrics.MenuMetrics
	outboxEvents bool
	now          func() time.Time

	// cacheMu упорядочивает запись в кэш относительно инвалидации:
	// дерево, прочитанное до инвалидации, не попадает в кэш после неё.
	cacheMu sync.Mutex
	epoch   uint64
}

// NewService создаёт движок меню поверх store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		validate: newValidator(),
		logger:   log.WithField("component", "menu-service"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetTree возвращает лес корней с depth уровнями потомков.
// depth < 1 трактуется как 1.
func (s *Service) GetTree(ctx context.Context, depth int, useCache bool) (tree []domain.Menu, err error) {
	defer s.observe(opGetTree, time.Now(), &err)

	if depth < 1 {
		depth = 1
	}
	useCache = useCache && s.cache != nil

	if useCache {
		if cached, ok := s.cache.Get(depth); ok {
			return cached, nil
		}
	}

	epoch := s.currentEpoch()
	tree, err = s.store.Menus().TreeToDepth(ctx, depth)
	if err != nil {
		return nil, s.internal(opGetTree, err, log.Fields{"depth": depth})
	}

	if useCache {
		s.cacheMu.Lock()
		if s.epoch == epoch {
			s.cache.Put(depth, tree, TreeCacheTTL)
		}
		s.cacheMu.Unlock()
	}
	return tree, nil
}

// FindMenu возвращает пункт меню по идентификатору.
func (s *Service) FindMenu(ctx context.Context, id int64) (m domain.Menu, err error) {
	defer s.observe(opFind, time.Now(), &err)

	found, err := s.store.Menus().FindByID(ctx, id)
	if err != nil {
		return domain.Menu{}, s.internal(opFind, err, log.Fields{"menu_id": id})
	}
	if found == nil {
		return domain.Menu{}, domain.MenuNotFound(id)
	}
	return *found, nil
}

// CreateMenu создаёт пункт меню. Без явного order пункт встаёт
// в конец среди соседей: max(order)+1, либо 1, если соседей нет.
func (s *Service) CreateMenu(ctx context.Context, input domain.MenuInput) (created domain.Menu, err error) {
	defer s.observe(opCreate, time.Now(), &err)

	input.Name = strings.TrimSpace(input.Name)
	if err := s.validateStruct(input); err != nil {
		return domain.Menu{}, err
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		repo := tx.Menus()

		if input.ParentID != nil {
			parent, err := repo.FindByID(ctx, *input.ParentID)
			if err != nil {
				return fmt.Errorf("load parent: %w", err)
			}
			if parent == nil {
				return invalidParent()
			}
		}

		if input.Order == nil {
			next, err := nextOrder(ctx, repo, input.ParentID)
			if err != nil {
				return err
			}
			if next > domain.MaxOrder {
				return domain.NewValidationError("order", fmt.Sprintf("The order may not be greater than %d.", domain.MaxOrder))
			}
			input.Order = &next
		}

		created, err = repo.Create(ctx, input)
		if err != nil {
			return err
		}
		return s.enqueueEvent(ctx, tx, domain.MenuEvent{
			EventType: domain.MenuEventCreated,
			MenuID:    created.ID,
			ParentID:  created.ParentID,
		})
	})
	if err != nil {
		return domain.Menu{}, s.internal(opCreate, err, log.Fields{"name": input.Name})
	}

	s.invalidate()
	s.logger.WithFields(log.Fields{
		"menu_id": created.ID,
		"order":   created.Order,
	}).Info("menu created")
	return created, nil
}

// UpdateMenu частично обновляет пункт меню и возвращает его актуальное состояние.
// Новый родитель не может быть самим пунктом или его потомком.
func (s *Service) UpdateMenu(ctx context.Context, id int64, patch domain.MenuPatch) (updated domain.Menu, err error) {
	defer s.observe(opUpdate, time.Now(), &err)

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		repo := tx.Menus()

		existing, err := repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load menu: %w", err)
		}
		if existing == nil {
			return domain.MenuNotFound(id)
		}

		if err := s.validateStruct(patch); err != nil {
			return err
		}
		if patch.Name != nil && *patch.Name == "" {
			return domain.NewValidationError("name", "The name field is required.")
		}
		if patch.ParentSet && patch.ParentID != nil {
			if err := checkNewParent(ctx, repo, id, *patch.ParentID); err != nil {
				return err
			}
		}

		ok, err := repo.Update(ctx, id, patch)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrMenuUpdateFailed
		}

		reloaded, err := repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("reload menu: %w", err)
		}
		if reloaded == nil {
			return domain.ErrMenuUpdateFailed
		}
		updated = *reloaded

		return s.enqueueEvent(ctx, tx, domain.MenuEvent{
			EventType: domain.MenuEventUpdated,
			MenuID:    updated.ID,
			ParentID:  updated.ParentID,
		})
	})
	if err != nil {
		return domain.Menu{}, s.internal(opUpdate, err, log.Fields{"menu_id": id})
	}

	s.invalidate()
	s.logger.WithField("menu_id", id).Info("menu updated")
	return updated, nil
}

// DeleteMenu удаляет пункт без дочерних пунктов. Каскадного удаления нет.
func (s *Service) DeleteMenu(ctx context.Context, id int64) (deleted bool, err error) {
	defer s.observe(opDelete, time.Now(), &err)

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		repo := tx.Menus()

		existing, err := repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load menu: %w", err)
		}
		if existing == nil {
			return domain.MenuNotFound(id)
		}

		children, err := repo.ChildrenOf(ctx, id)
		if err != nil {
			return fmt.Errorf("load children: %w", err)
		}
		if len(children) > 0 {
			return domain.ErrMenuHasChildren
		}

		deleted, err = repo.Delete(ctx, id)
		if err != nil || !deleted {
			return err
		}
		return s.enqueueEvent(ctx, tx, domain.MenuEvent{
			EventType: domain.MenuEventDeleted,
			MenuID:    id,
			ParentID:  existing.ParentID,
		})
	})
	if err != nil {
		return false, s.internal(opDelete, err, log.Fields{"menu_id": id})
	}

	if deleted {
		s.invalidate()
		s.logger.WithField("menu_id", id).Info("menu deleted")
	}
	return deleted, nil
}

// GetMenuChildren возвращает прямых потомков пункта без обращения к кэшу.
func (s *Service) GetMenuChildren(ctx context.Context, parentID int64) (children []domain.Menu, err error) {
	defer s.observe(opChildren, time.Now(), &err)

	children, err = s.store.Menus().ChildrenOf(ctx, parentID)
	if err != nil {
		return nil, s.internal(opChildren, err, log.Fields{"parent_id": parentID})
	}
	return children, nil
}

// PaginateMenus возвращает плоский список пунктов постранично.
func (s *Service) PaginateMenus(ctx context.Context, page, perPage int) (result domain.MenuPage, err error) {
	defer s.observe(opPaginate, time.Now(), &err)

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	items, total, err := s.store.Menus().Page(ctx, page, perPage)
	if err != nil {
		return domain.MenuPage{}, s.internal(opPaginate, err, log.Fields{"page": page, "per_page": perPage})
	}
	return domain.MenuPage{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

// InvalidateCache сбрасывает кэш деревьев. Вызывается при получении
// события об изменении меню от другого экземпляра сервиса.
func (s *Service) InvalidateCache() {
	s.invalidate()
}

func (s *Service) invalidate() {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	s.epoch++
	s.cache.InvalidateAll()
	s.cacheMu.Unlock()
}

func (s *Service) currentEpoch() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.epoch
}

// internal пропускает доменные ошибки как есть, остальные логирует
// и оборачивает в ErrInternal.
func (s *Service) internal(op string, err error, fields log.Fields) error {
	if domain.IsValidation(err) || domain.IsNotFound(err) || domain.IsConflict(err) {
		return err
	}
	s.logger.WithError(err).WithFields(fields).WithField("operation", op).Error("menu operation failed")
	if errors.Is(err, domain.ErrInternal) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrInternal, op, err)
}

func (s *Service) observe(op string, start time.Time, errp *error) {
	s.metrics.RecordOperation(op, resultOf(*errp), time.Since(start))
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case domain.IsValidation(err):
		return metrics.ResultValidation
	case domain.IsNotFound(err):
		return metrics.ResultNotFound
	case domain.IsConflict(err):
		return metrics.ResultConflict
	default:
		return metrics.ResultError
	}
}

func nextOrder(ctx context.Context, repo domain.MenuRepository, parentID *int64) (int, error) {
	maxOrder, ok, err := repo.MaxSiblingOrder(ctx, parentID)
	if err != nil {
		return 0, fmt.Errorf("load max sibling order: %w", err)
	}
	if !ok {
		return 1, nil
	}
	return maxOrder + 1, nil
}

// checkNewParent проверяет, что parentID существует и не лежит
// в поддереве пункта id (включая сам пункт).
func checkNewParent(ctx context.Context, repo domain.MenuRepository, id, parentID int64) error {
	if parentID == id {
		return domain.NewValidationError("parent_id", "A menu cannot be its own parent.")
	}

	parent, err := repo.FindByID(ctx, parentID)
	if err != nil {
		return fmt.Errorf("load parent: %w", err)
	}
	if parent == nil {
		return invalidParent()
	}

	visited := map[int64]struct{}{parent.ID: {}}
	for cur := parent; cur.ParentID != nil; {
		ancestorID := *cur.ParentID
		if ancestorID == id {
			return domain.NewValidationError("parent_id", "A menu cannot be moved under its own descendant.")
		}
		if _, seen := visited[ancestorID]; seen {
			return fmt.Errorf("menu hierarchy contains a cycle at id %d", ancestorID)
		}
		visited[ancestorID] = struct{}{}

		next, err := repo.FindByID(ctx, ancestorID)
		if err != nil {
			return fmt.Errorf("load ancestor: %w", err)
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return nil
}

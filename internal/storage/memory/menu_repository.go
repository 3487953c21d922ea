package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/menus/internal/domain"
)

// menuRepository работает либо с живым состоянием Store (work == nil),
// либо с рабочей копией транзакции.
type menuRepository struct {
	store *Store
	work  *menuState
}

func (r *menuRepository) read(fn func(st *menuState)) {
	if r.work != nil {
		fn(r.work)
		return
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	fn(r.store.state)
}

func (r *menuRepository) write(fn func(st *menuState)) {
	if r.work != nil {
		fn(r.work)
		return
	}
	// Одиночная запись не должна потеряться при подмене состояния транзакцией.
	r.store.txMu.Lock()
	defer r.store.txMu.Unlock()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	fn(r.store.state)
}

func (r *menuRepository) FindByID(ctx context.Context, id int64) (*domain.Menu, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var found *domain.Menu
	r.read(func(st *menuState) {
		if m, ok := st.menus[id]; ok {
			cp := copyMenu(m)
			found = &cp
		}
	})
	return found, nil
}

func (r *menuRepository) Create(ctx context.Context, input domain.MenuInput) (domain.Menu, error) {
	if err := ctx.Err(); err != nil {
		return domain.Menu{}, err
	}

	now := r.store.now()
	var created domain.Menu
	r.write(func(st *menuState) {
		m := domain.Menu{
			ID:        st.nextID,
			Name:      input.Name,
			ParentID:  copyID(input.ParentID),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if input.Order != nil {
			m.Order = *input.Order
		}
		st.nextID++
		st.menus[m.ID] = m
		created = copyMenu(m)
	})
	return created, nil
}

func (r *menuRepository) Update(ctx context.Context, id int64, patch domain.MenuPatch) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var ok bool
	r.write(func(st *menuState) {
		m, exists := st.menus[id]
		if !exists {
			return
		}
		if patch.Name != nil {
			m.Name = *patch.Name
		}
		if patch.Order != nil {
			m.Order = *patch.Order
		}
		if patch.ParentSet {
			m.ParentID = copyID(patch.ParentID)
		}
		m.UpdatedAt = r.store.now()
		st.menus[id] = m
		ok = true
	})
	return ok, nil
}

func (r *menuRepository) Delete(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var ok bool
	r.write(func(st *menuState) {
		if _, exists := st.menus[id]; exists {
			delete(st.menus, id)
			ok = true
		}
	})
	return ok, nil
}

func (r *menuRepository) ChildrenOf(ctx context.Context, parentID int64) ([]domain.Menu, error) {
	return r.filterSorted(ctx, func(m domain.Menu) bool {
		return m.ParentID != nil && *m.ParentID == parentID
	})
}

func (r *menuRepository) RootNodes(ctx context.Context) ([]domain.Menu, error) {
	return r.filterSorted(ctx, func(m domain.Menu) bool {
		return m.ParentID == nil
	})
}

func (r *menuRepository) TreeToDepth(ctx context.Context, depth int) ([]domain.Menu, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []domain.Menu
	r.read(func(st *menuState) {
		all = make([]domain.Menu, 0, len(st.menus))
		for _, m := range st.menus {
			all = append(all, copyMenu(m))
		}
	})
	return domain.BuildForest(all, depth), nil
}

func (r *menuRepository) MaxSiblingOrder(ctx context.Context, parentID *int64) (int, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	var (
		maxOrder int
		found    bool
	)
	r.read(func(st *menuState) {
		for _, m := range st.menus {
			if !sameParent(m.ParentID, parentID) {
				continue
			}
			if !found || m.Order > maxOrder {
				maxOrder = m.Order
				found = true
			}
		}
	})
	return maxOrder, found, nil
}

func (r *menuRepository) Page(ctx context.Context, page, perPage int) ([]domain.Menu, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}

	var all []domain.Menu
	r.read(func(st *menuState) {
		all = make([]domain.Menu, 0, len(st.menus))
		for _, m := range st.menus {
			all = append(all, copyMenu(m))
		}
	})
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := len(all)
	start := (page - 1) * perPage
	if start >= total {
		return []domain.Menu{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *menuRepository) filterSorted(ctx context.Context, keep func(domain.Menu) bool) ([]domain.Menu, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make([]domain.Menu, 0)
	r.read(func(st *menuState) {
		for _, m := range st.menus {
			if keep(m) {
				result = append(result, copyMenu(m))
			}
		}
	})
	domain.SortSiblings(result)
	return result, nil
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// copyMenu отвязывает запись от внутреннего состояния хранилища.
func copyMenu(m domain.Menu) domain.Menu {
	m.ParentID = copyID(m.ParentID)
	m.Children = nil
	return m
}

var _ domain.MenuRepository = (*menuRepository)(nil)

package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/menus/internal/domain"
	"github.com/vladislavdragonenkov/menus/internal/storage/memory"
)

func intPtr(v int) *int       { return &v }
func idPtr(v int64) *int64    { return &v }
func strPtr(v string) *string { return &v }

func mustCreate(t *testing.T, repo domain.MenuRepository, name string, parentID *int64, order int) domain.Menu {
	t.Helper()
	m, err := repo.Create(context.Background(), domain.MenuInput{Name: name, ParentID: parentID, Order: intPtr(order)})
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return m
}

func TestMenuRepository_CreateFindUpdateDelete(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Menus()

	created := mustCreate(t, repo, "Products", nil, 1)
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps")
	}

	found, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found == nil || found.Name != "Products" {
		t.Fatalf("unexpected find result: %+v", found)
	}

	missing, err := repo.FindByID(ctx, 999)
	if err != nil {
		t.Fatalf("find missing: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for missing menu")
	}

	ok, err := repo.Update(ctx, created.ID, domain.MenuPatch{Name: strPtr("Catalog"), Order: intPtr(4)})
	if err != nil || !ok {
		t.Fatalf("update: ok=%v err=%v", ok, err)
	}
	found, _ = repo.FindByID(ctx, created.ID)
	if found.Name != "Catalog" || found.Order != 4 {
		t.Fatalf("update not applied: %+v", found)
	}

	ok, err = repo.Update(ctx, 999, domain.MenuPatch{Name: strPtr("x")})
	if err != nil || ok {
		t.Fatalf("update of missing row: ok=%v err=%v", ok, err)
	}

	ok, err = repo.Delete(ctx, created.ID)
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Delete(ctx, created.ID)
	if err != nil || ok {
		t.Fatalf("second delete: ok=%v err=%v", ok, err)
	}
}

func TestMenuRepository_ReturnedMenusAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Menus()
	parent := mustCreate(t, repo, "Products", nil, 1)
	child := mustCreate(t, repo, "Electronics", idPtr(parent.ID), 1)

	*child.ParentID = 42
	found, _ := repo.FindByID(ctx, child.ID)
	if *found.ParentID != parent.ID {
		t.Fatal("stored parent id mutated through returned value")
	}
}

func TestMenuRepository_ChildrenAndRootsSortedWithTieBreak(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Menus()

	a := mustCreate(t, repo, "A", nil, 2)
	b := mustCreate(t, repo, "B", nil, 1)
	c := mustCreate(t, repo, "C", nil, 2)
	mustCreate(t, repo, "A2", idPtr(a.ID), 5)
	mustCreate(t, repo, "A1", idPtr(a.ID), 5)

	roots, err := repo.RootNodes(ctx)
	if err != nil {
		t.Fatalf("roots: %v", err)
	}
	if len(roots) != 3 || roots[0].ID != b.ID || roots[1].ID != a.ID || roots[2].ID != c.ID {
		t.Fatalf("unexpected root order: %+v", roots)
	}

	children, err := repo.ChildrenOf(ctx, a.ID)
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(children) != 2 || children[0].Name != "A2" || children[1].Name != "A1" {
		t.Fatalf("ties must follow creation order: %+v", children)
	}
}

func TestMenuRepository_MaxSiblingOrder(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Menus()

	if _, ok, err := repo.MaxSiblingOrder(ctx, nil); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	root := mustCreate(t, repo, "Root", nil, 7)
	mustCreate(t, repo, "Child", idPtr(root.ID), 3)

	maxRoot, ok, err := repo.MaxSiblingOrder(ctx, nil)
	if err != nil || !ok || maxRoot != 7 {
		t.Fatalf("roots: max=%d ok=%v err=%v", maxRoot, ok, err)
	}
	maxChild, ok, err := repo.MaxSiblingOrder(ctx, idPtr(root.ID))
	if err != nil || !ok || maxChild != 3 {
		t.Fatalf("children: max=%d ok=%v err=%v", maxChild, ok, err)
	}
	if _, ok, _ := repo.MaxSiblingOrder(ctx, idPtr(12345)); ok {
		t.Fatal("expected no siblings for unknown parent")
	}
}

func TestMenuRepository_Page(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Menus()
	for i := 0; i < 5; i++ {
		mustCreate(t, repo, "item", nil, i)
	}

	items, total, err := repo.Page(ctx, 2, 2)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if total != 5 || len(items) != 2 || items[0].ID != 3 {
		t.Fatalf("unexpected page: total=%d items=%+v", total, items)
	}

	items, _, _ = repo.Page(ctx, 10, 2)
	if len(items) != 0 {
		t.Fatalf("expected empty page, got %d", len(items))
	}
}

func TestStore_WithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	root := mustCreate(t, store.Menus(), "Root", nil, 1)

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		if _, err := tx.Menus().Update(ctx, root.ID, domain.MenuPatch{Order: intPtr(10)}); err != nil {
			return err
		}
		if _, err := tx.Menus().Create(ctx, domain.MenuInput{Name: "Temp"}); err != nil {
			return err
		}
		if _, err := tx.Outbox().Enqueue(ctx, domain.OutboxMessage{EventType: "menu.updated"}); err != nil {
			return err
		}

		inside, _ := tx.Menus().FindByID(ctx, root.ID)
		if inside.Order != 10 {
			t.Errorf("tx must see its own writes, got order %d", inside.Order)
		}
		outside, _ := store.Menus().FindByID(ctx, root.ID)
		if outside.Order != 1 {
			t.Errorf("readers must not see uncommitted writes, got order %d", outside.Order)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	found, _ := store.Menus().FindByID(ctx, root.ID)
	if found.Order != 1 {
		t.Fatalf("rollback failed, order=%d", found.Order)
	}
	roots, _ := store.Menus().RootNodes(ctx)
	if len(roots) != 1 {
		t.Fatalf("rollback failed, roots=%d", len(roots))
	}
	if stats, _ := store.Outbox().Stats(ctx); stats.PendingCount != 0 {
		t.Fatalf("outbox must be empty after rollback, got %d", stats.PendingCount)
	}
}

func TestStore_WithinTxCommitsWritesAndOutbox(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	err := store.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		if _, err := tx.Menus().Create(ctx, domain.MenuInput{Name: "Root", Order: intPtr(1)}); err != nil {
			return err
		}
		_, err := tx.Outbox().Enqueue(ctx, domain.OutboxMessage{AggregateType: "menu", EventType: "menu.created"})
		return err
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	roots, _ := store.Menus().RootNodes(ctx)
	if len(roots) != 1 {
		t.Fatalf("expected committed root, got %d", len(roots))
	}
	pending, _ := store.Outbox().PullPending(ctx, 10)
	if len(pending) != 1 || pending[0].EventType != "menu.created" {
		t.Fatalf("expected committed outbox message, got %+v", pending)
	}
}

func TestStore_TreeToDepth(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Menus()
	root := mustCreate(t, repo, "Root", nil, 1)
	l1 := mustCreate(t, repo, "L1", idPtr(root.ID), 1)
	l2 := mustCreate(t, repo, "L2", idPtr(l1.ID), 1)
	mustCreate(t, repo, "L3", idPtr(l2.ID), 1)

	tree, err := repo.TreeToDepth(ctx, 2)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if len(tree) != 1 || len(tree[0].Children) != 1 || len(tree[0].Children[0].Children) != 1 {
		t.Fatalf("expected two loaded levels: %+v", tree)
	}
	if len(tree[0].Children[0].Children[0].Children) != 0 {
		t.Fatal("third level must be absent at depth 2")
	}
}

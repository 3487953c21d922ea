// Package seed наполняет пустое хранилище стандартным деревом меню.
package seed

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/menus/internal/domain"
)

// resetDepth — глубина, до которой Reset удаляет существующее дерево.
const resetDepth = 64

// ErrNotEmpty возвращается, если хранилище уже содержит пункты меню.
var ErrNotEmpty = errors.New("menu storage is not empty")

// Engine — операции движка меню, нужные сидеру. Все записи идут через
// движок, поэтому кэш и outbox остаются согласованными.
type Engine interface {
	GetTree(ctx context.Context, depth int, useCache bool) ([]domain.Menu, error)
	CreateMenu(ctx context.Context, input domain.MenuInput) (domain.Menu, error)
	DeleteMenu(ctx context.Context, id int64) (bool, error)
	PaginateMenus(ctx context.Context, page, perPage int) (domain.MenuPage, error)
}

// Node — пункт дерева по умолчанию.
type Node struct {
	Name     string
	Children []Node
}

// DefaultTree — стандартное дерево меню.
var DefaultTree = []Node{
	{Name: "Products", Children: []Node{
		{Name: "Electronics", Children: []Node{
			{Name: "Smartphone"},
			{Name: "Laptop"},
			{Name: "Accessories"},
		}},
		{Name: "Fashion"},
		{Name: "Home Appliances"},
	}},
	{Name: "About Us"},
	{Name: "Contact"},
}

// Options управляет поведением Run.
type Options struct {
	// Force удаляет существующее дерево перед наполнением.
	Force bool
	// Tree заменяет DefaultTree.
	Tree   []Node
	Logger *log.Entry
}

// Run создаёт дерево меню. Пункты получают order 1..n в порядке объявления.
// Возвращает число созданных пунктов.
func Run(ctx context.Context, engine Engine, opts Options) (int, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "seed")
	}
	tree := opts.Tree
	if tree == nil {
		tree = DefaultTree
	}

	page, err := engine.PaginateMenus(ctx, 1, 1)
	if err != nil {
		return 0, fmt.Errorf("check existing menus: %w", err)
	}
	if page.Total > 0 {
		if !opts.Force {
			return 0, fmt.Errorf("%w: %d menus present, use force to replace them", ErrNotEmpty, page.Total)
		}
		removed, err := Reset(ctx, engine)
		if err != nil {
			return 0, err
		}
		logger.WithField("removed", removed).Info("existing menus removed before seeding")
	}

	created, err := createNodes(ctx, engine, nil, tree)
	if err != nil {
		return created, err
	}
	logger.WithField("created", created).Info("menu tree seeded")
	return created, nil
}

// Reset удаляет все пункты меню, начиная с листьев.
func Reset(ctx context.Context, engine Engine) (int, error) {
	tree, err := engine.GetTree(ctx, resetDepth, false)
	if err != nil {
		return 0, fmt.Errorf("load menu tree: %w", err)
	}

	removed := 0
	var walk func(nodes []domain.Menu) error
	walk = func(nodes []domain.Menu) error {
		for _, node := range nodes {
			if err := walk(node.Children); err != nil {
				return err
			}
			deleted, err := engine.DeleteMenu(ctx, node.ID)
			if err != nil {
				return fmt.Errorf("delete menu %d: %w", node.ID, err)
			}
			if deleted {
				removed++
			}
		}
		return nil
	}
	return removed, walk(tree)
}

func createNodes(ctx context.Context, engine Engine, parentID *int64, nodes []Node) (int, error) {
	created := 0
	for i, node := range nodes {
		order := i + 1
		m, err := engine.CreateMenu(ctx, domain.MenuInput{
			Name:     node.Name,
			ParentID: parentID,
			Order:    &order,
		})
		if err != nil {
			return created, fmt.Errorf("create menu %q: %w", node.Name, err)
		}
		created++

		id := m.ID
		n, err := createNodes(ctx, engine, &id, node.Children)
		created += n
		if err != nil {
			return created, err
		}
	}
	return created, nil
}

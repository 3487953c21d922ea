package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/menus/internal/domain"
)

const (
	menuColumns = `id, name, parent_id, sort_order, created_at, updated_at`

	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

type menuRepository struct {
	q querier
}

// NewMenuRepository создаёт PostgreSQL-реализацию MenuRepository вне транзакции.
func NewMenuRepository(store *Store) domain.MenuRepository {
	return store.Menus()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMenu(row rowScanner) (domain.Menu, error) {
	var (
		m        domain.Menu
		parentID sql.NullInt64
	)
	if err := row.Scan(&m.ID, &m.Name, &parentID, &m.Order, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return domain.Menu{}, err
	}
	if parentID.Valid {
		v := parentID.Int64
		m.ParentID = &v
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return m, nil
}

func (r *menuRepository) FindByID(ctx context.Context, id int64) (*domain.Menu, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	m, err := scanMenu(r.q.QueryRowContext(ctx, `
		SELECT `+menuColumns+`
		FROM menus
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select menu: %w", err)
	}
	return &m, nil
}

func (r *menuRepository) Create(ctx context.Context, input domain.MenuInput) (domain.Menu, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	order := 0
	if input.Order != nil {
		order = *input.Order
	}
	now := time.Now().UTC()

	m, err := scanMenu(r.q.QueryRowContext(ctx, `
		INSERT INTO menus (name, parent_id, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING `+menuColumns,
		input.Name, nullableID(input.ParentID), order, now,
	))
	if err != nil {
		return domain.Menu{}, translateWriteError("insert menu", err)
	}
	return m, nil
}

func (r *menuRepository) Update(ctx context.Context, id int64, patch domain.MenuPatch) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	sets := make([]string, 0, 4)
	args := []any{id}
	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		addSet("name", *patch.Name)
	}
	if patch.ParentSet {
		addSet("parent_id", nullableID(patch.ParentID))
	}
	if patch.Order != nil {
		addSet("sort_order", *patch.Order)
	}
	addSet("updated_at", time.Now().UTC())

	res, err := r.q.ExecContext(ctx,
		`UPDATE menus SET `+strings.Join(sets, ", ")+` WHERE id = $1`,
		args...,
	)
	if err != nil {
		return false, translateWriteError("update menu", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *menuRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `DELETE FROM menus WHERE id = $1`, id)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return false, domain.ErrMenuHasChildren
		}
		return false, fmt.Errorf("delete menu: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *menuRepository) ChildrenOf(ctx context.Context, parentID int64) ([]domain.Menu, error) {
	return r.list(ctx, "list menu children", `
		SELECT `+menuColumns+`
		FROM menus
		WHERE parent_id = $1
		ORDER BY sort_order ASC, id ASC
	`, parentID)
}

func (r *menuRepository) RootNodes(ctx context.Context) ([]domain.Menu, error) {
	return r.list(ctx, "list root menus", `
		SELECT `+menuColumns+`
		FROM menus
		WHERE parent_id IS NULL
		ORDER BY sort_order ASC, id ASC
	`)
}

// TreeToDepth выбирает корни и depth уровней потомков одним рекурсивным
// запросом; дерево собирается в памяти.
func (r *menuRepository) TreeToDepth(ctx context.Context, depth int) ([]domain.Menu, error) {
	if depth < 1 {
		depth = 1
	}

	nodes, err := r.list(ctx, "load menu tree", `
		WITH RECURSIVE tree AS (
			SELECT `+menuColumns+`, 0 AS level
			FROM menus
			WHERE parent_id IS NULL
			UNION ALL
			SELECT m.id, m.name, m.parent_id, m.sort_order, m.created_at, m.updated_at, t.level + 1
			FROM menus m
			JOIN tree t ON m.parent_id = t.id
			WHERE t.level < $1
		)
		SELECT `+menuColumns+`
		FROM tree
		ORDER BY level ASC, sort_order ASC, id ASC
	`, depth)
	if err != nil {
		return nil, err
	}
	return domain.BuildForest(nodes, depth), nil
}

func (r *menuRepository) MaxSiblingOrder(ctx context.Context, parentID *int64) (int, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var maxOrder sql.NullInt64
	if err := r.q.QueryRowContext(ctx, `
		SELECT MAX(sort_order)
		FROM menus
		WHERE parent_id IS NOT DISTINCT FROM $1::BIGINT
	`, nullableID(parentID)).Scan(&maxOrder); err != nil {
		return 0, false, fmt.Errorf("select max sibling order: %w", err)
	}
	if !maxOrder.Valid {
		return 0, false, nil
	}
	return int(maxOrder.Int64), true, nil
}

func (r *menuRepository) Page(ctx context.Context, page, perPage int) ([]domain.Menu, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}

	countCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var total int
	if err := r.q.QueryRowContext(countCtx, `SELECT COUNT(*) FROM menus`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count menus: %w", err)
	}

	items, err := r.list(ctx, "list menus page", `
		SELECT `+menuColumns+`
		FROM menus
		ORDER BY id ASC
		LIMIT $1 OFFSET $2
	`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *menuRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Menu, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	menus := make([]domain.Menu, 0)
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		menus = append(menus, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate rows: %w", op, err)
	}
	return menus, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

// translateWriteError переводит нарушения ограничений схемы в доменные ошибки.
// Сервис проверяет эти условия заранее; здесь ловятся гонки между проверкой и записью.
func translateWriteError(op string, err error) error {
	switch pgCode(err) {
	case pgForeignKeyViolation:
		return domain.NewValidationError("parent_id", "the selected parent menu does not exist")
	case pgCheckViolation:
		return domain.NewValidationError("", fmt.Sprintf("%s violates menu constraints", op))
	case pgUniqueViolation:
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

var _ domain.MenuRepository = (*menuRepository)(nil)

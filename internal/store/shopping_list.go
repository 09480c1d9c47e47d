package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/dukerupert/chorify/internal/apperr"
	"github.com/dukerupert/chorify/internal/model"
)

var errShoppingListNotFound = apperr.NotFound("shopping list not found")

type ShoppingListStore struct {
	db *sql.DB
}

func NewShoppingListStore(db *sql.DB) *ShoppingListStore {
	return &ShoppingListStore{db: db}
}

// --- List methods ---

func scanList(scanner interface{ Scan(...any) error }) (*model.ShoppingList, error) {
	var l model.ShoppingList
	err := scanner.Scan(&l.ID, &l.Name, &l.AccountID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Items = []model.ShoppingListItem{}
	return &l, nil
}

const listCols = `id, name, account_id, created_at, updated_at`

func (s *ShoppingListStore) Create(ctx context.Context, ownerID int64, in model.ShoppingListCreate) (*model.ShoppingList, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO shopping_lists (name, account_id) VALUES (?, ?)`,
		in.Name, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert shopping list: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := replaceItems(ctx, tx, id, in.Items); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.Get(ctx, ownerID, id)
}

func (s *ShoppingListStore) List(ctx context.Context, ownerID int64) ([]model.ShoppingList, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listCols+` FROM shopping_lists WHERE account_id = ? ORDER BY id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list shopping lists: %w", err)
	}

	var lists []model.ShoppingList
	index := make(map[int64]int)
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan shopping list: %w", err)
		}
		index[l.ID] = len(lists)
		lists = append(lists, *l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list shopping lists: %w", err)
	}
	rows.Close()

	if len(lists) == 0 {
		return lists, nil
	}

	ids := make([]int64, 0, len(lists))
	for _, l := range lists {
		ids = append(ids, l.ID)
	}
	items, err := listItems(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		i := index[item.ShoppingListID]
		lists[i].Items = append(lists[i].Items, item)
	}
	return lists, nil
}

func (s *ShoppingListStore) Get(ctx context.Context, ownerID, id int64) (*model.ShoppingList, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+listCols+` FROM shopping_lists WHERE id = ? AND account_id = ?`,
		id, ownerID,
	)
	l, err := scanList(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errShoppingListNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping list: %w", err)
	}

	items, err := listItems(ctx, s.db, []int64{l.ID})
	if err != nil {
		return nil, err
	}
	if items != nil {
		l.Items = items
	}
	return l, nil
}

// Update renames the list when Name is set and replaces its items when
// Items is set. Both happen in one transaction.
func (s *ShoppingListStore) Update(ctx context.Context, ownerID, id int64, in model.ShoppingListUpdate) (*model.ShoppingList, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	b := sq.Update("shopping_lists").
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"id": id, "account_id": ownerID})
	if in.Name.Present() {
		b = b.Set("name", in.Name.Value)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build shopping list update: %w", err)
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update shopping list: %w", err)
	}
	if err := requireAffected(result, errShoppingListNotFound); err != nil {
		return nil, err
	}

	if in.Items.Set {
		if err := replaceItems(ctx, tx, id, in.Items.Value); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.Get(ctx, ownerID, id)
}

// Delete removes the list and, through the foreign key, its items.
func (s *ShoppingListStore) Delete(ctx context.Context, ownerID, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM shopping_lists WHERE id = ? AND account_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete shopping list: %w", err)
	}
	return requireAffected(result, errShoppingListNotFound)
}

// --- Item methods ---

func scanItem(scanner interface{ Scan(...any) error }) (*model.ShoppingListItem, error) {
	var item model.ShoppingListItem
	var completed int
	err := scanner.Scan(
		&item.ID, &item.ShoppingListID, &item.Name, &item.Quantity,
		&completed, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Completed = completed != 0
	return &item, nil
}

const itemCols = `id, shopping_list_id, name, quantity, completed, created_at, updated_at`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listItems(ctx context.Context, q queryer, listIDs []int64) ([]model.ShoppingListItem, error) {
	query, args, err := sq.Select(itemCols).
		From("shopping_list_items").
		Where(sq.Eq{"shopping_list_id": listIDs}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build item query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.ShoppingListItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// replaceItems makes the list's items match in, keyed by item name.
// Items whose name is absent from in are deleted. For each name in in the
// existing item is updated (quantity, and completed when supplied) or a new
// one is created. When a name repeats, the last entry wins. Running it twice
// with the same input leaves the same rows, with the same ids.
func replaceItems(ctx context.Context, tx *sql.Tx, listID int64, in []model.ItemInput) error {
	byName := make(map[string]model.ItemInput, len(in))
	var names []string
	for _, item := range in {
		if _, seen := byName[item.Name]; !seen {
			names = append(names, item.Name)
		}
		byName[item.Name] = item
	}

	del := sq.Delete("shopping_list_items").Where(sq.Eq{"shopping_list_id": listID})
	if len(names) > 0 {
		del = del.Where(sq.NotEq{"name": names})
	}
	query, args, err := del.ToSql()
	if err != nil {
		return fmt.Errorf("build item delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}

	for _, name := range names {
		item := byName[name]

		var existingID int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM shopping_list_items WHERE shopping_list_id = ? AND name = ?`,
			listID, name,
		).Scan(&existingID)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx,
				`INSERT INTO shopping_list_items (shopping_list_id, name, quantity, completed) VALUES (?, ?, ?, ?)`,
				listID, name, item.Quantity, boolInt(item.Completed.Or(false)),
			)
			if err != nil {
				return fmt.Errorf("insert item %q: %w", name, err)
			}
		case err != nil:
			return fmt.Errorf("get item %q: %w", name, err)
		default:
			upd := sq.Update("shopping_list_items").
				Set("quantity", item.Quantity).
				Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
				Where(sq.Eq{"id": existingID})
			if item.Completed.Present() {
				upd = upd.Set("completed", boolInt(item.Completed.Value))
			}
			query, args, err := upd.ToSql()
			if err != nil {
				return fmt.Errorf("build item update: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("update item %q: %w", name, err)
			}
		}
	}
	return nil
}

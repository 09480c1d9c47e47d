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

var errTodoNotFound = apperr.NotFound("todo not found")

type TodoStore struct {
	db *sql.DB
}

func NewTodoStore(db *sql.DB) *TodoStore {
	return &TodoStore{db: db}
}

func scanTodo(scanner interface{ Scan(...any) error }) (*model.Todo, error) {
	var t model.Todo
	var done int
	var dueDate sql.NullString
	err := scanner.Scan(&t.ID, &t.Description, &done, &dueDate, &t.AccountID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Done = done != 0
	if dueDate.Valid && dueDate.String != "" {
		d, err := model.ParseDate(dueDate.String)
		if err != nil {
			return nil, err
		}
		t.DueDate = &d
	}
	return &t, nil
}

const todoCols = `id, description, done, due_date, account_id, created_at, updated_at`

func (s *TodoStore) Create(ctx context.Context, ownerID int64, in model.TodoCreate) (*model.Todo, error) {
	var due sql.NullString
	if in.DueDate != nil {
		due = sql.NullString{String: in.DueDate.String(), Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (description, done, due_date, account_id) VALUES (?, ?, ?, ?)`,
		in.Description, boolInt(in.Done), due, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert todo: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.Get(ctx, ownerID, id)
}

func (s *TodoStore) List(ctx context.Context, ownerID int64) ([]model.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+todoCols+` FROM todos WHERE account_id = ? ORDER BY id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var todos []model.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, *t)
	}
	return todos, rows.Err()
}

func (s *TodoStore) Get(ctx context.Context, ownerID, id int64) (*model.Todo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+todoCols+` FROM todos WHERE id = ? AND account_id = ?`,
		id, ownerID,
	)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errTodoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get todo: %w", err)
	}
	return t, nil
}

// Update merges the set fields of in into the todo. A null due date clears it.
func (s *TodoStore) Update(ctx context.Context, ownerID, id int64, in model.TodoUpdate) (*model.Todo, error) {
	b := sq.Update("todos").
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"id": id, "account_id": ownerID})

	if in.Description.Present() {
		b = b.Set("description", in.Description.Value)
	}
	if in.Done.Present() {
		b = b.Set("done", boolInt(in.Done.Value))
	}
	if in.DueDate.Set {
		if in.DueDate.Null {
			b = b.Set("due_date", nil)
		} else {
			b = b.Set("due_date", in.DueDate.Value.String())
		}
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build todo update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}
	if err := requireAffected(result, errTodoNotFound); err != nil {
		return nil, err
	}
	return s.Get(ctx, ownerID, id)
}

func (s *TodoStore) Delete(ctx context.Context, ownerID, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ? AND account_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return requireAffected(result, errTodoNotFound)
}

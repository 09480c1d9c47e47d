package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/dukerupert/chorify/internal/apperr"
	"github.com/dukerupert/chorify/internal/model"
)

var errAccountNotFound = apperr.NotFound("account not found")

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func scanAccount(scanner interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	var active, admin int
	err := scanner.Scan(&a.ID, &a.Email, &a.PasswordHash, &active, &admin, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.IsActive = active != 0
	a.IsAdmin = admin != 0
	return &a, nil
}

const accountCols = `id, email, password_hash, is_active, is_admin, created_at, updated_at`

// AccountQuery describes an account listing. Column names must come from
// trusted configuration, never from request input.
type AccountQuery struct {
	Search       string
	SearchFields []string
	Equals       map[string]any
	OrderBy      []string
}

// Create inserts an active account.
func (s *AccountStore) Create(ctx context.Context, email, passwordHash string, isAdmin bool) (*model.Account, error) {
	return s.Insert(ctx, email, passwordHash, true, isAdmin)
}

// Insert stores an account with both flags in a single statement.
func (s *AccountStore) Insert(ctx context.Context, email, passwordHash string, isActive, isAdmin bool) (*model.Account, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (email, password_hash, is_active, is_admin) VALUES (?, ?, ?, ?)`,
		email, passwordHash, boolInt(isActive), boolInt(isAdmin),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("email", "email already registered")
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *AccountStore) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE email = ?`, email)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return a, nil
}

func (s *AccountStore) List(ctx context.Context, q AccountQuery) ([]model.Account, error) {
	b := sq.Select(accountCols).From("accounts")

	if q.Search != "" && len(q.SearchFields) > 0 {
		or := sq.Or{}
		for _, f := range q.SearchFields {
			or = append(or, sq.Like{f: "%" + q.Search + "%"})
		}
		b = b.Where(or)
	}
	if len(q.Equals) > 0 {
		b = b.Where(sq.Eq(q.Equals))
	}
	if len(q.OrderBy) > 0 {
		b = b.OrderBy(q.OrderBy...)
	} else {
		b = b.OrderBy("id ASC")
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build account query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// Update applies the set fields of u. Omitted fields keep their values.
func (s *AccountStore) Update(ctx context.Context, id int64, u model.AccountUpdate) (*model.Account, error) {
	b := sq.Update("accounts").
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"id": id})

	if u.Email.Present() {
		b = b.Set("email", u.Email.Value)
	}
	if u.IsActive.Present() {
		b = b.Set("is_active", boolInt(u.IsActive.Value))
	}
	if u.IsAdmin.Present() {
		b = b.Set("is_admin", boolInt(u.IsAdmin.Value))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build account update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("email", "email already registered")
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	if err := requireAffected(result, errAccountNotFound); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *AccountStore) SetPassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return requireAffected(result, errAccountNotFound)
}

// Delete removes the account. Sessions, shopping lists and todos go with it.
func (s *AccountStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireAffected(result, errAccountNotFound)
}

func (s *AccountStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func requireAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

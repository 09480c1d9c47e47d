package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dukerupert/chorify/internal/apperr"
	"github.com/dukerupert/chorify/internal/database"
	"github.com/dukerupert/chorify/internal/model"
	"github.com/dukerupert/chorify/internal/optional"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupAccountTestDB(t *testing.T) *AccountStore {
	t.Helper()
	return NewAccountStore(openTestDB(t))
}

func TestAccountCreate(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()

	a, err := as.Create(ctx, "alice@example.com", "hash", false)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if a.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", a.Email, "alice@example.com")
	}
	if !a.IsActive {
		t.Error("expected new account to be active")
	}
	if a.IsAdmin {
		t.Error("expected new account to not be admin")
	}
	if a.PasswordHash != "hash" {
		t.Errorf("password_hash = %q, want %q", a.PasswordHash, "hash")
	}
	if a.CreatedAt.IsZero() {
		t.Error("created_at should be set")
	}
}

func TestAccountInsertInactive(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()

	a, err := as.Insert(ctx, "bob@example.com", "hash", false, true)
	if err != nil {
		t.Fatalf("insert account: %v", err)
	}
	if a.IsActive || !a.IsAdmin {
		t.Errorf("got active=%v admin=%v, want false/true", a.IsActive, a.IsAdmin)
	}

	stored, err := as.GetByEmail(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if stored.IsActive {
		t.Error("stored account should be inactive")
	}
}

func TestAccountInsertDuplicateLeavesNoRow(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()

	as.Create(ctx, "bob@example.com", "hash", false)
	if _, err := as.Insert(ctx, "bob@example.com", "hash", false, false); !apperr.Is(err, apperr.EConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	n, err := as.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestAccountCreateDuplicateEmail(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()

	if _, err := as.Create(ctx, "alice@example.com", "hash", false); err != nil {
		t.Fatalf("create account: %v", err)
	}
	_, err := as.Create(ctx, "alice@example.com", "other", false)
	if !apperr.Is(err, apperr.EConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestAccountCreateEmptyEmail(t *testing.T) {
	as := setupAccountTestDB(t)

	if _, err := as.Create(context.Background(), "", "hash", false); err == nil {
		t.Fatal("expected error for empty email")
	}
}

func TestAccountGetNotFound(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()

	if _, err := as.GetByID(ctx, 9999); !apperr.Is(err, apperr.ENotFound) {
		t.Errorf("GetByID err = %v, want not found", err)
	}
	if _, err := as.GetByEmail(ctx, "nobody@example.com"); !apperr.Is(err, apperr.ENotFound) {
		t.Errorf("GetByEmail err = %v, want not found", err)
	}
}

func TestAccountUpdatePartial(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()

	a, _ := as.Create(ctx, "alice@example.com", "hash", false)

	updated, err := as.Update(ctx, a.ID, model.AccountUpdate{IsAdmin: optional.Of(true)})
	if err != nil {
		t.Fatalf("update account: %v", err)
	}
	if !updated.IsAdmin {
		t.Error("expected admin after update")
	}
	if updated.Email != "alice@example.com" {
		t.Errorf("email changed to %q", updated.Email)
	}
	if !updated.IsActive {
		t.Error("is_active should be unchanged")
	}

	updated, err = as.Update(ctx, a.ID, model.AccountUpdate{IsActive: optional.Of(false)})
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if updated.IsActive || !updated.IsAdmin {
		t.Errorf("got active=%v admin=%v, want false/true", updated.IsActive, updated.IsAdmin)
	}
}

func TestAccountUpdateEmailConflict(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()

	as.Create(ctx, "alice@example.com", "hash", false)
	bob, _ := as.Create(ctx, "bob@example.com", "hash", false)

	_, err := as.Update(ctx, bob.ID, model.AccountUpdate{Email: optional.Of("alice@example.com")})
	if !apperr.Is(err, apperr.EConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestAccountUpdateNotFound(t *testing.T) {
	as := setupAccountTestDB(t)

	_, err := as.Update(context.Background(), 9999, model.AccountUpdate{IsAdmin: optional.Of(true)})
	if !apperr.Is(err, apperr.ENotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestAccountList(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()

	alice, _ := as.Create(ctx, "alice@example.com", "hash", true)
	as.Create(ctx, "bob@example.org", "hash", false)
	carol, _ := as.Create(ctx, "carol@example.com", "hash", false)

	all, err := as.List(ctx, AccountQuery{})
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(all))
	}
	if all[0].ID != alice.ID {
		t.Errorf("first account = %d, want %d (id order)", all[0].ID, alice.ID)
	}

	found, err := as.List(ctx, AccountQuery{Search: "example.com", SearchFields: []string{"email"}})
	if err != nil {
		t.Fatalf("search accounts: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(found))
	}

	admins, err := as.List(ctx, AccountQuery{Equals: map[string]any{"is_admin": 1}})
	if err != nil {
		t.Fatalf("filter accounts: %v", err)
	}
	if len(admins) != 1 || admins[0].ID != alice.ID {
		t.Errorf("admins = %+v, want only alice", admins)
	}

	desc, err := as.List(ctx, AccountQuery{OrderBy: []string{"id DESC"}})
	if err != nil {
		t.Fatalf("ordered list: %v", err)
	}
	if desc[0].ID != carol.ID {
		t.Errorf("first account = %d, want %d", desc[0].ID, carol.ID)
	}
}

func TestAccountSetPassword(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()

	a, _ := as.Create(ctx, "alice@example.com", "old", false)
	if err := as.SetPassword(ctx, a.ID, "new"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	got, _ := as.GetByID(ctx, a.ID)
	if got.PasswordHash != "new" {
		t.Errorf("password_hash = %q, want %q", got.PasswordHash, "new")
	}
	if err := as.SetPassword(ctx, 9999, "x"); !apperr.Is(err, apperr.ENotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestAccountDeleteCascades(t *testing.T) {
	db := openTestDB(t)
	as := NewAccountStore(db)
	ts := NewTodoStore(db)
	ls := NewShoppingListStore(db)
	ss := NewSessionStore(db)
	ctx := context.Background()

	a, _ := as.Create(ctx, "alice@example.com", "hash", false)
	ts.Create(ctx, a.ID, model.TodoCreate{Description: "buy milk"})
	list, _ := ls.Create(ctx, a.ID, model.ShoppingListCreate{
		Name:  "Groceries",
		Items: []model.ItemInput{{Name: "eggs", Quantity: 2}},
	})
	sess, _ := ss.Create(ctx, a.ID, time.Hour)

	if err := as.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}

	var n int
	for _, q := range []string{
		`SELECT COUNT(*) FROM todos`,
		`SELECT COUNT(*) FROM shopping_lists`,
		`SELECT COUNT(*) FROM shopping_list_items`,
		`SELECT COUNT(*) FROM sessions`,
	} {
		if err := db.QueryRow(q).Scan(&n); err != nil {
			t.Fatalf("%s: %v", q, err)
		}
		if n != 0 {
			t.Errorf("%s = %d, want 0", q, n)
		}
	}
	if _, err := ls.Get(ctx, a.ID, list.ID); !apperr.Is(err, apperr.ENotFound) {
		t.Errorf("list still reachable: %v", err)
	}
	if _, err := ss.GetByToken(ctx, sess.Token); !apperr.Is(err, apperr.EUnauthorized) {
		t.Errorf("session still valid: %v", err)
	}

	if err := as.Delete(ctx, a.ID); !apperr.Is(err, apperr.ENotFound) {
		t.Errorf("second delete err = %v, want not found", err)
	}
}

func TestAccountCount(t *testing.T) {
	as := setupAccountTestDB(t)
	ctx := context.Background()

	n, err := as.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
	as.Create(ctx, "alice@example.com", "hash", false)
	n, _ = as.Count(ctx)
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

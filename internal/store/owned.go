package store

import (
	"context"

	"github.com/dukerupert/chorify/internal/model"
)

// OwnedStore is the operation set shared by every resource that belongs to
// a single account. ownerID always comes from the authenticated caller and
// every query is filtered by it, so a record owned by someone else is
// reported exactly like a missing one.
type OwnedStore[T, C, U any] interface {
	Create(ctx context.Context, ownerID int64, in C) (*T, error)
	List(ctx context.Context, ownerID int64) ([]T, error)
	Get(ctx context.Context, ownerID, id int64) (*T, error)
	Update(ctx context.Context, ownerID, id int64, in U) (*T, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

var (
	_ OwnedStore[model.Todo, model.TodoCreate, model.TodoUpdate]                         = (*TodoStore)(nil)
	_ OwnedStore[model.ShoppingList, model.ShoppingListCreate, model.ShoppingListUpdate] = (*ShoppingListStore)(nil)
)

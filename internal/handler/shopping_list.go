package handler

import (
	"log/slog"

	"github.com/dukerupert/chorify/internal/model"
	"github.com/dukerupert/chorify/internal/serializer"
	"github.com/dukerupert/chorify/internal/store"
)

type ShoppingListHandler = ResourceHandler[model.ShoppingList, model.ShoppingListCreate, model.ShoppingListUpdate]

func NewShoppingListHandler(s *store.ShoppingListStore, n Notifier, logger *slog.Logger) *ShoppingListHandler {
	return &ShoppingListHandler{
		entity:       "shopping_list",
		store:        s,
		decodeCreate: serializer.DecodeShoppingListCreate,
		decodeUpdate: serializer.DecodeShoppingListUpdate,
		present: func(l *model.ShoppingList, owner *model.Account) any {
			return serializer.NewShoppingList(l, owner)
		},
		idOf:     func(l *model.ShoppingList) int64 { return l.ID },
		notifier: n,
		logger:   logger.With("component", "shopping_lists"),
	}
}

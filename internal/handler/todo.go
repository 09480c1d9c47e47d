package handler

import (
	"log/slog"

	"github.com/dukerupert/chorify/internal/model"
	"github.com/dukerupert/chorify/internal/serializer"
	"github.com/dukerupert/chorify/internal/store"
)

type TodoHandler = ResourceHandler[model.Todo, model.TodoCreate, model.TodoUpdate]

func NewTodoHandler(s *store.TodoStore, n Notifier, logger *slog.Logger) *TodoHandler {
	return &TodoHandler{
		entity:       "todo",
		store:        s,
		decodeCreate: serializer.DecodeTodoCreate,
		decodeUpdate: serializer.DecodeTodoUpdate,
		present: func(t *model.Todo, owner *model.Account) any {
			return serializer.NewTodo(t, owner)
		},
		idOf:     func(t *model.Todo) int64 { return t.ID },
		notifier: n,
		logger:   logger.With("component", "todos"),
	}
}

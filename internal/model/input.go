package model

import "github.com/dukerupert/chorify/internal/optional"

// Inputs below are produced by the serializer after validation and consumed
// by the stores. Update types only touch fields whose Value is Set.

type AccountUpdate struct {
	Email    optional.Value[string]
	IsActive optional.Value[bool]
	IsAdmin  optional.Value[bool]
}

type TodoCreate struct {
	Description string
	Done        bool
	DueDate     *Date
}

type TodoUpdate struct {
	Description optional.Value[string]
	Done        optional.Value[bool]
	// DueDate set to null clears the date.
	DueDate optional.Value[Date]
}

// ItemInput is one entry of a shopping list items payload. Name is the key
// used to match existing items.
type ItemInput struct {
	Name      string
	Quantity  int
	Completed optional.Value[bool]
}

type ShoppingListCreate struct {
	Name  string
	Items []ItemInput
}

type ShoppingListUpdate struct {
	Name  optional.Value[string]
	Items optional.Value[[]ItemInput]
}

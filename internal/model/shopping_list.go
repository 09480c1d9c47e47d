package model

import "time"

type ShoppingList struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	AccountID int64              `json:"account_id"`
	Items     []ShoppingListItem `json:"items"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type ShoppingListItem struct {
	ID             int64     `json:"id"`
	ShoppingListID int64     `json:"shopping_list_id"`
	Name           string    `json:"item"`
	Quantity       int       `json:"quantity"`
	Completed      bool      `json:"completed"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

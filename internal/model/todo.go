package model

import "time"

type Todo struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Done        bool      `json:"done"`
	DueDate     *Date     `json:"due_date"`
	AccountID   int64     `json:"account_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

package serializer

import (
	"io"
	"strings"
	"time"

	"github.com/dukerupert/chorify/internal/model"
	"github.com/dukerupert/chorify/internal/optional"
)

const msgDateFormat = "date has wrong format, use YYYY-MM-DD"

type todoPayload struct {
	Description optional.Value[string] `json:"description"`
	Done        optional.Value[bool]   `json:"done"`
	DueDate     optional.Value[string] `json:"due_date"`
}

func (p *todoPayload) validate(requireDescription bool) (model.TodoUpdate, error) {
	fe := fieldErrors{}
	var out model.TodoUpdate

	p.Description.Value = strings.TrimSpace(p.Description.Value)
	switch {
	case p.Description.Null:
		fe.add("description", msgNull)
	case p.Description.Set:
		fe.check("description", p.Description.Value, "required")
		out.Description = optional.Of(p.Description.Value)
	case requireDescription:
		fe.add("description", msgRequired)
	}

	if p.Done.Null {
		fe.add("done", msgNull)
	} else if p.Done.Set {
		out.Done = optional.Of(p.Done.Value)
	}

	switch {
	case p.DueDate.Null:
		out.DueDate = optional.Null[model.Date]()
	case p.DueDate.Set:
		d, err := model.ParseDate(strings.TrimSpace(p.DueDate.Value))
		if err != nil {
			fe.add("due_date", msgDateFormat)
		} else {
			out.DueDate = optional.Of(d)
		}
	}

	return out, fe.err()
}

// DecodeTodoCreate reads a POST body. Description is required, done
// defaults to false and due_date to null.
func DecodeTodoCreate(r io.Reader) (model.TodoCreate, error) {
	var p todoPayload
	if err := decode(r, &p); err != nil {
		return model.TodoCreate{}, err
	}
	u, err := p.validate(true)
	if err != nil {
		return model.TodoCreate{}, err
	}
	in := model.TodoCreate{
		Description: u.Description.Value,
		Done:        u.Done.Or(false),
	}
	if u.DueDate.Present() {
		d := u.DueDate.Value
		in.DueDate = &d
	}
	return in, nil
}

// DecodeTodoUpdate reads a PUT (partial=false) or PATCH body.
func DecodeTodoUpdate(r io.Reader, partial bool) (model.TodoUpdate, error) {
	var p todoPayload
	if err := decode(r, &p); err != nil {
		return model.TodoUpdate{}, err
	}
	return p.validate(!partial)
}

type Todo struct {
	ID          int64       `json:"id"`
	Description string      `json:"description"`
	Done        bool        `json:"done"`
	DueDate     *model.Date `json:"due_date"`
	User        User        `json:"user"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func NewTodo(t *model.Todo, owner *model.Account) Todo {
	return Todo{
		ID:          t.ID,
		Description: t.Description,
		Done:        t.Done,
		DueDate:     t.DueDate,
		User:        NewUser(owner),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

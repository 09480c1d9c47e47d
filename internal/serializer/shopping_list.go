package serializer

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/chorify/internal/model"
	"github.com/dukerupert/chorify/internal/optional"
)

const msgQuantity = "a valid integer is required"

// parseQuantity accepts a JSON integer or a numeric string ("2"). It returns
// the field error message when raw is missing, null or not an integer.
func parseQuantity(raw json.RawMessage) (int, string) {
	s := strings.TrimSpace(string(raw))
	switch s {
	case "":
		return 0, msgRequired
	case "null":
		return 0, msgNull
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, msgQuantity
	}
	if n < 0 {
		return 0, "ensure this value is greater than or equal to 0"
	}
	return n, ""
}

// itemPayload keeps quantity raw so that every quantity error is reported
// under the item's index.
type itemPayload struct {
	Item      string               `json:"item" validate:"required,max=100"`
	Quantity  json.RawMessage      `json:"quantity" validate:"-"`
	Completed optional.Value[bool] `json:"completed"`

	quantity int
}

type shoppingListPayload struct {
	Name  optional.Value[string]        `json:"name"`
	Items optional.Value[[]itemPayload] `json:"items"`
}

func (p *shoppingListPayload) normalize() {
	p.Name.Value = strings.TrimSpace(p.Name.Value)
	for i := range p.Items.Value {
		p.Items.Value[i].Item = strings.TrimSpace(p.Items.Value[i].Item)
	}
}

func (p *shoppingListPayload) validate(requireName bool) (name optional.Value[string], items optional.Value[[]model.ItemInput], err error) {
	fe := fieldErrors{}

	switch {
	case p.Name.Null:
		fe.add("name", msgNull)
	case p.Name.Set:
		fe.check("name", p.Name.Value, "required,max=100")
	case requireName:
		fe.add("name", msgRequired)
	}

	if p.Items.Null {
		fe.add("items", msgNull)
	}
	for i := range p.Items.Value {
		item := &p.Items.Value[i]
		prefix := fmt.Sprintf("items[%d]", i)
		fe.checkStruct(prefix, item)
		n, msg := parseQuantity(item.Quantity)
		if msg != "" {
			fe.add(prefix+".quantity", msg)
		}
		item.quantity = n
		if item.Completed.Null {
			fe.add(prefix+".completed", msgNull)
		}
	}

	if err := fe.err(); err != nil {
		return name, items, err
	}

	if p.Name.Set {
		name = optional.Of(p.Name.Value)
	}
	if p.Items.Set {
		in := make([]model.ItemInput, 0, len(p.Items.Value))
		for _, it := range p.Items.Value {
			in = append(in, model.ItemInput{
				Name:      it.Item,
				Quantity:  it.quantity,
				Completed: it.Completed,
			})
		}
		items = optional.Of(in)
	}
	return name, items, nil
}

// DecodeShoppingListCreate reads a POST body. Name is required; items may be
// omitted.
func DecodeShoppingListCreate(r io.Reader) (model.ShoppingListCreate, error) {
	var p shoppingListPayload
	if err := decode(r, &p); err != nil {
		return model.ShoppingListCreate{}, err
	}
	p.normalize()
	name, items, err := p.validate(true)
	if err != nil {
		return model.ShoppingListCreate{}, err
	}
	return model.ShoppingListCreate{Name: name.Value, Items: items.Value}, nil
}

// DecodeShoppingListUpdate reads a PUT (partial=false) or PATCH body. Both
// leave omitted fields untouched; PUT additionally requires name.
func DecodeShoppingListUpdate(r io.Reader, partial bool) (model.ShoppingListUpdate, error) {
	var p shoppingListPayload
	if err := decode(r, &p); err != nil {
		return model.ShoppingListUpdate{}, err
	}
	p.normalize()
	name, items, err := p.validate(!partial)
	if err != nil {
		return model.ShoppingListUpdate{}, err
	}
	return model.ShoppingListUpdate{Name: name, Items: items}, nil
}

type Item struct {
	ID        int64  `json:"id"`
	Item      string `json:"item"`
	Quantity  int    `json:"quantity"`
	Completed bool   `json:"completed"`
}

type ShoppingList struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	User      User      `json:"user"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewShoppingList(l *model.ShoppingList, owner *model.Account) ShoppingList {
	items := make([]Item, 0, len(l.Items))
	for _, it := range l.Items {
		items = append(items, Item{
			ID:        it.ID,
			Item:      it.Name,
			Quantity:  it.Quantity,
			Completed: it.Completed,
		})
	}
	return ShoppingList{
		ID:        l.ID,
		Name:      l.Name,
		User:      NewUser(owner),
		Items:     items,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

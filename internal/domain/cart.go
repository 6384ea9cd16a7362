package domain

import (
	"fmt"
	"math"
	"slices"

	apperrors "github.com/eduhaag/GoMarketplace/pkg/errors"
	"github.com/eduhaag/GoMarketplace/pkg/validator"
)

// LineItem is one product's presence in the cart.
type LineItem struct {
	ID       string  `json:"id" validate:"required"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"gte=1"`
}

// Product is a line item without quantity, the input of an add.
type Product struct {
	ID       string  `json:"id" validate:"required,max=128"`
	Title    string  `json:"title" validate:"max=256"`
	ImageURL string  `json:"image_url" validate:"max=2048"`
	Price    float64 `json:"price" validate:"gte=0"`
}

// Validate reports whether p can enter the cart.
func (p Product) Validate() error {
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		return apperrors.InvalidInput("price must be a finite number")
	}
	if err := validator.Validate(p); err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	return nil
}

// Collection is the ordered set of line items in a cart. Every mutating
// method returns a new Collection and leaves the receiver untouched, so a
// Collection handed out as a snapshot never changes underneath its holder.
type Collection []LineItem

// FindIndex returns the position of the item with the given id, or -1.
func (c Collection) FindIndex(id string) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy of c. The copy is never nil.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// Add puts p into the cart: an existing id is incremented, a new one is
// appended with quantity 1.
func (c Collection) Add(p Product) (Collection, bool) {
	if c.FindIndex(p.ID) >= 0 {
		return c.Increment(p.ID)
	}
	out := make(Collection, len(c), len(c)+1)
	copy(out, c)
	out = append(out, LineItem{
		ID:       p.ID,
		Title:    p.Title,
		ImageURL: p.ImageURL,
		Price:    p.Price,
		Quantity: 1,
	})
	return out, true
}

// Increment raises the quantity of id by one. An unknown id changes nothing.
func (c Collection) Increment(id string) (Collection, bool) {
	i := c.FindIndex(id)
	if i < 0 {
		return c, false
	}
	out := c.Clone()
	out[i].Quantity++
	return out, true
}

// Decrement lowers the quantity of id by one, removing the item when it
// reaches zero. An unknown id changes nothing.
func (c Collection) Decrement(id string) (Collection, bool) {
	i := c.FindIndex(id)
	if i < 0 {
		return c, false
	}
	out := c.Clone()
	if out[i].Quantity <= 1 {
		return slices.Delete(out, i, i+1), true
	}
	out[i].Quantity--
	return out, true
}

// ItemCount returns the total number of units across all line items.
func (c Collection) ItemCount() int {
	var n int
	for _, item := range c {
		n += item.Quantity
	}
	return n
}

// Validate checks the collection invariants: unique ids and every item
// individually valid.
func (c Collection) Validate() error {
	seen := make(map[string]struct{}, len(c))
	for i, item := range c {
		if err := validator.Validate(item); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("item %d: duplicate id %q", i, item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

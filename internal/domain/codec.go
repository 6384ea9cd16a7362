package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed marks persisted cart data that cannot be turned back into a
// valid Collection.
var ErrMalformed = errors.New("malformed cart data")

// storedItem mirrors LineItem with pointer fields so a missing field can be
// told apart from a zero value.
type storedItem struct {
	ID       *string  `json:"id"`
	Title    *string  `json:"title"`
	ImageURL *string  `json:"image_url"`
	Price    *float64 `json:"price"`
	Quantity *int     `json:"quantity"`
}

func (s storedItem) missing() string {
	switch {
	case s.ID == nil:
		return "id"
	case s.Title == nil:
		return "title"
	case s.ImageURL == nil:
		return "image_url"
	case s.Price == nil:
		return "price"
	case s.Quantity == nil:
		return "quantity"
	}
	return ""
}

// Encode serializes the full collection as a JSON array. An empty or nil
// collection encodes as "[]".
func Encode(c Collection) (string, error) {
	if c == nil {
		c = Collection{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode cart: %w", err)
	}
	return string(data), nil
}

// Decode parses a value written by Encode. Anything other than a JSON array
// of complete, valid line items with unique ids is reported as ErrMalformed.
func Decode(raw string) (Collection, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var stored []storedItem
	if err := dec.Decode(&stored); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after array", ErrMalformed)
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: expected array", ErrMalformed)
	}

	out := make(Collection, 0, len(stored))
	for i, s := range stored {
		if name := s.missing(); name != "" {
			return nil, fmt.Errorf("%w: item %d: missing field %q", ErrMalformed, i, name)
		}
		out = append(out, LineItem{
			ID:       *s.ID,
			Title:    *s.Title,
			ImageURL: *s.ImageURL,
			Price:    *s.Price,
			Quantity: *s.Quantity,
		})
	}

	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return out, nil
}

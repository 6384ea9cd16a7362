package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Fixture(t *testing.T) {
	got, err := Decode(`[{"id":"a","title":"T","image_url":"u","price":9.99,"quantity":2}]`)
	require.NoError(t, err)

	assert.Equal(t, Collection{{ID: "a", Title: "T", ImageURL: "u", Price: 9.99, Quantity: 2}}, got)
}

func TestEncode_RoundTrip(t *testing.T) {
	c := Collection{
		{ID: "a", Title: "T", ImageURL: "u", Price: 9.99, Quantity: 2},
		{ID: "b", Title: "", ImageURL: "", Price: 0, Quantity: 1},
	}

	raw, err := Encode(c)
	require.NoError(t, err)

	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestEncode_Empty(t *testing.T) {
	raw, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestEncode_FieldNames(t *testing.T) {
	raw, err := Encode(Collection{{ID: "a", Title: "T", ImageURL: "u", Price: 1.5, Quantity: 1}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","title":"T","image_url":"u","price":1.5,"quantity":1}]`, raw)
}

func TestDecode_Malformed(t *testing.T) {
	tests := map[string]string{
		"not json":        `{oops`,
		"object":          `{"id":"a"}`,
		"null":            `null`,
		"null item":       `[null]`,
		"trailing data":   `[] []`,
		"missing title":   `[{"id":"a","image_url":"u","price":1,"quantity":1}]`,
		"missing qty":     `[{"id":"a","title":"T","image_url":"u","price":1}]`,
		"unknown field":   `[{"id":"a","title":"T","image_url":"u","price":1,"quantity":1,"color":"red"}]`,
		"camel case key":  `[{"id":"a","title":"T","imageUrl":"u","price":1,"quantity":1}]`,
		"zero quantity":   `[{"id":"a","title":"T","image_url":"u","price":1,"quantity":0}]`,
		"float quantity":  `[{"id":"a","title":"T","image_url":"u","price":1,"quantity":1.5}]`,
		"string price":    `[{"id":"a","title":"T","image_url":"u","price":"1","quantity":1}]`,
		"empty id":        `[{"id":"","title":"T","image_url":"u","price":1,"quantity":1}]`,
		"duplicate ids":   `[{"id":"a","title":"T","image_url":"u","price":1,"quantity":1},{"id":"a","title":"T","image_url":"u","price":1,"quantity":1}]`,
		"negative price":  `[{"id":"a","title":"T","image_url":"u","price":-1,"quantity":1}]`,
		"empty string":    ``,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Decode(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Nil(t, got)
		})
	}
}

package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productBody struct {
	ID       string   `json:"id" validate:"required,max=128"`
	Title    string   `json:"title" validate:"required"`
	ImageURL string   `json:"image_url"`
	Price    *float64 `json:"price" validate:"required,gte=0"`
}

func price(v float64) *float64 { return &v }

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(productBody{ID: "x", Title: "Shoe", Price: price(50)}))
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	err := Validate(productBody{Title: "Shoe"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["id"])
	assert.Equal(t, "is required", fields["price"])
	assert.NotContains(t, fields, "ID")
}

func TestValidate_OutOfRange(t *testing.T) {
	err := Validate(productBody{ID: "x", Title: "Shoe", Price: price(-1)})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be greater than or equal to 0", valErr.Fields()["price"])
	assert.Contains(t, valErr.Error(), "field 'price'")
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"id":"x","title":"Shoe","image_url":"img","price":50}`, ""},
		{"malformed json", `{"id":`, "decode request body"},
		{"unknown field", `{"id":"x","title":"Shoe","price":1,"quantity":3}`, "unknown field"},
		{"missing title", `{"id":"x","price":1}`, "field 'title' is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst productBody
			err := DecodeAndValidate(req, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "x", dst.ID)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

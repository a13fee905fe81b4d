package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFound("office %s not found", "x"), http.StatusNotFound},
		{Forbidden("not allowed"), http.StatusForbidden},
		{Unauthorized("invalid token"), http.StatusUnauthorized},
		{Invalid("quantity must be positive"), http.StatusBadRequest},
		{InvalidState("transfer already closed"), http.StatusBadRequest},
		{Insufficient(5, 2), http.StatusBadRequest},
		{Conflict("item already exists"), http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "error: %v", tc.err)
	}
}

func TestHTTPStatusUnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("loading transfer: %w", NotFound("transfer not found"))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
	assert.True(t, IsKind(err, KindNotFound))
}

func TestIsKind(t *testing.T) {
	err := Forbidden("user may not confirm this transfer")
	assert.True(t, IsKind(err, KindForbidden))
	assert.False(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(errors.New("plain"), KindForbidden))
	assert.False(t, IsKind(nil, KindForbidden))
}

func TestInsufficientCarriesCounts(t *testing.T) {
	err := Insufficient(5, 2)
	assert.Equal(t, 5, err.Requested)
	assert.Equal(t, 2, err.Available)
	assert.Equal(t, "not enough available items. Requested: 5, Available: 2", err.Error())
}

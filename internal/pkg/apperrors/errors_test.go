package apperrors

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
		{Validation("cart is empty"), http.StatusBadRequest},
		{Policy("out of zone"), http.StatusBadRequest},
		{Upstream(errors.New("boom"), "provider failed"), http.StatusBadRequest},
		{NotFound("order not found"), http.StatusNotFound},
		{Auth("invalid token"), http.StatusUnauthorized},
		{Forbidden("admins only"), http.StatusForbidden},
		{Conflict("email taken"), http.StatusConflict},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestKindOf_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("create order: %w", NotFound("address %d not found", 3))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "address 3 not found", PublicMessage(err))
}

func TestPublicMessage_HidesInternal(t *testing.T) {
	assert.Equal(t, "internal server error", PublicMessage(errors.New("pq: password auth failed")))

	up := Upstream(errors.New("dial tcp: timeout"), "invalid payer email")
	assert.Equal(t, "invalid payer email", PublicMessage(up))
	assert.Contains(t, up.Error(), "dial tcp")
}

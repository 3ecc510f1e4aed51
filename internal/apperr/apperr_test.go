package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := New(Forbidden, "user %d is not a member", 7)

	assert.True(t, errors.Is(err, E(Forbidden)))
	assert.False(t, errors.Is(err, E(NotFound)))

	wrapped := fmt.Errorf("rename class: %w", err)
	assert.True(t, errors.Is(wrapped, E(Forbidden)))
	assert.Equal(t, Forbidden, KindOf(wrapped))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "EXPIRED", E(Expired).Error())
	assert.Equal(t, "NOT_FOUND: week 3", New(NotFound, "week %d", 3).Error())

	cause := errors.New("disk full")
	err := Wrap(Internal, cause, "save week")
	assert.Equal(t, "INTERNAL: save week: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		Unauthenticated:       http.StatusUnauthorized,
		Forbidden:             http.StatusForbidden,
		NotFound:              http.StatusNotFound,
		Expired:               http.StatusGone,
		InvalidTitle:          http.StatusBadRequest,
		InvalidRoleTransition: http.StatusConflict,
		ExtractionFailed:      http.StatusBadGateway,
		CodeGenerationFailed:  http.StatusInternalServerError,
		Internal:              http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), kind)
	}
}

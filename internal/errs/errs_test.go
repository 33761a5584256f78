package errs

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindInvalidTransition, http.StatusConflict},
		{KindConflict, http.StatusConflict},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		e := &AppError{Kind: tc.kind, Message: "x"}
		assert.Equal(t, tc.want, e.HTTPStatus(), string(tc.kind))
	}
}

func TestWrapPassesThroughAppError(t *testing.T) {
	orig := NewNotFound("ticket %d", 7)
	got := Wrap(orig, "ignored")
	assert.Same(t, orig, got)
}

func TestWrapClassifiesGenericError(t *testing.T) {
	got := Wrap(errors.New("boom"), "list tickets")
	assert.Equal(t, KindInternal, got.Kind)
	assert.ErrorIs(t, got, got.Cause)
}

func TestIs(t *testing.T) {
	err := NewConflict("duplicate link")
	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(err, KindNotFound))
	assert.False(t, Is(errors.New("plain"), KindConflict))
}

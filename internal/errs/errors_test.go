package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	plain := New(ErrKindInvalidInput, "query is required")
	assert.Equal(t, "[invalid_input] query is required", plain.Error())

	wrapped := Wrap(ErrKindTimeout, "ping failed", context.DeadlineExceeded)
	assert.Equal(t, "[timeout] ping failed: context deadline exceeded", wrapped.Error())
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", New(ErrKindNotFound, "x"), IsNotFound},
		{"timeout", New(ErrKindTimeout, "x"), IsTimeout},
		{"connection", New(ErrKindConnectionFailed, "x"), IsConnectionFailed},
		{"query", New(ErrKindQueryFailed, "x"), IsQueryFailed},
		{"invalid", New(ErrKindInvalidInput, "x"), IsInvalidInput},
		{"permission", New(ErrKindPermissionDenied, "x"), IsPermissionDenied},
		{"rate limited", New(ErrKindRateLimited, "x"), IsRateLimited},
		{"wrapped by fmt", fmt.Errorf("outer: %w", New(ErrKindNotFound, "x")), IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
		})
	}

	assert.False(t, IsNotFound(errors.New("plain")))
	assert.Equal(t, ErrKindUnknown, KindOf(nil))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(New(ErrKindInvalidInput, "x")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(New(ErrKindNotFound, "x")))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(New(ErrKindRateLimited, "x")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(New(ErrKindQueryFailed, "x")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "File is empty", Message(New(ErrKindInvalidInput, "File is empty")))
	assert.Equal(t, "query failed: boom", Message(Wrap(ErrKindQueryFailed, "query failed", errors.New("boom"))))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}

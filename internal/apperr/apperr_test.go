package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusHints(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:         http.StatusBadRequest,
		KindAlreadyExists:      http.StatusConflict,
		KindNotFound:           http.StatusNotFound,
		KindInvalidCredentials: http.StatusUnauthorized,
		KindInactiveAccount:    http.StatusForbidden,
		KindForbidden:          http.StatusForbidden,
		KindHashFailure:        http.StatusInternalServerError,
		KindRegistrationFailed: http.StatusInternalServerError,
		KindTokenMissing:       http.StatusUnauthorized,
		KindTokenInvalid:       http.StatusUnauthorized,
		KindRefreshMismatch:    http.StatusUnauthorized,
		KindInternal:           http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, New(kind, "boom").Status, "kind %s", kind)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindInternal, "store update failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "store update failed", MessageOf(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestForeignErrorsDefaultToInternal(t *testing.T) {
	err := errors.New("some driver error")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Equal(t, "internal server error", MessageOf(err))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", New(KindRefreshMismatch, "refresh token mismatch or expired"))
	assert.Equal(t, KindRefreshMismatch, KindOf(err))
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
}

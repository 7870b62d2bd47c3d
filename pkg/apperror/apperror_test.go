package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
)

func TestKindOfAndIsKind(t *testing.T) {
	err := apperror.New(apperror.KindNotFound, "item %d missing", 7)

	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	assert.False(t, apperror.IsKind(err, apperror.KindValidation))
	assert.Equal(t, "item 7 missing", err.Error())

	assert.Equal(t, apperror.KindUnknown, apperror.KindOf(errors.New("plain")))
	assert.Equal(t, apperror.KindUnknown, apperror.KindOf(nil))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := apperror.Wrap(apperror.KindTransaction, cause, "commit failed")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, apperror.KindTransaction, apperror.KindOf(err))
	assert.Equal(t, "commit failed: disk full", err.Error())

	assert.Nil(t, apperror.Wrap(apperror.KindTransaction, nil, "noop"))
}

func TestOuterKindShadowsInner(t *testing.T) {
	inner := apperror.New(apperror.KindAudit, "audit log write failed")
	outer := apperror.Wrap(apperror.KindTransaction, inner, "commit failed")

	assert.Equal(t, apperror.KindTransaction, apperror.KindOf(outer))
	assert.True(t, apperror.IsKind(outer, apperror.KindTransaction))
	assert.False(t, apperror.IsKind(outer, apperror.KindAudit))
}

func TestKindSurvivesFmtWrapping(t *testing.T) {
	inner := apperror.New(apperror.KindInvalidState, "already resolved")
	outer := fmt.Errorf("processing: %w", inner)

	assert.Equal(t, apperror.KindInvalidState, apperror.KindOf(outer))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind apperror.Kind
		want int
	}{
		{apperror.KindNotFound, http.StatusNotFound},
		{apperror.KindInvalidState, http.StatusConflict},
		{apperror.KindUnauthorized, http.StatusForbidden},
		{apperror.KindValidation, http.StatusBadRequest},
		{apperror.KindTransaction, http.StatusInternalServerError},
		{apperror.KindAudit, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, apperror.HTTPStatus(apperror.New(tt.kind, "x")))
		})
	}

	assert.Equal(t, http.StatusInternalServerError, apperror.HTTPStatus(errors.New("plain")))
}

package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"superservice/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectNotFoundError(t *testing.T) {
	t.Run("NewObjectNotFoundError", func(t *testing.T) {
		err := errs.NewObjectNotFoundError("orderID", "123")

		assert.Equal(t, "orderID", err.ParamName)
		assert.Equal(t, "123", err.ID)
		require.NoError(t, err.Cause)
		assert.Equal(t, "object not found: 123", err.Error())
		assert.Equal(t, errs.ErrObjectNotFound, err.Unwrap())
	})

	t.Run("NewObjectNotFoundErrorWithCause", func(t *testing.T) {
		cause := errors.New("record not found")
		err := errs.NewObjectNotFoundErrorWithCause("tripID", "123", cause)

		assert.Equal(t, cause, err.Cause)
		assert.Equal(t,
			"object not found: param is: tripID, ID is: 123 (cause: record not found)",
			err.Error())
	})
}

func TestValidationErrors(t *testing.T) {
	t.Run("ValueIsInvalid", func(t *testing.T) {
		err := errs.NewValueIsInvalidError("roomKey")
		assert.Equal(t, "value is invalid: roomKey", err.Error())
		assert.Equal(t, errs.ErrValueIsInvalid, err.Unwrap())

		withCause := errs.NewValueIsInvalidErrorWithCause("frame", errors.New("unexpected EOF"))
		assert.Equal(t, "value is invalid: frame (cause: unexpected EOF)", withCause.Error())
	})

	t.Run("ValueIsOutOfRange", func(t *testing.T) {
		err := errs.NewValueIsOutOfRangeError("latitude", 91.5, -90, 90)
		assert.Equal(t, "value is invalid: 91.5 is latitude, min value is -90, max value is 90", err.Error())
		assert.Equal(t, errs.ErrValueIsOutOfRange, err.Unwrap())

		withCause := errs.NewValueIsOutOfRangeErrorWithCause("limit", -5, 1, 200, errors.New("negative"))
		assert.Equal(t,
			"value is invalid: -5 is limit, min value is 1, max value is 200 (cause: negative)",
			withCause.Error())
	})

	t.Run("ValueIsOutOfRange sanitizes newlines", func(t *testing.T) {
		err := errs.NewValueIsOutOfRangeError("body", "hello\nworld", 1, 10)
		assert.Contains(t, err.Error(), "hello world")
		assert.NotContains(t, err.Error(), "\n")
	})

	t.Run("ValueIsRequired", func(t *testing.T) {
		err := errs.NewValueIsRequiredError("message")
		assert.Equal(t, "value is required: message", err.Error())
		assert.Equal(t, errs.ErrValueIsRequired, err.Unwrap())
	})

	t.Run("IsValidation", func(t *testing.T) {
		assert.True(t, errs.IsValidation(errs.NewValueIsRequiredError("message")))
		assert.True(t, errs.IsValidation(errs.NewValueIsInvalidError("frame")))
		assert.True(t, errs.IsValidation(fmt.Errorf("wrapped: %w", errs.NewValueIsOutOfRangeError("n", 0, 1, 2))))
		assert.False(t, errs.IsValidation(errs.NewObjectNotFoundError("id", "1")))
	})
}

func TestAccessErrors(t *testing.T) {
	t.Run("Unauthenticated", func(t *testing.T) {
		err := errs.NewUnauthenticatedError("missing token")
		assert.Equal(t, "unauthenticated: missing token", err.Error())
		require.ErrorIs(t, err, errs.ErrUnauthenticated)

		withCause := errs.NewUnauthenticatedErrorWithCause("bad token", errors.New("signature is invalid"))
		assert.Equal(t, "unauthenticated: bad token (cause: signature is invalid)", withCause.Error())
	})

	t.Run("Forbidden", func(t *testing.T) {
		err := errs.NewForbiddenError("u1", "order.mark_ready", "role customer not permitted")
		assert.Equal(t, "forbidden: actor u1 may not order.mark_ready: role customer not permitted", err.Error())
		require.ErrorIs(t, err, errs.ErrForbidden)
	})
}

func TestStateConflictError(t *testing.T) {
	err := errs.NewStateConflictError("order", "deliver", "pending", "event not allowed from current status")

	assert.Equal(t,
		"state conflict: cannot deliver order in status pending: event not allowed from current status",
		err.Error())
	require.ErrorIs(t, err, errs.ErrStateConflict)
}

func TestPersistenceError(t *testing.T) {
	cause := errors.New("connection refused")
	err := errs.NewPersistenceError("append message", cause)

	assert.Equal(t, "persistence failure: append message (cause: connection refused)", err.Error())
	require.ErrorIs(t, err, errs.ErrPersistence)
	require.ErrorIs(t, err, cause)

	bare := errs.NewPersistenceError("commit", nil)
	assert.Equal(t, "persistence failure: commit", bare.Error())
	require.ErrorIs(t, bare, errs.ErrPersistence)
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not found", errs.NewObjectNotFoundError("id", "1"), errs.KindNotFound},
		{"validation", errs.NewValueIsRequiredError("message"), errs.KindValidation},
		{"unauthenticated", errs.NewUnauthenticatedError("x"), errs.KindUnauthenticated},
		{"forbidden", errs.NewForbiddenError("a", "b", "c"), errs.KindForbidden},
		{"state conflict", errs.NewStateConflictError("trip", "accept", "completed", "x"), errs.KindStateConflict},
		{"persistence", errs.NewPersistenceError("op", errors.New("boom")), errs.KindPersistence},
		{"wrapped", fmt.Errorf("handler: %w", errs.NewForbiddenError("a", "b", "c")), errs.KindForbidden},
		{"unknown", errors.New("boom"), errs.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errs.Kind(tt.err))
		})
	}
}

func TestSentinelErrors(t *testing.T) {
	assert.Equal(t, "object not found", errs.ErrObjectNotFound.Error())
	assert.Equal(t, "value is invalid", errs.ErrValueIsInvalid.Error())
	assert.Equal(t, "value is out of range", errs.ErrValueIsOutOfRange.Error())
	assert.Equal(t, "value is required", errs.ErrValueIsRequired.Error())
	assert.Equal(t, "unauthenticated", errs.ErrUnauthenticated.Error())
	assert.Equal(t, "forbidden", errs.ErrForbidden.Error())
	assert.Equal(t, "state conflict", errs.ErrStateConflict.Error())
	assert.Equal(t, "persistence failure", errs.ErrPersistence.Error())
}

package order_test

import (
	"testing"

	"superservice/internal/core/domain/model/order"
	"superservice/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_String(t *testing.T) {
	tests := map[order.Status]string{
		order.Pending:   "pending",
		order.Preparing: "preparing",
		order.Ready:     "ready",
		order.EnRoute:   "en_route",
		order.Delivered: "delivered",
		order.Cancelled: "cancelled",
		order.Unknown:   "unknown",
		order.Status(99): "unknown",
	}
	for st, want := range tests {
		assert.Equal(t, want, st.String())
	}
}

func TestParseStatus(t *testing.T) {
	for _, st := range []order.Status{order.Pending, order.Preparing, order.Ready, order.EnRoute, order.Delivered, order.Cancelled} {
		parsed, err := order.ParseStatus(st.String())
		require.NoError(t, err)
		assert.Equal(t, st, parsed)
	}

	_, err := order.ParseStatus("assigned")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestStatus_Validate(t *testing.T) {
	require.NoError(t, order.Ready.Validate())

	err := order.Unknown.Validate()
	require.Error(t, err)
	assert.IsType(t, &errs.ValueIsInvalidError{}, err)
	assert.Contains(t, err.Error(), "0 is not a valid status")
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, order.Delivered.IsTerminal())
	assert.True(t, order.Cancelled.IsTerminal())
	assert.False(t, order.Pending.IsTerminal())
	assert.False(t, order.EnRoute.IsTerminal())
}

func TestStatus_ValidateCanHaveCourier(t *testing.T) {
	require.NoError(t, order.Pending.ValidateCanHaveCourier(false))
	require.Error(t, order.Pending.ValidateCanHaveCourier(true))
	require.NoError(t, order.Preparing.ValidateCanHaveCourier(true))
	require.Error(t, order.Delivered.ValidateCanHaveCourier(false))
	require.NoError(t, order.Cancelled.ValidateCanHaveCourier(false))
	require.NoError(t, order.Cancelled.ValidateCanHaveCourier(true))
}

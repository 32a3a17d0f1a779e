package errorx

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	require.Equal(t, http.StatusOK, HTTPStatus(nil))
	require.Equal(t, http.StatusNotFound, HTTPStatus(Of(NotFound)))
	require.Equal(t, http.StatusForbidden, HTTPStatus(Of(Disabled)))
	require.Equal(t, http.StatusGone, HTTPStatus(Of(Expired)))
	require.Equal(t, http.StatusConflict, HTTPStatus(Of(AlreadyRedeemed)))
	require.Equal(t, http.StatusLocked, HTTPStatus(Of(SystemOff)))
	require.Equal(t, http.StatusRequestTimeout, HTTPStatus(Of(Timeout)))
	require.Equal(t, http.StatusBadRequest, HTTPStatus(Of(NoActivePrizes)))
	require.Equal(t, http.StatusInternalServerError, HTTPStatus(Unknown))
	require.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("raw")))
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Of(Exhausted))
	require.True(t, Is(err, Exhausted))
	require.False(t, Is(err, Expired))
	require.Equal(t, "EXHAUSTED", Reason(CodeOf(err)))
	require.Equal(t, "INTERNAL", Reason(CodeOf(fmt.Errorf("raw"))))
}

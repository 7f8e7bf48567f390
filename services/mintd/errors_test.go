package mintd

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/0xhanvalen/skaterbirds-nft/native/mint"
)

func TestClassifyWrappedErrors(t *testing.T) {
	_, parseErr := mint.ParseWei("0.125")
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{parseErr, http.StatusUnprocessableEntity, "invalid_amount"},
		{fmt.Errorf("%w: %w", mint.ErrTransferFailed, mint.ErrPayeeNotConfigured), http.StatusBadGateway, "transfer_failed"},
		{fmt.Errorf("withdrawal: %w: receipt timeout", mint.ErrTransferUnconfirmed), http.StatusGatewayTimeout, "transfer_unconfirmed"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		status, code := classify(tc.err)
		require.Equal(t, tc.status, status, tc.err.Error())
		require.Equal(t, tc.code, code, tc.err.Error())
	}
}

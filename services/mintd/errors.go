package mintd

import (
	"context"
	"errors"
	"net/http"

	"github.com/0xhanvalen/skaterbirds-nft/native/mint"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorTable maps ledger sentinels to HTTP statuses. The first matching entry
// wins, so wrapped causes listed later never shadow their wrapper.
var errorTable = []errorMapping{
	{mint.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{mint.ErrSaleNotActive, http.StatusConflict, "sale_not_active"},
	{mint.ErrWithdrawalInProgress, http.StatusConflict, "withdrawal_in_progress"},
	{mint.ErrOwnershipFixed, http.StatusConflict, "ownership_fixed"},
	{mint.ErrQuantityExceedsLimit, http.StatusUnprocessableEntity, "quantity_exceeds_limit"},
	{mint.ErrInsufficientPayment, http.StatusUnprocessableEntity, "insufficient_payment"},
	{mint.ErrInvalidQuantity, http.StatusUnprocessableEntity, "invalid_quantity"},
	{mint.ErrInvalidAmount, http.StatusUnprocessableEntity, "invalid_amount"},
	{mint.ErrInvalidOwner, http.StatusUnprocessableEntity, "invalid_owner"},
	{mint.ErrOverflow, http.StatusUnprocessableEntity, "overflow"},
	{mint.ErrSupplyExhausted, http.StatusGone, "supply_exhausted"},
	{mint.ErrWalletLimitExceeded, http.StatusGone, "wallet_limit_exceeded"},
	{mint.ErrTransferFailed, http.StatusBadGateway, "transfer_failed"},
	{mint.ErrTransferUnconfirmed, http.StatusGatewayTimeout, "transfer_unconfirmed"},
	{mint.ErrTokenNotFound, http.StatusNotFound, "token_not_found"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
	{context.Canceled, http.StatusRequestTimeout, "canceled"},
}

// classify returns the HTTP status and stable code for err.
func classify(err error) (int, string) {
	for _, entry := range errorTable {
		if errors.Is(err, entry.err) {
			return entry.status, entry.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

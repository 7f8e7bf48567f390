package mint

import "errors"

// Sentinel errors surfaced by the mint engine. Callers match with errors.Is.
var (
	ErrNilState             = errors.New("mint engine: state not configured")
	ErrUnauthorized         = errors.New("mint engine: not owner")
	ErrSaleNotActive        = errors.New("mint engine: not minting")
	ErrQuantityExceedsLimit = errors.New("mint engine: too many mints")
	ErrInsufficientPayment  = errors.New("mint engine: not enough funds")
	ErrSupplyExhausted      = errors.New("mint engine: sold out")
	ErrWalletLimitExceeded  = errors.New("mint engine: wallet limit reached")
	ErrInvalidQuantity      = errors.New("mint engine: quantity must be at least 1")
	ErrInvalidAmount        = errors.New("mint engine: amount must not be negative")
	ErrOverflow             = errors.New("mint engine: arithmetic overflow")
	ErrTransferFailed       = errors.New("mint engine: transfer failed")
	ErrPayeeNotConfigured   = errors.New("mint engine: payee not configured")
	ErrWithdrawalInProgress = errors.New("mint engine: withdrawal already in progress")
	ErrOwnershipFixed       = errors.New("mint engine: ownership transfer disabled")
	ErrInvalidOwner         = errors.New("mint engine: owner must be a non-zero address")
	ErrTokenNotFound        = errors.New("mint engine: token not minted")
	ErrInvalidParams        = errors.New("mint engine: invalid params")

	// ErrTransferUnconfirmed is wrapped by payees whose transfer left the
	// treasury but could not be confirmed. The amount is not credited back.
	ErrTransferUnconfirmed = errors.New("mint engine: transfer sent but unconfirmed")
)

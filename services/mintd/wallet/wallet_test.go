package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/0xhanvalen/skaterbirds-nft/native/mint"
)

func TestUnconfiguredWalletFails(t *testing.T) {
	_, err := Unconfigured().Transfer(context.Background(), [20]byte{1}, big.NewInt(1))
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = Payee{}.Transfer(context.Background(), [20]byte{1}, big.NewInt(1))
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestPayeeWaitsForConfirmations(t *testing.T) {
	var confirmed string
	w := FuncWallet{
		TransferFunc: func(_ context.Context, to [20]byte, amount *big.Int) (string, error) {
			require.Equal(t, [20]byte{7}, to)
			return "tx-1", nil
		},
		ConfirmFunc: func(_ context.Context, reference string, confirmations int, poll time.Duration) error {
			require.Equal(t, 2, confirmations)
			require.Equal(t, time.Second, poll)
			confirmed = reference
			return nil
		},
	}
	ref, err := Payee{Wallet: w, Confirmations: 2, PollInterval: time.Second}.Transfer(context.Background(), [20]byte{7}, big.NewInt(5))
	require.NoError(t, err)
	require.Equal(t, "tx-1", ref)
	require.Equal(t, "tx-1", confirmed)
}

func TestPayeeConfirmationFailure(t *testing.T) {
	w := FuncWallet{
		TransferFunc: func(context.Context, [20]byte, *big.Int) (string, error) { return "tx-2", nil },
		ConfirmFunc: func(context.Context, string, int, time.Duration) error {
			return errors.New("reorged")
		},
	}
	ref, err := Payee{Wallet: w, Confirmations: 1}.Transfer(context.Background(), [20]byte{7}, big.NewInt(5))
	require.ErrorContains(t, err, "reorged")
	require.ErrorIs(t, err, mint.ErrTransferUnconfirmed)
	require.Equal(t, "tx-2", ref)
}

type stubTransferer struct{ calls int }

func (s *stubTransferer) Transfer(context.Context, [20]byte, *big.Int) (string, error) {
	s.calls++
	return "bank-ref", nil
}

func TestFromTransferer(t *testing.T) {
	stub := &stubTransferer{}
	ref, err := Payee{Wallet: FromTransferer(stub), Confirmations: 3}.Transfer(context.Background(), [20]byte{1}, big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, "bank-ref", ref)
	require.Equal(t, 1, stub.calls)
}

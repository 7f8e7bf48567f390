package state

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/0xhanvalen/skaterbirds-nft/core/types"
	"github.com/0xhanvalen/skaterbirds-nft/native/bank"
	"github.com/0xhanvalen/skaterbirds-nft/native/mint"
	"github.com/0xhanvalen/skaterbirds-nft/storage"
)

var (
	ownerAddr = [20]byte{0x0a}
	buyerAddr = [20]byte{0x0b}
)

var persistentBackends = []string{storage.BackendLevelDB, storage.BackendBolt, storage.BackendSQLite}

func TestKVRoundTrip(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())

	var missing uint64
	ok, err := mgr.KVGet([]byte("absent"), &missing)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mgr.KVPut([]byte("answer"), uint64(42)))
	var got uint64
	ok, err = mgr.KVGet([]byte("answer"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(42), got)

	require.Error(t, mgr.KVPut(nil, uint64(1)))
}

func TestEnsureSchemaStampsFreshStore(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	require.NoError(t, mgr.EnsureSchema("SkaterBirds", false))
	stamp, ok, err := mgr.Schema()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, SchemaVersion, stamp.Version)
	require.Equal(t, "SkaterBirds", stamp.Collection)

	require.NoError(t, mgr.EnsureSchema("SkaterBirds", false))
	require.ErrorIs(t, mgr.EnsureSchema("OtherBirds", true), ErrCollectionMismatch)
	require.Error(t, mgr.EnsureSchema(" ", false))
}

func TestEnsureSchemaVersionMismatch(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	require.NoError(t, mgr.putSchema(Schema{Version: SchemaVersion + 1, Collection: "SkaterBirds"}))
	require.ErrorIs(t, mgr.EnsureSchema("SkaterBirds", false), ErrSchemaMismatch)

	require.NoError(t, mgr.EnsureSchema("SkaterBirds", true))
	stamp, _, err := mgr.Schema()
	require.NoError(t, err)
	require.Equal(t, SchemaVersion, stamp.Version)
}

func TestMintCommitWritesAllRecords(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	ledger := &mint.Ledger{
		Owner:       ownerAddr,
		PublicSale:  true,
		Issued:      2,
		NextTokenID: 3,
		Treasury:    big.NewInt(250),
		UpdatedAt:   10,
	}
	holder := &mint.Holder{Address: buyerAddr, Minted: 2, FirstMintAt: 10, LastMintAt: 10}
	require.NoError(t, mgr.MintCommit(&mint.Commit{Ledger: ledger, Holder: holder, Tokens: []uint64{1, 2}}))

	loaded, ok, err := mgr.MintLedgerGet()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ownerAddr, loaded.Owner)
	require.True(t, loaded.PublicSale)
	require.Equal(t, uint64(2), loaded.Issued)
	require.Equal(t, 0, loaded.Treasury.Cmp(big.NewInt(250)))
	require.Equal(t, 0, loaded.Withdrawn.Sign())

	gotHolder, ok, err := mgr.MintHolderGet(buyerAddr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, *holder, *gotHolder)

	for _, id := range []uint64{1, 2} {
		owner, ok, err := mgr.MintTokenOwnerGet(id)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, buyerAddr, owner)
	}
	_, ok, err = mgr.MintTokenOwnerGet(3)
	require.NoError(t, err)
	require.False(t, ok)

	require.Error(t, mgr.MintCommit(&mint.Commit{Tokens: []uint64{9}}))
}

func TestBankAccounts(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	_, ok, err := mgr.BankAccountGet(ownerAddr)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mgr.BankAccountPut(ownerAddr, &types.Account{Balance: big.NewInt(7), RejectDeposits: true}))
	account, ok, err := mgr.BankAccountGet(ownerAddr)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, account.RejectDeposits)
	require.Equal(t, 0, account.Balance.Cmp(big.NewInt(7)))

	require.Error(t, mgr.BankAccountPut(ownerAddr, &types.Account{Balance: big.NewInt(-1)}))
}

func TestLedgerSurvivesReopen(t *testing.T) {
	for _, backend := range persistentBackends {
		backend := backend
		t.Run(backend, func(t *testing.T) {
			dir := t.TempDir()
			price, err := mint.ParseAmount("0.375")
			require.NoError(t, err)

			db, err := storage.Open(backend, dir)
			require.NoError(t, err)
			mgr := NewManager(db)
			engine, err := mint.NewEngine(mint.DefaultParams(ownerAddr), mgr)
			require.NoError(t, err)
			require.NoError(t, engine.SetPublicSale(ownerAddr, true))
			receipt, err := engine.Purchase(buyerAddr, 3, price)
			require.NoError(t, err)
			require.Equal(t, uint64(1), receipt.FirstTokenID)
			db.Close()

			db, err = storage.Open(backend, dir)
			require.NoError(t, err)
			defer db.Close()
			mgr = NewManager(db)
			engine, err = mint.NewEngine(mint.DefaultParams(ownerAddr), mgr)
			require.NoError(t, err)

			ledger, err := engine.Ledger()
			require.NoError(t, err)
			require.True(t, ledger.PublicSale)
			require.Equal(t, uint64(3), ledger.Issued)
			require.Equal(t, 0, ledger.Treasury.Cmp(price))
			balance, err := engine.BalanceOf(buyerAddr)
			require.NoError(t, err)
			require.Equal(t, uint64(3), balance)
			owner, err := engine.OwnerOf(3)
			require.NoError(t, err)
			require.Equal(t, buyerAddr, owner)

			payee := bank.New(mgr)
			engine.SetPayee(payee)
			_, err = engine.Withdraw(context.Background(), ownerAddr)
			require.NoError(t, err)
			funds, err := payee.BalanceOf(ownerAddr)
			require.NoError(t, err)
			require.Equal(t, 0, funds.Cmp(price))
		})
	}
}

package mintd

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/0xhanvalen/skaterbirds-nft/core/events"
	"github.com/0xhanvalen/skaterbirds-nft/core/state"
	"github.com/0xhanvalen/skaterbirds-nft/crypto"
	"github.com/0xhanvalen/skaterbirds-nft/native/bank"
	"github.com/0xhanvalen/skaterbirds-nft/native/mint"
	"github.com/0xhanvalen/skaterbirds-nft/services/mintd/wallet"
	"github.com/0xhanvalen/skaterbirds-nft/storage"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var (
	testOwner  = [20]byte{0xaa, 0x01}
	testBuyer  = [20]byte{0xbb, 0x02}
	testBuyer2 = [20]byte{0xcc, 0x03}
)

type testEnv struct {
	engine  *mint.Engine
	bank    *bank.Bank
	audit   *AuditLog
	feed    *events.Feed
	server  *Server
	handler http.Handler
}

func newTestAuditLog(t *testing.T) *AuditLog {
	t.Helper()
	db, err := OpenAuditDB(AuditConfig{
		Driver: AuditDriverSQLite,
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	log, err := NewAuditLog(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return log
}

func newTestEnv(t *testing.T, mutate func(*mint.Params)) *testEnv {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	params := mint.DefaultParams(testOwner)
	if mutate != nil {
		mutate(&params)
	}
	engine, err := mint.NewEngine(params, manager)
	require.NoError(t, err)

	audit := newTestAuditLog(t)
	feed := events.NewFeed(16)
	emitter := events.MultiEmitter{audit, feed}
	engine.SetEmitter(emitter)

	ledgerBank := bank.New(manager)
	ledgerBank.SetEmitter(emitter)
	engine.SetPayee(wallet.Payee{Wallet: wallet.FromTransferer(ledgerBank)})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auth, err := NewAuthenticator(AuthConfig{Secret: testSecret}, logger)
	require.NoError(t, err)
	srv := NewServer(NewService(engine, WithLogger(logger)), ServerOptions{
		Auth:               auth,
		Limiter:            NewRateLimiter(RateLimitConfig{RequestsPerMinute: 600, Burst: 100}),
		Feed:               feed,
		StreamWriteTimeout: time.Second,
		Audit:              audit,
		Logger:             logger,
	})
	return &testEnv{
		engine:  engine,
		bank:    ledgerBank,
		audit:   audit,
		feed:    feed,
		server:  srv,
		handler: srv.Handler(),
	}
}

func tokenFor(t *testing.T, addr [20]byte) string {
	t.Helper()
	token, err := IssueToken(testSecret, crypto.FormatAddress(addr), "", "", time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path string, caller *[20]byte, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if caller != nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, *caller))
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func wei(t *testing.T, amount string) string {
	t.Helper()
	value, err := mint.ParseAmount(amount)
	require.NoError(t, err)
	return value.String()
}

func weiInt(t *testing.T, amount string) *big.Int {
	t.Helper()
	value, err := mint.ParseAmount(amount)
	require.NoError(t, err)
	return value
}

package mintd

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/0xhanvalen/skaterbirds-nft/core/events"
	"github.com/0xhanvalen/skaterbirds-nft/crypto"
	"github.com/0xhanvalen/skaterbirds-nft/native/mint"
	"github.com/0xhanvalen/skaterbirds-nft/observability"
)

const maxBodyBytes = 1 << 16

// ServerOptions captures the collaborators of the HTTP API.
type ServerOptions struct {
	Auth               *Authenticator
	Limiter            *RateLimiter
	Feed               *events.Feed
	StreamWriteTimeout time.Duration
	Audit              *AuditLog
	Logger             *slog.Logger
}

// Server exposes the mint ledger over HTTP.
type Server struct {
	service *Service
	auth    *Authenticator
	limiter *RateLimiter
	stream  *eventStream
	audit   *AuditLog
	logger  *slog.Logger

	router http.Handler
}

// NewServer constructs the router. Auth is required; the limiter, feed and
// audit log are optional.
func NewServer(service *Service, opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		service: service,
		auth:    opts.Auth,
		limiter: opts.Limiter,
		audit:   opts.Audit,
		logger:  logger,
	}
	if opts.Feed != nil {
		srv.stream = &eventStream{feed: opts.Feed, writeTimeout: opts.StreamWriteTimeout}
	}
	srv.router = srv.buildRouter()
	return srv
}

// Handler exposes the configured HTTP router wrapped with tracing.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "mintd")
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(observeRequests)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(api chi.Router) {
		api.Get("/name", s.handleName)
		api.Get("/ledger", s.handleLedger)
		api.Get("/quote", s.handleQuote)
		api.Get("/holders/{address}", s.handleHolder)
		api.Get("/tokens/{id}", s.handleToken)
		api.Get("/events", s.handleEvents)

		api.Group(func(protected chi.Router) {
			protected.Use(s.requireAuth)
			protected.Use(limitBody)
			protected.Post("/sale", s.handleSale)
			protected.With(s.rateLimit("/v1/mint")).Post("/mint", s.handleMint)
			protected.Post("/withdraw", s.handleWithdraw)
			protected.Post("/owner", s.handleOwner)
			protected.Get("/audit", s.handleAudit)
		})
	})
	return r
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	if s.auth == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusInternalServerError, "internal", "authentication unavailable")
		})
	}
	return s.auth.Middleware(next)
}

func (s *Server) rateLimit(route string) func(http.Handler) http.Handler {
	if s.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.limiter.Middleware(route)
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

func observeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.HTTP().Observe(route, r.Method, status, time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleName(w http.ResponseWriter, _ *http.Request) {
	engine := s.service.Engine()
	writeJSON(w, http.StatusOK, map[string]string{"name": engine.Name(), "symbol": engine.Symbol()})
}

type ledgerResponse struct {
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Owner        string `json:"owner"`
	PublicSale   bool   `json:"publicSale"`
	Issued       uint64 `json:"issued"`
	SupplyCap    uint64 `json:"supplyCap"`
	Remaining    uint64 `json:"remaining"`
	MaxPerCall   uint64 `json:"maxPerCall"`
	MaxPerWallet uint64 `json:"maxPerWallet"`
	UnitPriceWei string `json:"unitPriceWei"`
	UnitPrice    string `json:"unitPrice"`
	TreasuryWei  string `json:"treasuryWei"`
	Treasury     string `json:"treasury"`
	WithdrawnWei string `json:"withdrawnWei"`
	NextTokenID  uint64 `json:"nextTokenId"`
	UpdatedAt    uint64 `json:"updatedAt"`
}

func (s *Server) handleLedger(w http.ResponseWriter, _ *http.Request) {
	engine := s.service.Engine()
	ledger, err := engine.Ledger()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	params := engine.Params()
	remaining := uint64(0)
	if ledger.Issued < params.SupplyCap {
		remaining = params.SupplyCap - ledger.Issued
	}
	writeJSON(w, http.StatusOK, ledgerResponse{
		Name:         params.Name,
		Symbol:       params.Symbol,
		Owner:        crypto.FormatAddress(ledger.Owner),
		PublicSale:   ledger.PublicSale,
		Issued:       ledger.Issued,
		SupplyCap:    params.SupplyCap,
		Remaining:    remaining,
		MaxPerCall:   params.MaxPerCall,
		MaxPerWallet: params.MaxPerWallet,
		UnitPriceWei: params.UnitPrice.String(),
		UnitPrice:    mint.FormatAmount(params.UnitPrice),
		TreasuryWei:  ledger.Treasury.String(),
		Treasury:     mint.FormatAmount(ledger.Treasury),
		WithdrawnWei: ledger.Withdrawn.String(),
		NextTokenID:  ledger.NextTokenID,
		UpdatedAt:    ledger.UpdatedAt,
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	quantity, err := strconv.ParseUint(strings.TrimSpace(r.URL.Query().Get("quantity")), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be a positive integer")
		return
	}
	price, err := s.service.Engine().Quote(quantity)
	if err != nil {
		_, code := classify(err)
		writeError(w, http.StatusBadRequest, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"quantity":    quantity,
		"requiredWei": price.String(),
		"required":    mint.FormatAmount(price),
	})
}

func (s *Server) handleHolder(w http.ResponseWriter, r *http.Request) {
	addr, err := crypto.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_address", err.Error())
		return
	}
	minted, err := s.service.Engine().BalanceOf(addr)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"address": crypto.FormatAddress(addr), "minted": minted})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_token_id", "token id must be an integer")
		return
	}
	owner, err := s.service.Engine().OwnerOf(id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tokenId": id, "owner": crypto.FormatAddress(owner)})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.stream.handle(w, r)
}

type saleRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleSale(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "missing caller")
		return
	}
	var req saleRequest
	if err := decodeJSON(r, &req); err != nil || req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "enabled is required")
		return
	}
	if err := s.service.SetPublicSale(r.Context(), caller, *req.Enabled); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"publicSale": *req.Enabled})
}

type mintRequest struct {
	Quantity uint64 `json:"quantity"`
	// Value is the attached payment in wei.
	Value string `json:"value"`
}

type receiptResponse struct {
	Buyer        string `json:"buyer"`
	Quantity     uint64 `json:"quantity"`
	FirstTokenID uint64 `json:"firstTokenId"`
	LastTokenID  uint64 `json:"lastTokenId"`
	PaidWei      string `json:"paidWei"`
	RequiredWei  string `json:"requiredWei"`
	Issued       uint64 `json:"issued"`
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "missing caller")
		return
	}
	var req mintRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid payload")
		return
	}
	value, err := mint.ParseWei(req.Value)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	receipt, err := s.service.Purchase(r.Context(), caller, req.Quantity, value)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receiptResponse{
		Buyer:        crypto.FormatAddress(receipt.Buyer),
		Quantity:     receipt.Quantity,
		FirstTokenID: receipt.FirstTokenID,
		LastTokenID:  receipt.LastTokenID,
		PaidWei:      receipt.Paid.String(),
		RequiredWei:  receipt.Required.String(),
		Issued:       receipt.Issued,
	})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "missing caller")
		return
	}
	result, err := s.service.Withdraw(r.Context(), caller)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"owner":     crypto.FormatAddress(result.Owner),
		"amountWei": result.Amount.String(),
		"amount":    mint.FormatAmount(result.Amount),
		"reference": result.Reference,
	})
}

type ownerRequest struct {
	Owner string `json:"owner"`
}

func (s *Server) handleOwner(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "missing caller")
		return
	}
	var req ownerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid payload")
		return
	}
	next, err := crypto.ParseAddress(req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_address", err.Error())
		return
	}
	if err := s.service.TransferOwnership(r.Context(), caller, next); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"owner": crypto.FormatAddress(next)})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "missing caller")
		return
	}
	if !s.service.Engine().IsOwner(caller) {
		s.writeEngineError(w, mint.ErrUnauthorized)
		return
	}
	if s.audit == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "audit log unavailable")
		return
	}
	limit := 100
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	records, err := s.audit.List(r.Context(), limit)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	verifyErr := s.audit.Verify(r.Context())
	if verifyErr != nil && !errors.Is(verifyErr, ErrAuditChainBroken) {
		s.writeEngineError(w, verifyErr)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records, "verified": verifyErr == nil})
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("error", err.Error()))
		message = "internal error"
	}
	writeError(w, status, code, message)
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}

package mintd

import (
	"context"
	"errors"
	"log/slog"
	"math/big"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/0xhanvalen/skaterbirds-nft/crypto"
	"github.com/0xhanvalen/skaterbirds-nft/native/mint"
	"github.com/0xhanvalen/skaterbirds-nft/observability"
	telemetry "github.com/0xhanvalen/skaterbirds-nft/observability/otel"
)

// Service wraps the mint engine with tracing, metrics and logging.
type Service struct {
	engine  *mint.Engine
	metrics *observability.MintMetrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// ServiceOption customises the service instance.
type ServiceOption func(*Service)

// WithMetrics overrides the default metrics registry.
func WithMetrics(m *observability.MintMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithTracer overrides the tracer used for engine spans.
func WithTracer(t trace.Tracer) ServiceOption {
	return func(s *Service) { s.tracer = t }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService constructs a service around engine.
func NewService(engine *mint.Engine, opts ...ServiceOption) *Service {
	svc := &Service{
		engine:  engine,
		metrics: observability.Mint(),
		tracer:  telemetry.Tracer("mintd"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.refreshGauges()
	return svc
}

// Engine exposes the wrapped engine for read-only queries.
func (s *Service) Engine() *mint.Engine { return s.engine }

func (s *Service) refreshGauges() {
	ledger, err := s.engine.Ledger()
	if err != nil {
		return
	}
	s.metrics.SetLedger(ledger.Treasury, ledger.Issued)
}

func (s *Service) fail(span trace.Span, operation string, err error) error {
	_, code := classify(err)
	s.metrics.RecordRejection(operation, code)
	span.RecordError(err)
	span.SetStatus(codes.Error, code)
	return err
}

// Purchase admits quantity units for caller.
func (s *Service) Purchase(ctx context.Context, caller [20]byte, quantity uint64, value *big.Int) (*mint.Receipt, error) {
	_, span := s.tracer.Start(ctx, "mint.purchase", trace.WithAttributes(
		attribute.String("caller", crypto.FormatAddress(caller)),
		attribute.Int64("quantity", int64(quantity)),
	))
	defer span.End()
	receipt, err := s.engine.Purchase(caller, quantity, value)
	if err != nil {
		return nil, s.fail(span, "purchase", err)
	}
	s.metrics.RecordPurchase(receipt.Quantity)
	s.refreshGauges()
	s.logger.Info("mint purchase accepted",
		slog.String("buyer", crypto.FormatAddress(caller)),
		slog.Uint64("quantity", receipt.Quantity),
		slog.String("paid", mint.FormatAmount(receipt.Paid)))
	return receipt, nil
}

// SetPublicSale toggles the sale.
func (s *Service) SetPublicSale(ctx context.Context, caller [20]byte, enabled bool) error {
	_, span := s.tracer.Start(ctx, "mint.set_public_sale", trace.WithAttributes(attribute.Bool("enabled", enabled)))
	defer span.End()
	if err := s.engine.SetPublicSale(caller, enabled); err != nil {
		return s.fail(span, "set_public_sale", err)
	}
	s.logger.Info("public sale updated", slog.Bool("enabled", enabled))
	return nil
}

// Withdraw drains the treasury to the owner.
func (s *Service) Withdraw(ctx context.Context, caller [20]byte) (*mint.Withdrawal, error) {
	ctx, span := s.tracer.Start(ctx, "mint.withdraw")
	defer span.End()
	result, err := s.engine.Withdraw(ctx, caller)
	if err != nil {
		if errors.Is(err, mint.ErrTransferFailed) {
			s.metrics.RecordWithdrawal("failed")
			s.logger.Warn("treasury withdrawal failed", slog.String("error", err.Error()))
		}
		return nil, s.fail(span, "withdraw", err)
	}
	s.metrics.RecordWithdrawal("success")
	s.refreshGauges()
	s.logger.Info("treasury withdrawn",
		slog.String("amount", mint.FormatAmount(result.Amount)),
		slog.String("reference", result.Reference))
	return result, nil
}

// TransferOwnership hands the owner role to next.
func (s *Service) TransferOwnership(ctx context.Context, caller, next [20]byte) error {
	_, span := s.tracer.Start(ctx, "mint.transfer_ownership")
	defer span.End()
	if err := s.engine.TransferOwnership(caller, next); err != nil {
		return s.fail(span, "transfer_ownership", err)
	}
	s.logger.Info("ownership transferred", slog.String("owner", crypto.FormatAddress(next)))
	return nil
}

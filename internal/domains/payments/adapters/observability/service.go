package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	paymentsdomain "github.com/Apurer/go-order-fulfillment/internal/domains/payments/domain"
	paymentsports "github.com/Apurer/go-order-fulfillment/internal/domains/payments/ports"
	"github.com/Apurer/go-order-fulfillment/internal/platform/observability"
)

const tracerName = "github.com/Apurer/go-order-fulfillment/internal/domains/payments/adapters/observability/service"

// Service decorates the payment service with tracing, logging, and metrics.
type Service struct {
	inner   paymentsports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

func New(inner paymentsports.Service, opts ...Option) paymentsports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  observability.DiscardLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) Pay(ctx context.Context, input paymentsports.PayInput) (*paymentsdomain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.Pay",
		trace.WithAttributes(attribute.Int64("order.id", input.OrderID), attribute.String("payment.method", input.Method)))
	defer span.End()

	result, err := s.inner.Pay(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "payment failed", slog.Int64("order.id", input.OrderID))
	}
	span.SetAttributes(attribute.Int64("payment.id", result.ID), attribute.String("payment.status", string(result.Status)))
	s.metrics.recordProcessed(ctx, result.Status)
	s.logInfo(ctx, "payment processed",
		slog.Int64("payment.id", result.ID),
		slog.Int64("order.id", result.OrderID),
		slog.String("payment.status", string(result.Status)))
	return result, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*paymentsdomain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.GetByID", trace.WithAttributes(attribute.Int64("payment.id", id)))
	defer span.End()

	result, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load payment", slog.Int64("payment.id", id))
	}
	return result, nil
}

func (s *Service) List(ctx context.Context) ([]*paymentsdomain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.List")
	defer span.End()

	result, err := s.inner.List(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list payments")
	}
	return result, nil
}

func (s *Service) ListByOrder(ctx context.Context, orderID int64) ([]*paymentsdomain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.ListByOrder", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	result, err := s.inner.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list payments for order", slog.Int64("order.id", orderID))
	}
	return result, nil
}

func (s *Service) CorrectStatus(ctx context.Context, id int64, status paymentsdomain.Status) (*paymentsdomain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.CorrectStatus",
		trace.WithAttributes(attribute.Int64("payment.id", id), attribute.String("payment.status", string(status))))
	defer span.End()

	result, err := s.inner.CorrectStatus(ctx, id, status)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to correct payment status", slog.Int64("payment.id", id))
	}
	s.metrics.recordCorrected(ctx, result.Status)
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

type serviceMetrics struct {
	processed metric.Int64Counter
	corrected metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	processed, _ := m.Int64Counter("payments.service.processed", metric.WithDescription("Payments recorded, by status"))
	corrected, _ := m.Int64Counter("payments.service.corrected", metric.WithDescription("Administrative status corrections"))
	return serviceMetrics{processed: processed, corrected: corrected}
}

func (m serviceMetrics) recordProcessed(ctx context.Context, status paymentsdomain.Status) {
	if m.processed != nil {
		m.processed.Add(ctx, 1, metric.WithAttributes(attribute.String("payment.status", string(status))))
	}
}

func (m serviceMetrics) recordCorrected(ctx context.Context, status paymentsdomain.Status) {
	if m.corrected != nil {
		m.corrected.Add(ctx, 1, metric.WithAttributes(attribute.String("payment.status", string(status))))
	}
}

var _ paymentsports.Service = (*Service)(nil)

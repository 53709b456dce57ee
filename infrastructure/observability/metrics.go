package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"investa/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider owns the OpenTelemetry meter and the investa instruments.
// Every Record method is a no-op until Initialize has set up an exporter.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	requestsSubmitted   metric.Int64Counter
	requestsDecided     metric.Int64Counter
	profitAccrued       metric.Int64Counter
	profitAccruedAmount metric.Float64Counter
	contractTransitions metric.Int64Counter
	natsPublished       metric.Int64Counter
	httpDuration        metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{config: cfg}
}

// Initialize builds the exporter selected by OTEL_EXPORTER_TYPE
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}
	mp.initialized = true

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
	case "otlp":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		exporter, err = otlpmetricgrpc.New(dialCtx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		return nil
	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	interval := time.Duration(mp.config.OTelExportIntervalMillis) * time.Millisecond
	if interval <= 0 {
		interval = 30 * time.Second
	}
	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp.meterProvider)

	if err := mp.createInstruments(mp.meterProvider.Meter("investa")); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}
	mp.enabled = true

	log.WithFields(log.Fields{
		"exporter": mp.config.OTelExporterType,
		"interval": interval,
	}).Info("Metrics provider initialized")
	return nil
}

// InitializeWithReader wires the instruments to a caller-supplied reader
func (mp *MetricsProvider) InitializeWithReader(reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	if err := mp.createInstruments(mp.meterProvider.Meter("investa")); err != nil {
		return err
	}
	mp.initialized = true
	mp.enabled = true
	return nil
}

func (mp *MetricsProvider) createInstruments(meter metric.Meter) error {
	var err error
	mp.meter = meter

	if mp.requestsSubmitted, err = meter.Int64Counter(RequestsSubmittedTotal,
		metric.WithDescription("Approval requests queued by investors"), metric.WithUnit("1")); err != nil {
		return fmt.Errorf("failed to create requests submitted counter: %w", err)
	}
	if mp.requestsDecided, err = meter.Int64Counter(RequestsDecidedTotal,
		metric.WithDescription("Approval requests decided by admins"), metric.WithUnit("1")); err != nil {
		return fmt.Errorf("failed to create requests decided counter: %w", err)
	}
	if mp.profitAccrued, err = meter.Int64Counter(ProfitAccruedTotal,
		metric.WithDescription("Monthly profit accruals credited"), metric.WithUnit("1")); err != nil {
		return fmt.Errorf("failed to create profit accrued counter: %w", err)
	}
	if mp.profitAccruedAmount, err = meter.Float64Counter(ProfitAccruedAmount,
		metric.WithDescription("Profit credited to investors"), metric.WithUnit("USD")); err != nil {
		return fmt.Errorf("failed to create profit amount counter: %w", err)
	}
	if mp.contractTransitions, err = meter.Int64Counter(ContractTransitionsTotal,
		metric.WithDescription("Contract state transitions"), metric.WithUnit("1")); err != nil {
		return fmt.Errorf("failed to create contract transitions counter: %w", err)
	}
	if mp.natsPublished, err = meter.Int64Counter(NATSMessagesPublishedTotal,
		metric.WithDescription("Events published to NATS"), metric.WithUnit("1")); err != nil {
		return fmt.Errorf("failed to create NATS published counter: %w", err)
	}
	if mp.httpDuration, err = meter.Float64Histogram(HTTPRequestDuration,
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5)); err != nil {
		return fmt.Errorf("failed to create HTTP duration histogram: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the exporter
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.enabled
}

// RecordRequestSubmitted counts a queued approval request
func (mp *MetricsProvider) RecordRequestSubmitted(kind string) {
	if !mp.isEnabled() {
		return
	}
	mp.requestsSubmitted.Add(context.Background(), 1, metric.WithAttributes(attribute.String(LabelKind, kind)))
}

// RecordRequestDecided counts an admin decision
func (mp *MetricsProvider) RecordRequestDecided(kind, outcome string) {
	if !mp.isEnabled() {
		return
	}
	mp.requestsDecided.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelKind, kind),
		attribute.String(LabelOutcome, outcome),
	))
}

// RecordProfitAccrued counts an accrual and the amount credited
func (mp *MetricsProvider) RecordProfitAccrued(amount float64) {
	if !mp.isEnabled() {
		return
	}
	mp.profitAccrued.Add(context.Background(), 1)
	mp.profitAccruedAmount.Add(context.Background(), amount)
}

// RecordContractTransition counts a contract state change
func (mp *MetricsProvider) RecordContractTransition(from, to string) {
	if !mp.isEnabled() {
		return
	}
	mp.contractTransitions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String(LabelFromState, from),
		attribute.String(LabelToState, to),
	))
}

// RecordNATSPublished counts an event sent to NATS
func (mp *MetricsProvider) RecordNATSPublished(eventType string) {
	if !mp.isEnabled() {
		return
	}
	mp.natsPublished.Add(context.Background(), 1, metric.WithAttributes(attribute.String(LabelEventType, eventType)))
}

// RecordHTTPRequest records the latency of an HTTP request
func (mp *MetricsProvider) RecordHTTPRequest(route string, status int, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}
	mp.httpDuration.Record(context.Background(), duration.Seconds(), metric.WithAttributes(
		attribute.String(LabelRoute, route),
		attribute.Int(LabelStatus, status),
	))
}

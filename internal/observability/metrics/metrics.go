package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	entitiesCreated   metric.Int64Counter
	ordersCreated     metric.Int64Counter
	orderLines        metric.Int64Counter
	relationshipLoads metric.Int64Counter
	txRollbacks       metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "orderdesk"
	}
	meter := provider.Meter(name)

	entitiesCreated, err := meter.Int64Counter("orderdesk_entities_created_total")
	if err != nil {
		return nil, err
	}
	ordersCreated, err := meter.Int64Counter("orderdesk_orders_created_total")
	if err != nil {
		return nil, err
	}
	orderLines, err := meter.Int64Counter("orderdesk_order_lines_created_total")
	if err != nil {
		return nil, err
	}
	relationshipLoads, err := meter.Int64Counter("orderdesk_relationship_loads_total")
	if err != nil {
		return nil, err
	}
	txRollbacks, err := meter.Int64Counter("orderdesk_tx_rollbacks_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		entitiesCreated:   entitiesCreated,
		ordersCreated:     ordersCreated,
		orderLines:        orderLines,
		relationshipLoads: relationshipLoads,
		txRollbacks:       txRollbacks,
	}, nil
}

// RecordEntityCreated increments per-entity create counts.
func (m *Metrics) RecordEntityCreated(ctx context.Context, entity, mode string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("entity", strings.TrimSpace(entity)),
		attribute.String("exec_mode", strings.TrimSpace(mode)),
	)
	m.entitiesCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordOrderCreated increments order create counts and accumulates the
// number of lines the order carried.
func (m *Metrics) RecordOrderCreated(ctx context.Context, mode string, lines int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("exec_mode", strings.TrimSpace(mode)))
	m.ordersCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.orderLines.Add(ctx, int64(lines), metric.WithAttributes(attrs...))
}

// RecordRelationshipLoad increments batched relationship load counts.
func (m *Metrics) RecordRelationshipLoad(ctx context.Context, relation, mode string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("relation", strings.TrimSpace(relation)),
		attribute.String("exec_mode", strings.TrimSpace(mode)),
	)
	m.relationshipLoads.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordTxRollback increments unit-of-work rollback counts.
func (m *Metrics) RecordTxRollback(ctx context.Context, mode, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("exec_mode", strings.TrimSpace(mode)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.txRollbacks.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"entity":      {},
	"exec_mode":   {},
	"relation":    {},
	"reason":      {},
	"endpoint":    {},
	"status_code": {},
	"method":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("entity", "order"),
		attribute.String("exec_mode", "blocking"),
		attribute.String("order_name", "SO001"),
		attribute.String("contact_email", "jane@example.com"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key != "entity" && attr.Key != "exec_mode" {
			t.Fatalf("unexpected label %q retained", attr.Key)
		}
	}
}

func TestRecordersTolerateNilMetrics(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	m.RecordEntityCreated(ctx, "contact", "blocking")
	m.RecordOrderCreated(ctx, "suspending", 3)
	m.RecordRelationshipLoad(ctx, "order_lines", "blocking")
	m.RecordTxRollback(ctx, "blocking", "storage_error")
}

func TestNewRegistersInstruments(t *testing.T) {
	m, err := New(Config{ServiceName: "orderdesk-test"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m == nil {
		t.Fatal("metrics is nil")
	}

	ctx := context.Background()
	m.RecordEntityCreated(ctx, "product", "blocking")
	m.RecordOrderCreated(ctx, "blocking", 1)
	m.RecordRelationshipLoad(ctx, "tags", "suspending")
	m.RecordTxRollback(ctx, "suspending", "contact_not_found")
}

func TestRecordOrderCreatedAccumulatesLineCount(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(Config{ServiceName: "orderdesk-test"}, provider)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	m.RecordOrderCreated(ctx, "blocking", 2)
	m.RecordOrderCreated(ctx, "blocking", 3)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	var orders, lines int64
	for _, scope := range rm.ScopeMetrics {
		for _, met := range scope.Metrics {
			sum, ok := met.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				switch met.Name {
				case "orderdesk_orders_created_total":
					orders += dp.Value
				case "orderdesk_order_lines_created_total":
					lines += dp.Value
				}
			}
		}
	}
	if orders != 2 {
		t.Fatalf("orders created = %d, want 2", orders)
	}
	if lines != 5 {
		t.Fatalf("order lines recorded = %d, want 5", lines)
	}
}

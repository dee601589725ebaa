package persistence

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"archviz/application/ports"
	"archviz/domain/core/aggregates"
	"archviz/domain/core/entities"
	"archviz/domain/core/valueobjects"
	"archviz/pkg/observability"
)

// InstrumentedStore decorates a DiagramStore with spans and metrics
type InstrumentedStore struct {
	inner     ports.DiagramStore
	backend   string
	collector *observability.Collector
	tracer    trace.Tracer
}

// NewInstrumentedStore wraps inner. backend labels the metrics.
func NewInstrumentedStore(inner ports.DiagramStore, backend string, collector *observability.Collector, tracer trace.Tracer) *InstrumentedStore {
	return &InstrumentedStore{
		inner:     inner,
		backend:   backend,
		collector: collector,
		tracer:    tracer,
	}
}

func (s *InstrumentedStore) ListSystems(ctx context.Context) (aggregates.Snapshot, error) {
	var snap aggregates.Snapshot
	err := s.observe(ctx, "list_systems", nil, func(ctx context.Context) error {
		var err error
		snap, err = s.inner.ListSystems(ctx)
		return err
	})
	return snap, err
}

func (s *InstrumentedStore) CreateSystem(ctx context.Context, name valueobjects.SystemName) error {
	return s.observe(ctx, "create_system", systemAttrs(name), func(ctx context.Context) error {
		return s.inner.CreateSystem(ctx, name)
	})
}

func (s *InstrumentedStore) GetSlot(ctx context.Context, name valueobjects.SystemName, slotType valueobjects.SlotType) (entities.Slot, error) {
	var slot entities.Slot
	err := s.observe(ctx, "get_slot", slotAttrs(name, slotType), func(ctx context.Context) error {
		var err error
		slot, err = s.inner.GetSlot(ctx, name, slotType)
		return err
	})
	return slot, err
}

func (s *InstrumentedStore) UpsertSlot(ctx context.Context, name valueobjects.SystemName, slotType valueobjects.SlotType, content entities.SlotContent) error {
	err := s.observe(ctx, "upsert_slot", slotAttrs(name, slotType), func(ctx context.Context) error {
		return s.inner.UpsertSlot(ctx, name, slotType, content)
	})
	if err == nil {
		s.collector.SlotsSaved.WithLabelValues(slotType.String()).Inc()
	}
	return err
}

func (s *InstrumentedStore) DeleteSystem(ctx context.Context, name valueobjects.SystemName) error {
	err := s.observe(ctx, "delete_system", systemAttrs(name), func(ctx context.Context) error {
		return s.inner.DeleteSystem(ctx, name)
	})
	if err == nil {
		s.collector.SystemsDeleted.Inc()
	}
	return err
}

func (s *InstrumentedStore) observe(ctx context.Context, operation string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "store."+operation,
		trace.WithAttributes(append(attrs, attribute.String("store.backend", s.backend))...),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	s.collector.RecordStoreOperation(operation, s.backend, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if operation == "create_system" {
		s.collector.SystemsCreated.Inc()
	}
	return err
}

func systemAttrs(name valueobjects.SystemName) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.String("system.name", name.String())}
}

func slotAttrs(name valueobjects.SystemName, slotType valueobjects.SlotType) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("system.name", name.String()),
		attribute.String("slot.type", slotType.String()),
	}
}

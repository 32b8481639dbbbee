package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/soscomida/soscomida/internal/domain"
)

// Sink consumes committed events.
type Sink interface {
	Name() string
	Handle(ctx context.Context, event domain.Event) error
}

// Dispatcher fans committed events out to sinks. A failing sink is logged
// and counted; it never affects the transition that produced the event or
// the other sinks.
type Dispatcher struct {
	sinks     []Sink
	delivered metric.Int64Counter
	failed    metric.Int64Counter
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	meter := otel.Meter("soscomida.events")
	delivered, err := meter.Int64Counter("soscomida.events.delivered",
		metric.WithDescription("Events handled by a sink"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		otel.Handle(err)
	}
	failed, err := meter.Int64Counter("soscomida.events.failed",
		metric.WithDescription("Events a sink failed to handle"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		otel.Handle(err)
	}
	return &Dispatcher{sinks: sinks, delivered: delivered, failed: failed}
}

func (d *Dispatcher) Publish(ctx context.Context, events ...domain.Event) {
	ctx, span := tracer.Start(ctx, "Event.Dispatcher.Publish")
	defer span.End()

	for _, event := range events {
		for _, sink := range d.sinks {
			attrs := metric.WithAttributes(
				attribute.String("sink", sink.Name()),
				attribute.String("event", string(event.Type)),
			)
			if err := sink.Handle(ctx, event); err != nil {
				span.RecordError(err)
				slog.ErrorContext(ctx, "event sink failed",
					slog.String("module", "dispatcher"),
					slog.String("sink", sink.Name()),
					slog.String("event", string(event.Type)),
					slog.String("item", event.ItemType+"/"+event.ItemID),
					slog.String("error", err.Error()),
				)
				if d.failed != nil {
					d.failed.Add(ctx, 1, attrs)
				}
				continue
			}
			if d.delivered != nil {
				d.delivered.Add(ctx, 1, attrs)
			}
		}
	}
}

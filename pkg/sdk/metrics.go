package sdk

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// clientMetrics holds the instruments recorded by the refresh wrapper. With
// no MeterProvider installed the global no-op provider makes them free.
type clientMetrics struct {
	refreshes metric.Int64Counter // refresh calls by outcome
	waiters   metric.Int64Counter // requests queued behind an in-flight refresh
	replays   metric.Int64Counter // requests re-issued with a refreshed token
}

func newClientMetrics(mp metric.MeterProvider) *clientMetrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter("icuboard/sdk")

	m := &clientMetrics{}
	var err error
	if m.refreshes, err = meter.Int64Counter(
		"icuboard.sdk.refresh.count",
		metric.WithDescription("Access token refresh calls"),
		metric.WithUnit("{refresh}"),
	); err != nil {
		otel.Handle(err)
	}
	if m.waiters, err = meter.Int64Counter(
		"icuboard.sdk.refresh.waiters",
		metric.WithDescription("Requests that waited on an in-flight refresh"),
		metric.WithUnit("{request}"),
	); err != nil {
		otel.Handle(err)
	}
	if m.replays, err = meter.Int64Counter(
		"icuboard.sdk.request.replay.count",
		metric.WithDescription("Requests replayed after a token refresh"),
		metric.WithUnit("{request}"),
	); err != nil {
		otel.Handle(err)
	}
	return m
}

func (m *clientMetrics) recordRefresh(ctx context.Context, err error) {
	if m.refreshes == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *clientMetrics) recordWaiter(ctx context.Context) {
	if m.waiters != nil {
		m.waiters.Add(ctx, 1)
	}
}

func (m *clientMetrics) recordReplay(ctx context.Context, method string) {
	if m.replays != nil {
		m.replays.Add(ctx, 1, metric.WithAttributes(attribute.String("http.method", method)))
	}
}

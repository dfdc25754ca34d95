package session

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter  = otel.Meter("perms/session")
	tracer = otel.Tracer("perms/session")
)

func (c *Coordinator) initMeter() (err error) {
	_, err = meter.Int64ObservableGauge(
		"perms.sessions.active",
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			o.Observe(int64(len(c.Sessions())))
			return nil
		}),
		metric.WithDescription("The current number of active permission sessions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	_, err = meter.Int64ObservableGauge(
		"perms.sessions.negotiating",
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			o.Observe(int64(c.Negotiating()))
			return nil
		}),
		metric.WithDescription("The current number of connections waiting for their permission data"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}
	c.loadCounter, err = meter.Int64Counter(
		"perms.user_loads",
		metric.WithDescription("Total number of user data loads during negotiation"),
	)
	if err != nil {
		return err
	}
	c.refreshCounter, err = meter.Int64Counter(
		"perms.command_refreshes",
		metric.WithDescription("Total number of command trees resent to clients"),
	)
	return err
}

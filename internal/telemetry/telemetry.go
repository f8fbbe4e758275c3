// Package telemetry exports simulation metrics over OTLP.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"dealersim/internal/game"
)

type Shutdown func(ctx context.Context) error

// Init installs a global meter provider that pushes to endpoint. An empty
// endpoint leaves the no-op provider in place.
func Init(ctx context.Context, endpoint, serviceName string) (Shutdown, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	res, err := resource.New(ctx, resource.WithAttributes(attribute.String("service.name", serviceName)))
	if err != nil {
		return nil, fmt.Errorf("telemetry: create resource: %w", err)
	}
	exp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(endpoint), otlpmetrichttp.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("telemetry: create metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(15*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

func Meter(name string) metric.Meter {
	return otel.GetMeterProvider().Meter(name)
}

// Instruments records what the engine produces each hour and each day.
type Instruments struct {
	hours       metric.Int64Counter
	leads       metric.Int64Counter
	unitsSold   metric.Int64Counter
	frontGross  metric.Float64Counter
	repairs     metric.Int64Counter
	comebacks   metric.Int64Counter
	daysClosed  metric.Int64Counter
	cash        metric.Float64Gauge
	csi         metric.Float64Gauge
	inventory   metric.Int64Gauge
	tickLatency metric.Float64Histogram
}

func NewInstruments(meter metric.Meter) (*Instruments, error) {
	var (
		in  Instruments
		err error
	)
	if in.hours, err = meter.Int64Counter("dealersim.hours", metric.WithDescription("Simulated business hours")); err != nil {
		return nil, err
	}
	if in.leads, err = meter.Int64Counter("dealersim.leads"); err != nil {
		return nil, err
	}
	if in.unitsSold, err = meter.Int64Counter("dealersim.units_sold"); err != nil {
		return nil, err
	}
	if in.frontGross, err = meter.Float64Counter("dealersim.front_gross", metric.WithUnit("USD")); err != nil {
		return nil, err
	}
	if in.repairs, err = meter.Int64Counter("dealersim.repair_orders"); err != nil {
		return nil, err
	}
	if in.comebacks, err = meter.Int64Counter("dealersim.comebacks"); err != nil {
		return nil, err
	}
	if in.daysClosed, err = meter.Int64Counter("dealersim.days_closed"); err != nil {
		return nil, err
	}
	if in.cash, err = meter.Float64Gauge("dealersim.cash", metric.WithUnit("USD")); err != nil {
		return nil, err
	}
	if in.csi, err = meter.Float64Gauge("dealersim.csi"); err != nil {
		return nil, err
	}
	if in.inventory, err = meter.Int64Gauge("dealersim.inventory"); err != nil {
		return nil, err
	}
	if in.tickLatency, err = meter.Float64Histogram("dealersim.tick.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Wall time spent in one scheduler tick"),
	); err != nil {
		return nil, err
	}
	return &in, nil
}

func (in *Instruments) RecordHour(ctx context.Context, res game.HourResult) {
	if in == nil || !res.Ran {
		return
	}
	in.hours.Add(ctx, 1)
	in.leads.Add(ctx, int64(res.Sales.Leads))
	in.unitsSold.Add(ctx, int64(len(res.Sales.Deals)))
	for _, d := range res.Sales.Deals {
		in.frontGross.Add(ctx, d.FrontGross)
	}
	in.repairs.Add(ctx, int64(len(res.Service.ROs)))
	in.comebacks.Add(ctx, int64(res.Service.ComebackCount))
}

func (in *Instruments) RecordTick(ctx context.Context, elapsed time.Duration, st game.GameState) {
	if in == nil {
		return
	}
	in.tickLatency.Record(ctx, float64(elapsed.Microseconds())/1000)
	in.cash.Record(ctx, st.Cash)
	in.csi.Record(ctx, st.CSI)
	in.inventory.Record(ctx, int64(len(st.Inventory)))
}

func (in *Instruments) RecordDay(ctx context.Context, report game.DailyReport) {
	if in == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("month", fmt.Sprintf("%04d-%02d", report.Year, report.Month)))
	in.daysClosed.Add(ctx, 1, attrs)
	in.cash.Record(ctx, report.EndingCash)
	in.csi.Record(ctx, report.CSI)
}

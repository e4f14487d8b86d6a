//
// Tencent is pleased to support the open source community by making trpc-trackable-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-trackable-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry holds the OpenTelemetry instances used by the
// checkpoint engine. Both default to noop implementations; hosts that want
// telemetry install their own providers.
package telemetry

import (
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// InstrumentName is the instrumentation scope of this module.
const InstrumentName = "trpc.group/trpc-go/trpc-trackable-go"

// Span names.
const (
	SpanSave    = "checkpoint.save"
	SpanRestore = "checkpoint.restore"
)

// Metric instrument names.
const (
	MetricSaves            = "checkpoint.saves"
	MetricSaveDuration     = "checkpoint.save.duration"
	MetricEvictions        = "checkpoint.evictions"
	MetricEvictionFailures = "checkpoint.eviction.failures"
)

// Attribute keys.
const (
	KeyCheckpointPrefix = "checkpoint.prefix"
	KeyCheckpointName   = "checkpoint.name"
)

// Tracer is the global tracer, noop until replaced.
var Tracer trace.Tracer = tracenoop.NewTracerProvider().Tracer(InstrumentName)

// Meter is the global meter, noop until replaced.
var Meter metric.Meter = metricnoop.NewMeterProvider().Meter(InstrumentName)

// SetTracerProvider routes spans to the given provider.
func SetTracerProvider(tp trace.TracerProvider) {
	Tracer = tp.Tracer(InstrumentName)
}

// SetMeterProvider routes metrics to the given provider.
func SetMeterProvider(mp metric.MeterProvider) {
	Meter = mp.Meter(InstrumentName)
}

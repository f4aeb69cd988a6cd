// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package telem

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otel_codes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

var gTp *sdktrace.TracerProvider

// Initialize exports spans to the collector at otelcolEndpoint. Without
// a call to Initialize the global no-op provider is in effect and every
// span below is free.
func Initialize(ctx context.Context, otelcolEndpoint string) error {
	exporter, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithEndpoint(otelcolEndpoint),
	)
	if err != nil {
		return fmt.Errorf("Failed to create otlp exporter for %s: %w", otelcolEndpoint, err)
	}

	gTp = sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(
			exporter,
			// add following two options to ensure flush
			sdktrace.WithBatchTimeout(5*time.Second),
			sdktrace.WithMaxExportBatchSize(10),
		),
	)
	otel.SetTracerProvider(gTp)

	log.Info().
		Str("OtelcolEndpoint", otelcolEndpoint).
		Msg("Telemetry initialized")
	return nil
}

func Shutdown(ctx context.Context) {
	if gTp != nil {
		err := gTp.Shutdown(ctx)
		if err != nil {
			log.Error().
				Err(err).
				Msg("Failed to shutdown tracer provider")
		}
		gTp = nil
	}
}

func Tracer() trace.Tracer {
	return otel.Tracer("consolerw")
}

func Start(ctx context.Context, name string, topic string) (context.Context, trace.Span) {
	return Tracer().Start(
		ctx,
		name,
		trace.WithAttributes(
			attribute.String("consolerw.topic", topic),
		),
	)
}

func RecordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(otel_codes.Error, err.Error())
}

var gTraceParentRe *regexp.Regexp = regexp.MustCompile("^([0-9a-f]{2})-([0-9a-f]{32})-([0-9a-f]{16})-([0-9a-f]{2})$")

func TraceParentIsValid(traceParent string) bool {
	return gTraceParentRe.MatchString(traceParent)
}

func ExtractTraceParent(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	tp := fmt.Sprintf(
		"00-%s-%s-%s",
		sc.TraceID(),
		sc.SpanID(),
		sc.TraceFlags(),
	)
	return tp
}

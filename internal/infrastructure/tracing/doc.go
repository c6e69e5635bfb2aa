/*
Package tracing provides lightweight request and operation tracing.

# Overview

A trace follows one request from the HTTP edge through the installer and
out to system broadcasts. Spans are collected on a buffered channel and
written to the structured log.

# Features

- Trace context propagation via X-Trace-ID and X-Span-ID headers
- Span creation with parent-child relationships
- Automatic trace ID generation
- Gin middleware for automatic instrumentation
- Buffered collection that drops rather than blocks

# Usage

	tracer := tracing.New("bundlemgr", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "installer.install")
	span.SetTag("bundle", name)
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
*/
package tracing

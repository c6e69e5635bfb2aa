package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedTracer() (*Tracer, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New("bundlemgr", zap.New(core)), logs
}

func TestStartSpanParentChild(t *testing.T) {
	tracer, _ := newObservedTracer()
	defer tracer.Close()

	root, ctx := tracer.StartSpan(context.Background(), "install")
	assert.True(t, strings.HasPrefix(string(root.TraceID), "trc_"))
	assert.True(t, strings.HasPrefix(string(root.SpanID), "spn_"))
	assert.Empty(t, root.ParentID)
	assert.Equal(t, root.TraceID, GetTraceID(ctx))
	assert.Equal(t, root.SpanID, GetSpanID(ctx))

	child, childCtx := tracer.StartSpan(ctx, "persist")
	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Equal(t, root.SpanID, child.ParentID)
	assert.Equal(t, child.SpanID, GetSpanID(childCtx))
}

func TestSubmitLogsSpans(t *testing.T) {
	tracer, logs := newObservedTracer()

	ok, _ := tracer.StartSpan(context.Background(), "query")
	ok.SetTag("bundle", "com.example.notes")
	ok.Finish()
	tracer.Submit(ok)

	failed, _ := tracer.StartSpan(context.Background(), "install")
	failed.SetError(errors.New("disk full"))
	failed.Finish()
	tracer.Submit(failed)

	tracer.Close()
	tracer.Close()
	tracer.Submit(ok)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Span completed", entries[0].Message)
	assert.Equal(t, "com.example.notes", entries[0].ContextMap()["bundle"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, int64(500), entries[1].ContextMap()["status"])
}

func TestWithTraceSkipsEmpty(t *testing.T) {
	ctx := WithTrace(context.Background(), "", "")
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
	assert.Equal(t, "[trace:a span:b]", FormatTrace("a", "b"))
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer, logs := newObservedTracer()

	var seen TraceID
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/v1/bundles/:name", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/bundles/com.example.notes", nil)
	req.Header.Set(TraceIDHeader, "trc_upstream")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	tracer.Close()

	assert.Equal(t, TraceID("trc_upstream"), seen)
	assert.Equal(t, "trc_upstream", w.Header().Get(TraceIDHeader))
	assert.NotEmpty(t, w.Header().Get(SpanIDHeader))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "GET /v1/bundles/:name", fields["operation"])
	assert.Equal(t, "404", fields["http.status"])
}

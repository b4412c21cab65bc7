package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/depfence/pkg/log"
)

// TracedToolHandler is a tool handler that [WithTracing] can wrap.
type TracedToolHandler[In, Out any] func(
	context.Context,
	*mcp.ServerSession,
	*mcp.CallToolParamsFor[In],
) (*mcp.CallToolResultFor[Out], error)

// WithTracing runs each call of handler in a "tool <name>" span.
//
// A result with IsError set (for example a broken policy file) marks the
// span as failed without returning a protocol error, so lint failures are
// visible in traces even though the client receives them as tool output.
func WithTracing[In, Out any](
	tracer trace.Tracer,
	handler TracedToolHandler[In, Out],
) mcp.ToolHandlerFor[In, Out] {
	return func(
		ctx context.Context,
		session *mcp.ServerSession,
		params *mcp.CallToolParamsFor[In],
	) (*mcp.CallToolResultFor[Out], error) {
		name := params.Name
		start := time.Now()

		ctx, span := tracer.Start(ctx, "tool "+name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("depfence.mcp.tool", name)),
		)
		defer span.End()

		logger := log.WithContext(ctx).With(slog.String("tool", name))

		logger.DebugContext(ctx, "handling tool call",
			slog.Any("progress_token", params.GetProgressToken()),
			slog.Any("args", params.Arguments),
		)

		result, err := handler(ctx, session, params)

		switch {
		case err != nil:
			logger.ErrorContext(ctx, "tool call failed", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

		case result != nil && result.IsError:
			logger.WarnContext(ctx, "tool call returned an error result",
				slog.Duration("duration", time.Since(start)),
			)
			span.SetStatus(codes.Error, "tool result is an error")

		default:
			logger.DebugContext(ctx, "tool call completed",
				slog.Duration("duration", time.Since(start)),
			)
		}

		span.SetAttributes(attribute.Bool("depfence.mcp.is_error", err != nil || (result != nil && result.IsError)))

		return result, err
	}
}

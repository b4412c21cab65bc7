package mcp_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/depfence/pkg/mcp"
)

type echoArgs struct {
	Path string `json:"path"`
}

func TestWithTracing(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		result     *sdk.CallToolResultFor[any]
		err        error
		wantCode   codes.Code
		wantFailed bool
	}{
		"success": {
			result:   &sdk.CallToolResultFor[any]{},
			wantCode: codes.Unset,
		},
		"error result": {
			result:     &sdk.CallToolResultFor[any]{IsError: true},
			wantCode:   codes.Error,
			wantFailed: true,
		},
		"handler error": {
			err:        errors.New("canceled"),
			wantCode:   codes.Error,
			wantFailed: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			exp := tracetest.NewInMemoryExporter()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))

			handler := mcp.WithTracing(tp.Tracer("test"), func(
				_ context.Context,
				_ *sdk.ServerSession,
				params *sdk.CallToolParamsFor[echoArgs],
			) (*sdk.CallToolResultFor[any], error) {
				assert.Equal(t, "packages/a", params.Arguments.Path)

				return tc.result, tc.err
			})

			_, err := handler(t.Context(), nil, &sdk.CallToolParamsFor[echoArgs]{
				Name:      "lint",
				Arguments: echoArgs{Path: "packages/a"},
			})
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
			} else {
				require.NoError(t, err)
			}

			spans := exp.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, "tool lint", spans[0].Name)
			assert.Equal(t, tc.wantCode, spans[0].Status.Code)
			assert.Contains(t, spans[0].Attributes, attribute.String("depfence.mcp.tool", "lint"))
			assert.Contains(t, spans[0].Attributes, attribute.Bool("depfence.mcp.is_error", tc.wantFailed))
		})
	}
}

package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/lint"
	"github.com/macropower/depfence/pkg/log"
	"github.com/macropower/depfence/pkg/rule"
	"github.com/macropower/depfence/pkg/version"
)

// Linter runs lint passes for the server.
type Linter interface {
	Lint(ctx context.Context, dir string) (*lint.Result, error)
	Registry() *rule.Registry
}

// Server implements the MCP server for depfence.
type Server struct {
	linter  Linter
	server  *mcp.Server
	tracer  trace.Tracer
	address string
	// dir is the directory relative tool paths are resolved against.
	dir string
	// mu serializes lint runs.
	mu sync.Mutex
}

// NewServer creates a new MCP server instance.
func NewServer(address string, linter Linter, dir string) (*Server, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    name,
		Version: version.GetVersion(),
	}

	opts := &mcp.ServerOptions{
		Instructions: instructions,
	}

	s := &Server{
		address: address,
		server:  mcp.NewServer(impl, opts),
		linter:  linter,
		tracer:  otel.Tracer("mcp"),
		dir:     abs,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "lint",
		Description: "Check every package of the repository containing a path against the repository's dependency policies. Returns all findings.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "A directory inside the repository, relative to the server's working directory. Defaults to the working directory.",
				},
				"minSeverity": {
					Type:        "string",
					Description: "Only return findings at or above this severity.",
					Enum:        []any{"info", "warn", "error"},
				},
			},
		},
		OutputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"error":        {Type: "string"},
				"runId":        {Type: "string"},
				"repoRoot":     {Type: "string"},
				"message":      {Type: "string"},
				"findingCount": {Type: "integer"},
				"packageCount": {Type: "integer"},
				"findings": {
					Type:  "array",
					Items: newFindingSchema(),
				},
			},
			Required: []string{"message", "findings", "findingCount", "packageCount"},
		},
	}, WithTracing(s.tracer, s.handleLint))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_rules",
		Description: "List the rules that policies can reference, with a short description of each.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, WithTracing(s.tracer, s.handleListRules))
}

// resolve returns the directory a tool call operates on.
func (s *Server) resolve(path string) string {
	if path == "" {
		return s.dir
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(s.dir, path)
}

// handleLint handles the lint tool call.
func (s *Server) handleLint(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[LintParams],
) (*mcp.CallToolResultFor[LintResult], error) {
	startTime := time.Now()

	minimum := finding.Info
	if params.Arguments.MinSeverity != "" {
		sev, err := finding.ParseSeverity(params.Arguments.MinSeverity)
		if err != nil {
			return nil, fmt.Errorf("minSeverity: %w", err)
		}

		minimum = sev
	}

	dir := s.resolve(params.Arguments.Path)

	s.mu.Lock()
	res, err := s.linter.Lint(ctx, dir)
	s.mu.Unlock()

	if err != nil {
		// Configuration errors are reported to the client, not the transport.
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("lint: %w", err)
		}

		return createLintResult(LintResult{Error: err.Error()}), nil
	}

	result := LintResult{
		RunID:        res.RunID,
		RepoRoot:     res.RepoRoot,
		PackageCount: res.Packages,
		Findings:     filterSeverity(res.Findings, minimum),
	}

	log.WithContext(ctx).DebugContext(ctx, "lint completed",
		slog.String("run_id", res.RunID),
		slog.Int("finding_count", len(result.Findings)),
		slog.Duration("duration", time.Since(startTime)),
	)

	return createLintResult(result), nil
}

// handleListRules handles the list_rules tool call.
func (s *Server) handleListRules(
	_ context.Context,
	_ *mcp.ServerSession,
	_ *mcp.CallToolParamsFor[ListRulesParams],
) (*mcp.CallToolResultFor[ListRulesResult], error) {
	return createListRulesResult(listRules(s.linter.Registry())), nil
}

func (s *Server) Server() *mcp.Server {
	return s.server
}

// Serve starts the MCP server. An empty address serves over stdio.
func (s *Server) Serve(ctx context.Context) error {
	slog.InfoContext(ctx, "starting MCP server", slog.String("address", s.address))

	if s.address == "" {
		err := s.serveStdio(ctx)
		if err != nil {
			return fmt.Errorf("serve Stdio: %w", err)
		}

		return nil
	}

	err := s.serveHTTP(ctx)
	if err != nil {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	return nil
}

func (s *Server) serveHTTP(ctx context.Context) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	server := &http.Server{
		Addr:    s.address,
		Handler: handler,

		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			slog.ErrorContext(ctx, "shutdown MCP server", slog.Any("error", err))
		}
	}()

	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

func (s *Server) serveStdio(ctx context.Context) error {
	t := mcp.NewLoggingTransport(mcp.NewStdioTransport(), os.Stderr)
	err := s.server.Run(ctx, t)
	if err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

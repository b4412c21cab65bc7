package mcp_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/depfence/pkg/lint"
	"github.com/macropower/depfence/pkg/mcp"
	"github.com/macropower/depfence/pkg/rule"
	"github.com/macropower/depfence/pkg/rules"
)

func repo(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}

	return root
}

const policySet = `apiVersion: depfence.macropower.dev/v1beta1
kind: PolicySet
policies:
  - id: ui
    because: UI packages rely on host singletons.
    rules:
      - ui-in-deps
      - custom:
          id: has-repository
          expr: '!has(manifest.repository)'
          message: set the repository field
          severity: info
`

func connect(t *testing.T, s *mcp.Server) *sdk.ClientSession {
	t.Helper()

	clientTransport, serverTransport := sdk.NewInMemoryTransports()

	ctx := t.Context()

	serverSession, err := s.Server().Connect(ctx, serverTransport)
	require.NoError(t, err)

	client := sdk.NewClient(&sdk.Implementation{Name: "client"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, clientSession.Close())
		assert.NoError(t, serverSession.Wait())
	})

	return clientSession
}

func TestServer_Lint(t *testing.T) {
	t.Parallel()

	root := repo(t, map[string]string{
		"pnpm-workspace.yaml":      "packages:\n  - packages/*\n",
		"depfence.yaml":            policySet,
		"packages/ui/package.json": `{"name": "@x/ui", "dependencies": {"react": "^18"}}`,
		"packages/ok/package.json": `{"name": "@x/ok", "repository": "github:x/ok"}`,
	})

	s, err := mcp.NewServer("", lint.New(lint.Config{}), root)
	require.NoError(t, err)

	cs := connect(t, s)

	tcs := map[string]struct {
		args      map[string]any
		wantRules []string
		wantMsg   string
	}{
		"all findings": {
			args:      map[string]any{},
			wantRules: []string{rules.UIInDeps, "has-repository"},
			wantMsg:   "2 findings in 1 package (1 error, 1 info).",
		},
		"nested path": {
			args:      map[string]any{"path": "packages/ok"},
			wantRules: []string{rules.UIInDeps, "has-repository"},
			wantMsg:   "2 findings in 1 package (1 error, 1 info).",
		},
		"min severity": {
			args:      map[string]any{"minSeverity": "error"},
			wantRules: []string{rules.UIInDeps},
			wantMsg:   "1 finding in 1 package (1 error).",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			r, err := cs.CallTool(t.Context(), &sdk.CallToolParams{
				Name:      "lint",
				Arguments: tc.args,
			})
			require.NoError(t, err)
			require.NotNil(t, r)
			assert.False(t, r.IsError)

			got, ok := r.StructuredContent.(map[string]any)
			require.True(t, ok)

			assert.Equal(t, tc.wantMsg, got["message"])
			assert.Equal(t, root, got["repoRoot"])
			assert.InDelta(t, 2, got["packageCount"], 0)
			assert.NotEmpty(t, got["runId"])

			findings, ok := got["findings"].([]any)
			require.True(t, ok)

			gotRules := []string{}
			for _, f := range findings {
				m, ok := f.(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "@x/ui", m["packageName"])
				assert.Equal(t, "UI packages rely on host singletons.", m["because"])

				gotRules = append(gotRules, m["rule"].(string))
			}

			assert.Equal(t, tc.wantRules, gotRules)
		})
	}
}

func TestServer_LintInvalidConfig(t *testing.T) {
	t.Parallel()

	root := repo(t, map[string]string{
		"package.json":  `{"name": "root"}`,
		"depfence.yaml": "apiVersion: depfence.macropower.dev/v1beta1\nkind: Nope\npolicies: []\n",
	})

	s, err := mcp.NewServer("", lint.New(lint.Config{}), root)
	require.NoError(t, err)

	r, err := connect(t, s).CallTool(t.Context(), &sdk.CallToolParams{
		Name:      "lint",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	assert.True(t, r.IsError)

	got, ok := r.StructuredContent.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, got["message"], "Lint failed: ")
	assert.Equal(t, []any{}, got["findings"])
}

type countingLinter struct {
	err   error
	calls atomic.Int32
}

func (c *countingLinter) Lint(context.Context, string) (*lint.Result, error) {
	c.calls.Add(1)

	return nil, c.err
}

func (c *countingLinter) Registry() *rule.Registry {
	return rules.NewRegistry()
}

func TestServer_LintBadSeverity(t *testing.T) {
	t.Parallel()

	l := &countingLinter{err: errors.New("unused")}

	s, err := mcp.NewServer("", l, t.TempDir())
	require.NoError(t, err)

	r, err := connect(t, s).CallTool(t.Context(), &sdk.CallToolParams{
		Name:      "lint",
		Arguments: map[string]any{"minSeverity": "fatal"},
	})

	// Rejected either by schema validation or by the handler.
	if err == nil {
		assert.True(t, r.IsError)
	}
	assert.Zero(t, l.calls.Load())
}

func TestServer_ListRules(t *testing.T) {
	t.Parallel()

	s, err := mcp.NewServer("", &countingLinter{}, t.TempDir())
	require.NoError(t, err)

	r, err := connect(t, s).CallTool(t.Context(), &sdk.CallToolParams{
		Name:      "list_rules",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)

	got, ok := r.StructuredContent.(map[string]any)
	require.True(t, ok)

	names := rules.NewRegistry().Names()
	assert.InDelta(t, len(names), got["ruleCount"], 0)

	list, ok := got["rules"].([]any)
	require.True(t, ok)
	require.Len(t, list, len(names))

	first, ok := list[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, names[0], first["name"])
	assert.NotEmpty(t, first["description"])
}

// Package repoconfigs provides the RepoConfig configuration kind, the
// repository-wide settings that policies do not carry.
package repoconfigs

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/depfence/api"
	"github.com/macropower/depfence/api/v1beta1"
	"github.com/macropower/depfence/pkg/finding"
	"github.com/macropower/depfence/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen/main.go -kind repoconfig -o repoconfigs.v1beta1.json

const (
	// Kind is the kind of a [RepoConfig].
	Kind = "RepoConfig"

	// FileName is the YAML repo config file name.
	FileName = "depfence.repo.yaml"
	// LegacyFileName is the JSON repo config file name. It has no
	// apiVersion or kind.
	LegacyFileName = "dep-fence.config.json"
)

// FileNames are the names searched for at the repo root, in order.
var FileNames = []string{FileName, LegacyFileName}

var (
	//go:embed repoconfigs.v1beta1.json
	schemaJSON []byte

	// ValidKinds contains the valid kind values for repo configs.
	ValidKinds = []string{Kind}

	// DefaultValidator validates repo configs against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/repoconfigs.v1beta1.json", schemaJSON)

	// Compile-time interface checks.
	_ v1beta1.Object = (*RepoConfig)(nil)
)

// RepoConfig holds repository-wide settings.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type RepoConfig struct {
	v1beta1.TypeMeta `json:",inline"`
	// AllowSkipLibCheck names packages that may enable skipLibCheck
	// without a documented reason.
	AllowSkipLibCheck []string `json:"allowSkipLibCheck,omitempty" jsonschema:"title=Allow skipLibCheck"`
	// Allowlist waives individual rules for individual packages.
	Allowlist finding.Allowlist `json:"allowlist,omitempty" jsonschema:"title=Allowlist"`
	// Roots are the directories searched for packages, relative to the
	// repo root.
	Roots []string `json:"roots,omitempty" jsonschema:"title=Roots"`
}

// New creates a new [RepoConfig] with default values.
func New() *RepoConfig {
	rc := &RepoConfig{}
	rc.EnsureDefaults()

	return rc
}

// EnsureDefaults initializes nil fields to their default values.
func (rc *RepoConfig) EnsureDefaults() {
	rc.Default(Kind)

	if rc.AllowSkipLibCheck == nil {
		rc.AllowSkipLibCheck = []string{}
	}
	if rc.Allowlist == nil {
		rc.Allowlist = finding.Allowlist{}
	}
}

func (rc RepoConfig) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// ParseLegacy decodes a dep-fence.config.json document.
func ParseLegacy(data []byte) (*RepoConfig, error) {
	rc := New()

	err := json.Unmarshal(data, rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", LegacyFileName, err)
	}

	rc.EnsureDefaults()

	return rc, nil
}

// LoadLegacy reads and decodes a dep-fence.config.json file.
func LoadLegacy(path string) (*RepoConfig, error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	return ParseLegacy(data)
}

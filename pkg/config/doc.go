// Package config loads depfence configuration files.
//
// [Loader] is shared by every configuration kind: it validates YAML against
// the kind's JSON schema, decodes it, and fills defaults. [LoadPolicySet]
// and [LoadRepoConfig] locate and load the two kinds depfence uses.
package config

// Command schemagen writes the JSON schema of a configuration kind.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/macropower/depfence/api/v1beta1/policysets"
	"github.com/macropower/depfence/api/v1beta1/repoconfigs"
)

const schemaBaseURL = "https://raw.githubusercontent.com/macropower/depfence/refs/heads/main/api/v1beta1/"

var (
	outFile = flag.String("o", "schema.json", "Output file for the generated schema")
	kind    = flag.String("kind", "", "Kind to generate, one of: policyset, repoconfig")

	errUnknownKind = errors.New("unknown kind")

	kinds = map[string]struct {
		newFunc func() any
		id      string
	}{
		"policyset": {
			newFunc: func() any { return policysets.New() },
			id:      schemaBaseURL + "policysets/policysets.v1beta1.json",
		},
		"repoconfig": {
			newFunc: func() any { return repoconfigs.New() },
			id:      schemaBaseURL + "repoconfigs/repoconfigs.v1beta1.json",
		},
	}
)

func main() {
	flag.Parse()

	data, err := generate(*kind)
	if err != nil {
		log.Fatalf("generate JSON schema: %v", err)
	}

	err = os.WriteFile(*outFile, data, 0o600)
	if err != nil {
		log.Fatalf("write schema file: %v", err)
	}
}

func kindNames() []string {
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	slices.Sort(names)

	return names
}

func generate(name string) ([]byte, error) {
	k, ok := kinds[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q, expected one of %v", errUnknownKind, name, kindNames())
	}

	r := &jsonschema.Reflector{
		FieldNameTag:               "json",
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: false,
	}

	s := r.Reflect(k.newFunc())
	s.ID = jsonschema.ID(k.id)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(data, '\n'), nil
}

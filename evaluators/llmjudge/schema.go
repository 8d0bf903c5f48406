/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package llmjudge

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// verdictSchema is the JSON schema of Verdict, rendered into every prompt.
var verdictSchema = mustSchema[Verdict]()

func reflectSchema[T any]() *jsonschema.Schema {
	r := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	var zero T
	return r.Reflect(&zero)
}

func mustSchema[T any]() string {
	b, err := json.MarshalIndent(reflectSchema[T](), "", "  ")
	if err != nil {
		panic(err)
	}
	return string(b)
}

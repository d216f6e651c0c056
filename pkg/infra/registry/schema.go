package registry

import (
	"context"
	_ "embed"
	"encoding/json"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/types"
)

//go:embed openapi.yaml
var openapiSpec []byte

// schemaValidator checks request bodies against the registry API document
type schemaValidator struct {
	schemas map[string]*openapi3.Schema
}

func newSchemaValidator(ctx context.Context) (*schemaValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiSpec)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load registry API document")
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, goerr.Wrap(err, "invalid registry API document")
	}

	v := &schemaValidator{schemas: map[string]*openapi3.Schema{}}
	for _, name := range []string{"PublishRequest", "PromoteRequest"} {
		ref, ok := doc.Components.Schemas[name]
		if !ok || ref.Value == nil {
			return nil, goerr.New("schema not found in registry API document", goerr.V("name", name))
		}
		v.schemas[name] = ref.Value
	}

	return v, nil
}

// validate returns a ConfigError if body does not satisfy the named schema
func (v *schemaValidator) validate(name string, body any) error {
	schema, ok := v.schemas[name]
	if !ok {
		return goerr.New("unknown request schema", goerr.V("name", name))
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal request body", goerr.T(types.ErrTagConfig))
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return goerr.Wrap(err, "failed to unmarshal request body", goerr.T(types.ErrTagConfig))
	}

	if err := schema.VisitJSON(data); err != nil {
		return goerr.Wrap(err, "request does not match registry API schema",
			goerr.V("schema", name),
			goerr.T(types.ErrTagConfig))
	}
	return nil
}

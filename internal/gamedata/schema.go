package gamedata

import (
	"bytes"
	"encoding/json"
	"fmt"

	invjsonschema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const blessingSchemaURL = "blessings.schema.json"

// BlessingSchema reflects the JSON schema designers validate blessings.yaml
// against.
func BlessingSchema() *invjsonschema.Schema {
	reflector := invjsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(&BlessingFile{})
	schema.Title = "Blessing Catalog"
	schema.Description = "Run-scoped modifier bundles offered before a run begins."
	return schema
}

func compileBlessingSchema() (*jsonschema.Schema, error) {
	raw, err := json.Marshal(BlessingSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal blessing schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(blessingSchemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add blessing schema: %w", err)
	}
	return compiler.Compile(blessingSchemaURL)
}

// validateYAML checks a YAML document against schema. The document is
// round-tripped through JSON so numbers reach the validator as json.Number.
func validateYAML(schema *jsonschema.Schema, data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert to json: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(asJSON))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return err
	}
	return schema.Validate(value)
}

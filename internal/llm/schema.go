package llm

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects a strict JSON schema for T suitable for the
// structured-output response format: no references, no additional
// properties, every property required.
func GenerateSchema[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	schemaObj, err := schemaToMap(schema)
	if err != nil {
		panic(err)
	}
	ensureStrictSchema(schemaObj)
	return schemaObj
}

func schemaToMap(schema *jsonschema.Schema) (map[string]interface{}, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ensureStrictSchema walks a schema object and enforces the strict-mode
// rules: objects forbid additional properties and require every declared
// property.
func ensureStrictSchema(node map[string]interface{}) {
	if t, ok := node["type"].(string); ok && t == "object" {
		node["additionalProperties"] = false
		if props, ok := node["properties"].(map[string]interface{}); ok {
			required := make([]interface{}, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			node["required"] = required
			for _, sub := range props {
				if subObj, ok := sub.(map[string]interface{}); ok {
					ensureStrictSchema(subObj)
				}
			}
		}
	}
	if items, ok := node["items"].(map[string]interface{}); ok {
		ensureStrictSchema(items)
	}
}

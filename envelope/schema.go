package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON Schema (Draft 2020-12) of a wire type.
// Hosts written in other languages use it to check their decoders.
func Schema(v any) ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(v)

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}

// WireSchemas returns the schema of every request envelope, keyed by type name.
func WireSchemas() (map[string][]byte, error) {
	types := map[string]any{
		"RequestData": RequestData{},
		"SendBytes":   SendBytes{},
		"SendString":  SendString{},
		"SendForm":    SendForm{},
		"SendJSON":    SendJSON{},
	}

	out := make(map[string][]byte, len(types))
	for name, v := range types {
		data, err := Schema(v)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}

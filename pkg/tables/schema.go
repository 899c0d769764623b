package tables

import (
	"github.com/invopop/jsonschema"
)

// Schema returns the JSON Schema of the table document format. Curation
// pipelines validate candidate documents against it before submitting
// them to Load.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&Document{})
}

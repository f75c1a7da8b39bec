package pluginabi

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// behaviorSchema bounds the shape the loader accepts from behavior_json;
// a plugin emitting anything else is not trusted: ParseBehavior returns an
// error and dynload's Instance.Behavior then reports no behavior, without
// logging or counting a compatibility warning.
const behaviorSchema = `{
  "type": "object",
  "properties": {
    "extendable_inputs": {"type": "boolean"},
    "auto_extend_inputs": {"type": "boolean"},
    "supports_start_stop": {"type": "boolean"},
    "supports_restart": {"type": "boolean"},
    "loads_started": {"type": "boolean"},
    "external_window": {"type": "boolean"},
    "connection_dependent": {"type": "boolean"}
  },
  "additionalProperties": false
}`

var behaviorSchemaLoader = gojsonschema.NewStringLoader(behaviorSchema)

// ParseBehavior validates and decodes a plugin's optional behavior_json
// payload. A nil/empty payload means the plugin declines the capability.
func ParseBehavior(raw []byte) (*Behavior, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	result, err := gojsonschema.Validate(behaviorSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validate behavior_json: %w", err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("behavior_json failed schema validation: %v", result.Errors())
	}
	var b Behavior
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode behavior_json: %w", err)
	}
	return &b, nil
}

// ValidateUISchema checks that ui_schema_json is at least well-formed
// JSON; its contents are opaque to the engine and rendered only by the
// supervisor, so no stricter shape is enforced here.
func ValidateUISchema(raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	if !json.Valid(raw) {
		return fmt.Errorf("ui_schema_json is not valid JSON")
	}
	return nil
}

// ValidateConfigAgainstSchema checks a plugin's config tree against an
// optional JSON schema supplied by the caller. An empty schema accepts any
// config tree. Nothing in this repository calls it or reads a schema file
// for it.
func ValidateConfigAgainstSchema(schemaJSON []byte, config map[string]any) error {
	if len(schemaJSON) == 0 {
		return nil
	}
	configJSON, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshal config for validation: %w", err)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(configJSON),
	)
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("config failed schema validation: %v", result.Errors())
	}
	return nil
}

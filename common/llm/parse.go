package llm

import (
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
)

// StripFences removes a leading triple-backtick fence (optionally tagged
// "json") and any trailing backticks from model output.
func StripFences(raw string) string {
	clean := strings.TrimSpace(raw)
	if !strings.HasPrefix(clean, "```") {
		return clean
	}

	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimPrefix(clean, "json")
	clean = strings.TrimRight(clean, "`")
	return strings.TrimSpace(clean)
}

// ParseJSON decodes free-form model output into v. It strips code fences and
// tolerates prose surrounding a JSON object. Returns false when no JSON could
// be decoded; it never panics or returns an error. Callers must have a
// fallback for the false case.
func ParseJSON(raw string, v any) bool {
	clean := StripFences(raw)
	if clean == "" {
		return false
	}

	if json.Unmarshal([]byte(clean), v) == nil {
		return true
	}

	// Leading/trailing prose: retry on the outermost object.
	start := strings.IndexByte(clean, '{')
	end := strings.LastIndexByte(clean, '}')
	if start < 0 || end <= start {
		return false
	}
	return json.Unmarshal([]byte(clean[start:end+1]), v) == nil
}

// SchemaJSON renders the JSON schema of v as an indented string for embedding
// into prompts that demand strict JSON output.
func SchemaJSON(v any) string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(v)
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

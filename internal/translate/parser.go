package translate

import (
	"encoding/json"
	"strings"

	"rtl-converter/internal/types"
)

// ParseMapping decodes model output as a string-to-string mapping. The
// raw text is tried as-is first; when that fails, the span from the
// first '{' to the last '}' is parsed instead, which strips surrounding
// prose and code fences.
func ParseMapping(raw string) (map[string]string, error) {
	trimmed := strings.TrimSpace(raw)

	var mapping map[string]string
	if err := json.Unmarshal([]byte(trimmed), &mapping); err == nil && mapping != nil {
		return mapping, nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil, types.NewAppError(types.ErrAPIResponse,
			"model output contains no JSON object", nil)
	}

	// A failed first parse can leave partial entries in the map.
	mapping = nil
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &mapping); err != nil {
		return nil, types.NewAppError(types.ErrAPIResponse,
			"model output is not a valid translation mapping", err)
	}
	if mapping == nil {
		return nil, types.NewAppError(types.ErrAPIResponse,
			"model output contains no JSON object", nil)
	}
	return mapping, nil
}

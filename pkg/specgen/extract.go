package specgen

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extraction is the strict JSON document the model is asked to emit.
type extraction struct {
	VariableMappings []extractedMapping `json:"variableMappings"`
	Models           extractedModels    `json:"models"`
}

type extractedMapping struct {
	PreregVar  string               `json:"preregVar"`
	Candidates []extractedCandidate `json:"candidates"`
}

type extractedCandidate struct {
	Key   string  `json:"key"`
	Score float64 `json:"score"`
}

type extractedModels struct {
	Main        []extractedModel `json:"main"`
	Exploratory []extractedModel `json:"exploratory"`
	Robustness  []extractedModel `json:"robustness"`
}

type extractedModel struct {
	Family       string   `json:"family"`
	DV           string   `json:"dv"`
	IV           []string `json:"iv"`
	Controls     []string `json:"controls"`
	Interactions []string `json:"interactions"`
	Formula      string   `json:"formula"`
}

// decodeExtraction parses the model response, tolerating markdown code fences
// and leading prose around the JSON object.
func decodeExtraction(raw string) (*extraction, error) {
	payload := strings.TrimSpace(raw)
	if i := strings.Index(payload, "```"); i >= 0 {
		payload = payload[i+3:]
		payload = strings.TrimPrefix(payload, "json")
		if j := strings.Index(payload, "```"); j >= 0 {
			payload = payload[:j]
		}
	}
	start := strings.Index(payload, "{")
	end := strings.LastIndex(payload, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var out extraction
	if err := json.Unmarshal([]byte(payload[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("decode extraction: %w", err)
	}
	return &out, nil
}

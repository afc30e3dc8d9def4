package qsf

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Columns Qualtrics always includes in a CSV export, ahead of the survey's
// own questions.
var standardColumns = []string{
	"ResponseId",
	"Finished",
	"Progress",
	"Duration (in seconds)",
	"RecordedDate",
	"StartDate",
	"EndDate",
	"Status",
}

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// Parse reads a raw QSF export (JSON) and normalizes it into a SurveySpec.
// Only SQ (question) and FL (flow) elements contribute; embedded data fields
// are collected recursively from the flow payload.
func Parse(raw []byte) (*SurveySpec, error) {
	var root struct {
		SurveyEntry struct {
			SurveyName string `json:"SurveyName"`
		} `json:"SurveyEntry"`
		SurveyElements []struct {
			Element string          `json:"Element"`
			Payload json.RawMessage `json:"Payload"`
		} `json:"SurveyElements"`
	}
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("invalid QSF JSON: %w", err)
	}
	if root.SurveyElements == nil {
		return nil, fmt.Errorf("QSF missing SurveyElements array")
	}

	surveyName := root.SurveyEntry.SurveyName
	if surveyName == "" {
		surveyName = "Qualtrics Survey"
	}

	var questions []Question
	var embedded []EmbeddedData
	for _, el := range root.SurveyElements {
		switch el.Element {
		case "SQ":
			if q := parseQuestion(el.Payload); q != nil {
				questions = append(questions, *q)
			}
		case "FL":
			var payload interface{}
			if err := json.Unmarshal(el.Payload, &payload); err == nil {
				collectEmbeddedData(payload, &embedded)
			}
		}
	}

	sort.SliceStable(embedded, func(i, j int) bool { return embedded[i].Name < embedded[j].Name })
	embedded = dedupeEmbedded(embedded)

	return buildSpec(surveyName, questions, embedded), nil
}

func parseQuestion(raw json.RawMessage) *Question {
	var payload struct {
		QuestionID    string          `json:"QuestionID"`
		DataExportTag string          `json:"DataExportTag"`
		QuestionText  string          `json:"QuestionText"`
		QuestionType  json.RawMessage `json:"QuestionType"`
		Choices       map[string]struct {
			Display string `json:"Display"`
		} `json:"Choices"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}

	qid := payload.QuestionID
	if qid == "" {
		qid = "UNKNOWN"
	}
	exportTag := strings.TrimSpace(payload.DataExportTag)
	if exportTag == "" {
		exportTag = qid
	}

	q := &Question{
		QualtricsQID: qid,
		ExportTag:    exportTag,
		QuestionText: stripHTML(payload.QuestionText),
		QuestionType: parseQuestionType(payload.QuestionType),
	}
	for value, choice := range payload.Choices {
		q.Choices = append(q.Choices, Choice{Value: value, Label: stripHTML(choice.Display)})
	}
	sort.Slice(q.Choices, func(i, j int) bool { return q.Choices[i].Value < q.Choices[j].Value })
	return q
}

// QuestionType is either a bare string or an object with a Type field,
// depending on the QSF exporter version.
func parseQuestionType(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "unknown"
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil && asString != "" {
		return asString
	}
	var asObject struct {
		Type string `json:"Type"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil && asObject.Type != "" {
		return asObject.Type
	}
	return "unknown"
}

func collectEmbeddedData(node interface{}, out *[]EmbeddedData) {
	switch v := node.(type) {
	case map[string]interface{}:
		if t, _ := v["Type"].(string); t == "EmbeddedData" {
			if fields, ok := v["EmbeddedData"].([]interface{}); ok {
				for _, f := range fields {
					field, ok := f.(map[string]interface{})
					if !ok {
						continue
					}
					name, _ := field["Field"].(string)
					if strings.TrimSpace(name) == "" {
						continue
					}
					var defaultValue *string
					if val, ok := field["Value"].(string); ok {
						defaultValue = &val
					}
					*out = append(*out, EmbeddedData{Name: name, DefaultValue: defaultValue})
				}
			}
		}
		for _, child := range v {
			collectEmbeddedData(child, out)
		}
	case []interface{}:
		for _, child := range v {
			collectEmbeddedData(child, out)
		}
	}
}

func dedupeEmbedded(in []EmbeddedData) []EmbeddedData {
	out := in[:0]
	for _, f := range in {
		if len(out) > 0 && strings.EqualFold(out[len(out)-1].Name, f.Name) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func buildSpec(surveyName string, questions []Question, embeddedFields []EmbeddedData) *SurveySpec {
	expected := append([]string(nil), standardColumns...)
	labelMap := make(map[string]string)
	embedded := make([]string, 0, len(embeddedFields))
	for _, f := range embeddedFields {
		embedded = append(embedded, f.Name)
	}

	for _, q := range questions {
		if !containsColumn(expected, q.ExportTag) {
			expected = append(expected, q.ExportTag)
		}
		labelMap[q.ExportTag] = cleanLabel(q.QuestionText)
	}
	for _, name := range embedded {
		if !containsColumn(expected, name) {
			expected = append(expected, name)
		}
	}

	return &SurveySpec{
		SurveyName:         surveyName,
		Questions:          questions,
		EmbeddedData:       embedded,
		EmbeddedDataFields: embeddedFields,
		ExpectedColumns:    expected,
		LabelMap:           labelMap,
	}
}

func containsColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}

func stripHTML(input string) string {
	noTags := htmlTagPattern.ReplaceAllString(input, " ")
	return strings.Join(strings.Fields(noTags), " ")
}

func cleanLabel(text string) string {
	compact := strings.Join(strings.Fields(strings.NewReplacer("\n", " ", "\r", " ").Replace(text)), " ")
	if len(compact) > 200 {
		return compact[:197] + "..."
	}
	return compact
}

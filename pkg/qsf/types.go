package qsf

// Choice is one answer option of a survey question.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// EmbeddedData is a survey-flow field injected into the export.
type EmbeddedData struct {
	Name         string  `json:"name"`
	DefaultValue *string `json:"defaultValue"`
}

// Question is one survey question with its stable export column name.
type Question struct {
	QualtricsQID string   `json:"qualtricsQid"`
	ExportTag    string   `json:"exportTag"`
	QuestionText string   `json:"questionText"`
	QuestionType string   `json:"questionType"`
	Choices      []Choice `json:"choices"`
}

// SurveySpec is the normalized view of a QSF survey definition: the column
// inventory the exported data set will carry plus human-readable labels.
type SurveySpec struct {
	SurveyName         string            `json:"surveyName"`
	Questions          []Question        `json:"questions"`
	EmbeddedData       []string          `json:"embeddedData"`
	EmbeddedDataFields []EmbeddedData    `json:"embeddedDataFields"`
	ExpectedColumns    []string          `json:"expectedColumns"`
	LabelMap           map[string]string `json:"labelMap"`
}

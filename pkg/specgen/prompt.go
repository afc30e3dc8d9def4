package specgen

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"research-workflow-be/pkg/qsf"
)

// Prereg documents reach the prompt as plain text; anything longer than this
// is almost certainly a mis-selected file, and local models degrade badly on it.
const maxPreregChars = 24000

const extractionInstructions = `You are an assistant that links a study pre-registration to its Qualtrics survey export.

Return ONLY a JSON object with this exact shape:
{
  "variableMappings": [
    {"preregVar": "<variable name as written in the prereg>",
     "candidates": [{"key": "<survey column>", "score": 0.0}]}
  ],
  "models": {
    "main": [{"family": "", "dv": "", "iv": [], "controls": [], "interactions": [], "formula": ""}],
    "exploratory": [],
    "robustness": []
  }
}

Rules:
- candidates must use column names from the provided list, best match first, score in [0,1].
- Include every DV, IV and control variable the prereg names, even when no column matches (empty candidates).
- interactions use the form "A:B" with prereg variable names.
- family is the model family as stated (e.g. "OLS", "logistic/binomial", "poisson"); leave "" when unstated.
- Do not invent variables or models that the prereg does not describe.`

func buildExtractionPrompt(survey *qsf.SurveySpec, columns []string, preregText string) string {
	var sb strings.Builder
	sb.WriteString(extractionInstructions)

	sb.WriteString("\n\nSurvey: ")
	sb.WriteString(survey.SurveyName)
	sb.WriteString("\nAvailable columns:\n")
	for _, col := range columns {
		if label, ok := survey.LabelMap[col]; ok && label != "" {
			fmt.Fprintf(&sb, "- %s: %s\n", col, label)
		} else {
			fmt.Fprintf(&sb, "- %s\n", col)
		}
	}

	text := preregText
	if len(text) > maxPreregChars {
		cut := maxPreregChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	sb.WriteString("\nPre-registration document:\n---\n")
	sb.WriteString(text)
	sb.WriteString("\n---\n")
	return sb.String()
}

package specgen

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"research-workflow-be/pkg/analysisspec"
	"research-workflow-be/pkg/llm"
	"research-workflow-be/pkg/qsf"
	"research-workflow-be/pkg/resolve"
)

// LLMProducer extracts variable mappings and model specifications by
// prompting an LLM backend with the parsed survey and the raw prereg text.
type LLMProducer struct {
	provider llm.LLMProvider
}

var _ Producer = &LLMProducer{}

func NewLLMProducer(provider llm.LLMProvider) *LLMProducer {
	return &LLMProducer{provider: provider}
}

func (p *LLMProducer) GenerateSpec(ctx context.Context, args GenerateArgs) (*analysisspec.AnalysisSpec, error) {
	qsfBytes, err := os.ReadFile(args.QSFPath)
	if err != nil {
		return nil, fmt.Errorf("read qsf: %w", err)
	}
	preregBytes, err := os.ReadFile(args.PreregPath)
	if err != nil {
		return nil, fmt.Errorf("read prereg: %w", err)
	}

	survey, err := qsf.Parse(qsfBytes)
	if err != nil {
		return nil, fmt.Errorf("parse qsf: %w", err)
	}
	preregPlain, err := preregText(args.PreregPath, preregBytes)
	if err != nil {
		return nil, fmt.Errorf("parse prereg: %w", err)
	}

	columns := resolve.EligibleColumns(survey.ExpectedColumns)
	prompt := buildExtractionPrompt(survey, columns, preregPlain)

	raw, err := p.provider.Generate(ctx, prompt,
		llm.WithTemperature(0),
		llm.WithJSONOutput(),
	)
	if err != nil {
		return nil, fmt.Errorf("llm generate: %w", err)
	}

	extracted, err := decodeExtraction(raw)
	if err != nil {
		return nil, fmt.Errorf("llm response invalid: %w", err)
	}

	spec := assembleSpec(args, survey, columns, extracted, qsfBytes, preregBytes)
	analysisspec.Normalize(spec)
	return spec, nil
}

// A mapping is pre-resolved only when its best candidate clears the same
// bar the resolution UI treats as high confidence.
const autoResolveThreshold = 0.90

func assembleSpec(
	args GenerateArgs,
	survey *qsf.SurveySpec,
	columns []string,
	extracted *extraction,
	qsfBytes, preregBytes []byte,
) *analysisspec.AnalysisSpec {
	mappings := buildMappings(extracted.VariableMappings, columns)
	warnings := unresolvedWarnings(mappings)

	models := analysisspec.ModelsSpec{
		Main:        convertModels("main", extracted.Models.Main, mappings),
		Exploratory: convertModels("exploratory", extracted.Models.Exploratory, mappings),
		Robustness:  convertModels("robustness", extracted.Models.Robustness, mappings),
	}
	if len(models.Main) == 0 {
		warnings = append(warnings, analysisspec.Warning{
			Code:    analysisspec.WarnNoMainModels,
			Message: "No main models were extracted from prereg.",
			Details: map[string]interface{}{},
		})
	}

	return &analysisspec.AnalysisSpec{
		ProjectID:  args.ProjectID,
		StudyID:    args.StudyID,
		AnalysisID: args.AnalysisID,
		Inputs: analysisspec.InputsSpec{
			QSF:    analysisspec.InputRef{Path: args.QSFPath, SHA256: sha256Hex(qsfBytes)},
			Prereg: analysisspec.InputRef{Path: args.PreregPath, SHA256: sha256Hex(preregBytes)},
		},
		DataContract: analysisspec.DataContractSpec{
			Source: "qualtrics_csv",
			IDColumns: map[string]string{
				"response_id":    "ResponseId",
				"participant_id": "participant_id",
			},
			ExpectedColumns:  survey.ExpectedColumns,
			LabelMap:         survey.LabelMap,
			Exclusions:       []analysisspec.ExclusionSpec{},
			DerivedVariables: []analysisspec.DerivedVariableSpec{},
		},
		VariableMappings: mappings,
		Models:           models,
		Outputs: analysisspec.OutputsSpec{
			Tables:  []string{"descriptives", "balance_checks", "model_summary"},
			Figures: []string{"histograms", "box_by_condition", "coefplots"},
		},
		TemplateBindings: analysisspec.TemplateBindingsSpec{
			TemplateSet:  args.TemplateSet,
			StyleProfile: args.StyleProfile,
			Paths: map[string]string{
				"data_raw":    "05_data/raw/data.csv",
				"data_clean":  "05_data/clean/data_clean.csv",
				"tables_dir":  "07_outputs/tables",
				"figures_dir": "07_outputs/figures",
			},
			Packages: []string{
				"tidyverse", "janitor", "broom", "flextable",
				"officer", "ggpubr", "modelsummary",
			},
		},
		Warnings: warnings,
	}
}

// buildMappings converts extracted candidates, restricting keys to real
// survey columns. A variable the model returned nothing usable for falls back
// to an exact name match against the column list.
func buildMappings(extracted []extractedMapping, columns []string) []analysisspec.VariableMapping {
	byNorm := make(map[string]string, len(columns))
	valid := make(map[string]bool, len(columns))
	for _, c := range columns {
		byNorm[strings.ToLower(strings.TrimSpace(c))] = c
		valid[c] = true
	}

	out := make([]analysisspec.VariableMapping, 0, len(extracted))
	for _, m := range extracted {
		preregVar := strings.TrimSpace(m.PreregVar)
		if preregVar == "" {
			continue
		}
		candidates := make([]analysisspec.MappingCandidate, 0, len(m.Candidates))
		for _, c := range m.Candidates {
			if !valid[c.Key] {
				continue
			}
			candidates = append(candidates, analysisspec.MappingCandidate{Key: c.Key, Score: c.Score})
		}
		if len(candidates) == 0 {
			if exact, ok := byNorm[strings.ToLower(preregVar)]; ok {
				candidates = append(candidates, analysisspec.MappingCandidate{Key: exact, Score: 1.0})
			}
		}

		mapping := analysisspec.VariableMapping{
			PreregVar:  preregVar,
			Candidates: candidates,
		}
		if best := bestCandidate(candidates); best != nil && best.Score >= autoResolveThreshold {
			resolved := best.Key
			mapping.ResolvedTo = &resolved
		}
		out = append(out, mapping)
	}
	return out
}

func bestCandidate(candidates []analysisspec.MappingCandidate) *analysisspec.MappingCandidate {
	var best *analysisspec.MappingCandidate
	for i := range candidates {
		if best == nil || candidates[i].Score > best.Score {
			best = &candidates[i]
		}
	}
	return best
}

func unresolvedWarnings(mappings []analysisspec.VariableMapping) []analysisspec.Warning {
	warnings := []analysisspec.Warning{}
	for _, m := range mappings {
		if m.ResolvedTo != nil && *m.ResolvedTo != "" {
			continue
		}
		warnings = append(warnings, analysisspec.Warning{
			Code:    analysisspec.WarnUnresolvedVariable,
			Message: fmt.Sprintf("Variable %q could not be confidently mapped to a survey column.", m.PreregVar),
			Details: map[string]interface{}{"preregVar": m.PreregVar},
		})
	}
	return warnings
}

func convertModels(prefix string, in []extractedModel, mappings []analysisspec.VariableMapping) []analysisspec.ModelSpec {
	resolved := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		if m.ResolvedTo != nil && *m.ResolvedTo != "" {
			resolved[strings.ToLower(m.PreregVar)] = true
		}
	}

	out := make([]analysisspec.ModelSpec, 0, len(in))
	for i, m := range in {
		spec := analysisspec.ModelSpec{
			ID:           fmt.Sprintf("%s_%d", prefix, i+1),
			Family:       m.Family,
			DV:           strings.TrimSpace(m.DV),
			IV:           trimAll(m.IV),
			Controls:     trimAll(m.Controls),
			Interactions: trimAll(m.Interactions),
			Formula:      strings.TrimSpace(m.Formula),
		}
		if spec.DV == "" {
			continue
		}
		spec.UnresolvedVariables = unresolvedIn(spec, resolved)
		out = append(out, spec)
	}
	return out
}

func unresolvedIn(m analysisspec.ModelSpec, resolved map[string]bool) []string {
	seen := map[string]bool{}
	unresolved := []string{}
	record := func(v string) {
		key := strings.ToLower(v)
		if v == "" || seen[key] || resolved[key] {
			return
		}
		seen[key] = true
		unresolved = append(unresolved, v)
	}
	record(m.DV)
	for _, v := range m.IV {
		record(v)
	}
	for _, v := range m.Controls {
		record(v)
	}
	return unresolved
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

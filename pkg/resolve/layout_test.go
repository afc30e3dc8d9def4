package resolve

import (
	"reflect"
	"testing"

	"research-workflow-be/pkg/analysisspec"
)

func TestClassifyFamily(t *testing.T) {
	tests := []struct {
		family string
		want   string
	}{
		{"gaussian", ModelOLS},
		{"OLS regression", ModelOLS},
		{"binomial", ModelLogit},
		{"logistic (logit)", ModelLogit},
		{"Poisson", ModelPoisson},
		{"", ModelOLS},
	}
	for _, tt := range tests {
		if got := classifyFamily(tt.family); got != tt.want {
			t.Errorf("classifyFamily(%q) = %q, want %q", tt.family, got, tt.want)
		}
	}
}

func TestBuildLayoutsFromModels(t *testing.T) {
	s := NewSelections()
	s.Override("outcome", "Q1")
	s.Override("cond", "condition")
	s.Override("group", "grp")
	s.Override("age", "age_years")

	models := []analysisspec.ModelSpec{
		{
			ID:           "h1",
			Family:       "binomial",
			DV:           "outcome",
			IV:           []string{"cond"},
			Controls:     []string{"age", "unknown_ctrl"},
			Interactions: []string{"cond:group"},
		},
		{
			Family: "gaussian",
			DV:     "outcome",
		},
	}

	layouts := BuildLayoutsFromModels(models, s)
	if len(layouts) != 2 {
		t.Fatalf("len(layouts) = %d, want 2", len(layouts))
	}

	first := layouts[0]
	if first.Name != "h1" {
		t.Errorf("Name = %q, want h1", first.Name)
	}
	if first.ModelType != ModelLogit {
		t.Errorf("ModelType = %q, want logit", first.ModelType)
	}
	if first.OutcomeVar != "Q1" || first.TreatmentVar != "condition" {
		t.Errorf("remapped vars = (%q, %q), want (Q1, condition)", first.OutcomeVar, first.TreatmentVar)
	}
	if first.Layout != LayoutInteraction || first.InteractionVar != "grp" {
		t.Errorf("interaction = (%q, %q), want (interaction, grp)", first.Layout, first.InteractionVar)
	}
	// Unresolved references keep their original name.
	if first.Covariates != "age_years, unknown_ctrl" {
		t.Errorf("Covariates = %q", first.Covariates)
	}

	second := layouts[1]
	if second.Name != "model_2" {
		t.Errorf("unnamed model got %q, want model_2", second.Name)
	}
	if second.TreatmentVar != "treat" {
		t.Errorf("TreatmentVar fallback = %q, want treat", second.TreatmentVar)
	}
	if second.Layout != LayoutSimple {
		t.Errorf("Layout = %q, want simple", second.Layout)
	}
}

func TestBuildLayoutsFromModelsOnlyFirstInteraction(t *testing.T) {
	models := []analysisspec.ModelSpec{{
		ID:           "m",
		DV:           "y",
		IV:           []string{"x"},
		Interactions: []string{"x:z", "x:w"},
	}}
	layouts := BuildLayoutsFromModels(models, nil)
	if layouts[0].InteractionVar != "z" {
		t.Errorf("InteractionVar = %q, want z (second term of first interaction only)", layouts[0].InteractionVar)
	}
}

func TestBuildLayoutsFromManualSelection(t *testing.T) {
	t.Run("requires dv and iv", func(t *testing.T) {
		if got := BuildLayoutsFromManualSelection(nil, []string{"x"}, nil, TemplateSimpleOLS); len(got) != 0 {
			t.Errorf("missing DV should yield no layouts, got %d", len(got))
		}
		if got := BuildLayoutsFromManualSelection([]string{"y"}, nil, nil, TemplateSimpleOLS); len(got) != 0 {
			t.Errorf("missing IV should yield no layouts, got %d", len(got))
		}
	})

	t.Run("simple ols per dv", func(t *testing.T) {
		layouts := BuildLayoutsFromManualSelection([]string{"y1", "y2"}, []string{"x"}, []string{"c1", "c2"}, TemplateSimpleOLS)
		if len(layouts) != 2 {
			t.Fatalf("len = %d, want 2", len(layouts))
		}
		if layouts[0].Name != "model_1" || layouts[1].Name != "model_2" {
			t.Errorf("names = [%s, %s]", layouts[0].Name, layouts[1].Name)
		}
		if layouts[1].OutcomeVar != "y2" || layouts[1].TreatmentVar != "x" {
			t.Errorf("second layout = %+v", layouts[1])
		}
		if layouts[0].Covariates != "c1, c2" {
			t.Errorf("Covariates = %q", layouts[0].Covariates)
		}
	})

	t.Run("factorial needs two ivs", func(t *testing.T) {
		layouts := BuildLayoutsFromManualSelection([]string{"y"}, []string{"a", "b"}, nil, TemplateFactorial)
		if len(layouts) != 1 {
			t.Fatalf("len = %d, want 1", len(layouts))
		}
		l := layouts[0]
		if l.Name != "factorial_1" || l.Layout != LayoutInteraction || l.TreatmentVar != "a" || l.InteractionVar != "b" {
			t.Errorf("factorial layout = %+v", l)
		}

		// One IV degrades to the simple shape.
		layouts = BuildLayoutsFromManualSelection([]string{"y"}, []string{"a"}, nil, TemplateFactorial)
		if len(layouts) != 1 || layouts[0].Layout != LayoutSimple || layouts[0].Name != "model_1" {
			t.Errorf("single-IV factorial = %+v", layouts)
		}
	})
}

func TestDeriveLayouts(t *testing.T) {
	spec := &analysisspec.AnalysisSpec{
		Models: analysisspec.ModelsSpec{
			Main: []analysisspec.ModelSpec{{ID: "h1", DV: "y", IV: []string{"x"}}},
		},
	}
	s := NewSelections()
	s.DV = []string{"manual_y"}
	s.IV = []string{"manual_x"}

	t.Run("auto prefers extracted models", func(t *testing.T) {
		layouts := DeriveLayouts(spec, s, TemplateAuto)
		if len(layouts) != 1 || layouts[0].Name != "h1" {
			t.Errorf("layouts = %+v, want the extracted model", layouts)
		}
	})

	t.Run("auto without models falls back to manual", func(t *testing.T) {
		layouts := DeriveLayouts(&analysisspec.AnalysisSpec{}, s, TemplateAuto)
		if len(layouts) != 1 || layouts[0].OutcomeVar != "manual_y" {
			t.Errorf("layouts = %+v, want manual derivation", layouts)
		}
	})

	t.Run("explicit template overrides extracted models", func(t *testing.T) {
		layouts := DeriveLayouts(spec, s, TemplateSimpleOLS)
		if len(layouts) != 1 || layouts[0].OutcomeVar != "manual_y" {
			t.Errorf("layouts = %+v, want manual derivation", layouts)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		a := DeriveLayouts(spec, s, TemplateAuto)
		b := DeriveLayouts(spec, s, TemplateAuto)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("repeated derivation differs: %+v != %+v", a, b)
		}
	})
}

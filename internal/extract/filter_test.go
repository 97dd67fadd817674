package extract

import (
	"testing"

	"github.com/arjunrs/paperbank/internal/model"
)

func TestFilterValid(t *testing.T) {
	allTypes := model.NewTypeSet(model.AllQuestionTypes...)

	tests := []struct {
		name    string
		in      model.ExtractedQuestion
		enabled model.TypeSet
		keep    bool
	}{
		{
			name:    "valid mcq",
			in:      model.ExtractedQuestion{QuestionNumber: "1", QuestionStatement: "Pick", QuestionType: "MCQ", Options: []string{"a", "b"}},
			enabled: allTypes,
			keep:    true,
		},
		{
			name:    "empty number",
			in:      model.ExtractedQuestion{QuestionNumber: "  ", QuestionStatement: "Pick", QuestionType: "MCQ"},
			enabled: allTypes,
			keep:    false,
		},
		{
			name:    "empty statement",
			in:      model.ExtractedQuestion{QuestionNumber: "1", QuestionStatement: "", QuestionType: "MCQ"},
			enabled: allTypes,
			keep:    false,
		},
		{
			name:    "unknown type",
			in:      model.ExtractedQuestion{QuestionNumber: "1", QuestionStatement: "Pick", QuestionType: "TrueFalse"},
			enabled: allTypes,
			keep:    false,
		},
		{
			name:    "disabled type",
			in:      model.ExtractedQuestion{QuestionNumber: "1", QuestionStatement: "Explain", QuestionType: "Subjective"},
			enabled: model.NewTypeSet(model.TypeMCQ),
			keep:    false,
		},
		{
			name:    "case insensitive type",
			in:      model.ExtractedQuestion{QuestionNumber: "1", QuestionStatement: "Pick", QuestionType: "mcq"},
			enabled: allTypes,
			keep:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept := FilterValid([]model.ExtractedQuestion{tt.in}, tt.enabled)
			if tt.keep && len(kept) != 1 {
				t.Fatalf("expected record kept, got %d", len(kept))
			}
			if !tt.keep && len(kept) != 0 {
				t.Fatalf("expected record dropped, got %d", len(kept))
			}
		})
	}
}

func TestFilterValidNormalizes(t *testing.T) {
	kept := FilterValid([]model.ExtractedQuestion{
		{QuestionNumber: "3", QuestionStatement: "Compute", QuestionType: "nat", Options: []string{"stray"}},
	}, model.NewTypeSet(model.AllQuestionTypes...))

	if len(kept) != 1 {
		t.Fatalf("expected 1 record, got %d", len(kept))
	}
	if kept[0].QuestionType != model.TypeNAT {
		t.Errorf("expected canonical NAT, got %q", kept[0].QuestionType)
	}
	if kept[0].Options != nil {
		t.Errorf("options must be cleared for NAT, got %v", kept[0].Options)
	}
}

func TestFilterValidEmptyEnabledSet(t *testing.T) {
	kept := FilterValid([]model.ExtractedQuestion{
		{QuestionNumber: "1", QuestionStatement: "Pick", QuestionType: "MCQ"},
	}, model.NewTypeSet())
	if len(kept) != 0 {
		t.Errorf("empty enabled set should keep nothing, got %d", len(kept))
	}
}

package model

import (
	"strings"
	"testing"
)

func TestParseQuestionType(t *testing.T) {
	tests := []struct {
		in      string
		want    QuestionType
		wantErr bool
	}{
		{"MCQ", TypeMCQ, false},
		{"mcq", TypeMCQ, false},
		{" msq ", TypeMSQ, false},
		{"NAT", TypeNAT, false},
		{"subjective", TypeSubjective, false},
		{"TrueFalse", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseQuestionType(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseQuestionType(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseQuestionType(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseQuestionType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHasOptions(t *testing.T) {
	if !TypeMCQ.HasOptions() || !TypeMSQ.HasOptions() {
		t.Error("choice types must carry options")
	}
	if TypeNAT.HasOptions() || TypeSubjective.HasOptions() {
		t.Error("NAT and Subjective must not carry options")
	}
}

func TestParseTypeSet(t *testing.T) {
	s, err := ParseTypeSet([]string{"mcq", "NAT"})
	if err != nil {
		t.Fatalf("ParseTypeSet: %v", err)
	}
	if !s.Has(TypeMCQ) || !s.Has(TypeNAT) || s.Has(TypeMSQ) {
		t.Errorf("unexpected set: %v", s)
	}
	if got := strings.Join(s.Strings(), ","); got != "MCQ,NAT" {
		t.Errorf("Strings() = %q, want display order", got)
	}

	if _, err := ParseTypeSet([]string{"bogus"}); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestDefaultSchemesCoverAllTypes(t *testing.T) {
	schemes := DefaultSchemes()
	if len(schemes) != len(AllQuestionTypes) {
		t.Fatalf("expected %d schemes, got %d", len(AllQuestionTypes), len(schemes))
	}
	seen := map[QuestionType]bool{}
	for _, m := range schemes {
		seen[m.QuestionType] = true
	}
	for _, qt := range AllQuestionTypes {
		if !seen[qt] {
			t.Errorf("no default scheme for %s", qt)
		}
	}
}

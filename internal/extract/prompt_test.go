package extract

import (
	"strings"
	"testing"

	"github.com/arjunrs/paperbank/internal/model"
)

func TestBuildPromptSections(t *testing.T) {
	p := buildPrompt("syllabus: calculus", []string{"Page 2: earlier questions"}, model.NewTypeSet(model.TypeMCQ, model.TypeNAT))

	for _, want := range []string{
		"PRIOR CONTEXT:\nsyllabus: calculus",
		"CONTEXT FROM PREVIOUS PAGES:\nPage 2: earlier questions",
		"Allowed question types: MCQ, NAT.",
		"JSON array",
		"return []",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPromptOmitsEmptySections(t *testing.T) {
	p := buildPrompt("", nil, model.NewTypeSet(model.TypeMCQ))
	if strings.Contains(p, "PRIOR CONTEXT") {
		t.Error("prompt should omit prior context section when empty")
	}
	if strings.Contains(p, "CONTEXT FROM PREVIOUS PAGES") {
		t.Error("prompt should omit memory section when empty")
	}
}

package extract

import (
	"strings"

	"github.com/arjunrs/paperbank/internal/model"
)

// buildPrompt assembles the instructional prompt for one page: caller-supplied
// prior context, the memory window for recent pages, and the fixed extraction
// rules with the enabled type vocabulary and the exact output schema.
func buildPrompt(priorContext string, memoryLines []string, enabled model.TypeSet) string {
	var sb strings.Builder
	sb.WriteString("You are an exam paper analyzer. The image is one page of an exam paper.\n")
	sb.WriteString("Extract every exam question visible on this page.\n\n")

	if priorContext != "" {
		sb.WriteString("PRIOR CONTEXT:\n" + priorContext + "\n\n")
	}
	if len(memoryLines) > 0 {
		sb.WriteString("CONTEXT FROM PREVIOUS PAGES:\n")
		for _, line := range memoryLines {
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("EXTRACTION RULES:\n")
	sb.WriteString("- Extract questions exactly as printed, including mathematical notation.\n")
	sb.WriteString("- Write math as LaTeX delimited by $...$ for inline and $$...$$ for display.\n")
	sb.WriteString("- Escape every LaTeX backslash as a double backslash (\\\\frac, \\\\sqrt) and escape quotes inside strings.\n")
	sb.WriteString("- A question continuing from a previous page should be extracted only if its statement is readable on this page.\n")
	sb.WriteString("- Allowed question types: " + strings.Join(enabled.Strings(), ", ") + ".\n")
	sb.WriteString("- MCQ has exactly one correct option, MSQ has one or more, NAT is numerical with no options, Subjective is free-form.\n")
	sb.WriteString("- Include options only for MCQ and MSQ questions, in printed order.\n")
	sb.WriteString("- If a question references a figure or diagram, set has_image to true and describe the figure in image_description.\n\n")

	sb.WriteString("Respond ONLY with a JSON array, no markdown code fences, no commentary.\n")
	sb.WriteString("Each element must have this exact shape:\n")
	sb.WriteString(`[{"question_number": "1", "question_statement": "Evaluate $\\int_0^1 x^2 dx$", "question_type": "MCQ", "options": ["$1/3$", "$1/2$", "$1$", "$2$"], "has_image": false, "image_description": "", "marks": 4, "difficulty": "medium", "subject": "Mathematics", "topic": "Integration"}]`)
	sb.WriteString("\n\nIf the page contains no questions (instructions, cover page, blank), return [].\n")

	return sb.String()
}

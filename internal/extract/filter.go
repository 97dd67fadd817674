package extract

import (
	"strings"

	"github.com/arjunrs/paperbank/internal/model"
)

// FilterValid keeps the records that satisfy the validity invariants:
// non-empty question number, non-empty statement, and a question type inside
// the enabled set. Invalid entries are dropped, never surfaced as partial
// errors. The kept records are normalized: the type name is canonicalized and
// options are cleared for types that do not carry them.
func FilterValid(qs []model.ExtractedQuestion, enabled model.TypeSet) []model.ExtractedQuestion {
	var kept []model.ExtractedQuestion
	for _, q := range qs {
		if strings.TrimSpace(q.QuestionNumber) == "" {
			continue
		}
		if strings.TrimSpace(q.QuestionStatement) == "" {
			continue
		}
		t, err := model.ParseQuestionType(string(q.QuestionType))
		if err != nil || !enabled.Has(t) {
			continue
		}
		q.QuestionType = t
		if !t.HasOptions() {
			q.Options = nil
		}
		kept = append(kept, q)
	}
	return kept
}

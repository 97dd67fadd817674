package store

import (
	"fmt"
	"time"

	"github.com/arjunrs/paperbank/internal/model"
)

// BuildExport assembles the accepted question bank: every accepted question
// joined with its paper and the marking scheme for its type.
func (s *Store) BuildExport() (model.PaperExport, error) {
	var out model.PaperExport
	out.ExportedAt = time.Now()

	papers, err := s.ListPapers()
	if err != nil {
		return out, fmt.Errorf("list papers: %w", err)
	}
	paperNames := make(map[int64]string, len(papers))
	for _, p := range papers {
		paperNames[p.ID] = p.Name
		out.Papers = append(out.Papers, model.PaperResult{
			ID:         p.ID,
			Name:       p.Name,
			PageCount:  p.PageCount,
			Status:     p.Status,
			UploadedAt: p.UploadedAt,
		})
	}

	schemes, err := s.ListSchemes()
	if err != nil {
		return out, fmt.Errorf("list schemes: %w", err)
	}
	out.Schemes = schemes
	schemeByType := make(map[model.QuestionType]model.MarkingScheme, len(schemes))
	for _, m := range schemes {
		schemeByType[m.QuestionType] = m
	}

	questions, err := s.ListAcceptedQuestions()
	if err != nil {
		return out, fmt.Errorf("list accepted questions: %w", err)
	}
	for _, q := range questions {
		scheme := schemeByType[q.QuestionType]
		out.Questions = append(out.Questions, model.QuestionExport{
			PaperID:        q.PaperID,
			PaperName:      paperNames[q.PaperID],
			PageNumber:     q.PageNumber,
			Number:         q.QuestionNumber,
			Statement:      q.QuestionStatement,
			Type:           q.QuestionType,
			Options:        q.Options,
			HasImage:       q.HasImage,
			ImageDesc:      q.ImageDescription,
			Subject:        q.Subject,
			Topic:          q.Topic,
			Difficulty:     q.Difficulty,
			CorrectMarks:   scheme.CorrectMarks,
			IncorrectMarks: scheme.IncorrectMarks,
			SkippedMarks:   scheme.SkippedMarks,
			PartialMarks:   scheme.PartialMarks,
			TimeSeconds:    scheme.TimeSeconds,
		})
	}

	return out, nil
}

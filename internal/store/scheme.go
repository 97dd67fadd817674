package store

import (
	"database/sql"

	"github.com/arjunrs/paperbank/internal/model"
)

// UpsertScheme inserts or updates the marking scheme for a question type.
func (s *Store) UpsertScheme(m model.MarkingScheme) error {
	_, err := s.db.Exec(
		`INSERT INTO marking_schemes (question_type, correct_marks, incorrect_marks, skipped_marks, partial_marks, time_seconds)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(question_type) DO UPDATE SET
		 correct_marks = ?, incorrect_marks = ?, skipped_marks = ?, partial_marks = ?, time_seconds = ?`,
		m.QuestionType, m.CorrectMarks, m.IncorrectMarks, m.SkippedMarks, m.PartialMarks, m.TimeSeconds,
		m.CorrectMarks, m.IncorrectMarks, m.SkippedMarks, m.PartialMarks, m.TimeSeconds,
	)
	return err
}

// GetScheme returns the marking scheme for a question type, or nil if unset.
func (s *Store) GetScheme(t model.QuestionType) (*model.MarkingScheme, error) {
	var m model.MarkingScheme
	err := s.db.QueryRow(
		`SELECT question_type, correct_marks, incorrect_marks, skipped_marks, partial_marks, time_seconds
		 FROM marking_schemes WHERE question_type = ?`, t,
	).Scan(&m.QuestionType, &m.CorrectMarks, &m.IncorrectMarks, &m.SkippedMarks, &m.PartialMarks, &m.TimeSeconds)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListSchemes returns all marking schemes in type display order.
func (s *Store) ListSchemes() ([]model.MarkingScheme, error) {
	var schemes []model.MarkingScheme
	for _, t := range model.AllQuestionTypes {
		m, err := s.GetScheme(t)
		if err != nil {
			return nil, err
		}
		if m != nil {
			schemes = append(schemes, *m)
		}
	}
	return schemes, nil
}

// SeedDefaultSchemes inserts the default schemes for any type that has none.
// Existing operator-edited schemes are left alone.
func (s *Store) SeedDefaultSchemes() error {
	for _, m := range model.DefaultSchemes() {
		existing, err := s.GetScheme(m.QuestionType)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := s.UpsertScheme(m); err != nil {
			return err
		}
	}
	return nil
}

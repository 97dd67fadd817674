package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/arjunrs/paperbank/internal/model"
)

const questionColumns = `id, paper_id, page_number, review, number, statement, question_type,
	options, has_image, image_description, marks, difficulty, subject, topic, created_at`

// InsertQuestions stores a page's extracted questions in one transaction,
// all pending review.
func (s *Store) InsertQuestions(paperID int64, pageNumber int, qs []model.ExtractedQuestion) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	for _, q := range qs {
		opts, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT INTO questions (paper_id, page_number, review, number, statement, question_type,
			 options, has_image, image_description, marks, difficulty, subject, topic, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			paperID, pageNumber, model.ReviewPending, q.QuestionNumber, q.QuestionStatement, q.QuestionType,
			string(opts), q.HasImage, q.ImageDescription, q.Marks, q.Difficulty, q.Subject, q.Topic, now,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func scanQuestion(row interface{ Scan(...any) error }) (model.Question, error) {
	var q model.Question
	var opts string
	err := row.Scan(&q.ID, &q.PaperID, &q.PageNumber, &q.Review, &q.QuestionNumber, &q.QuestionStatement,
		&q.QuestionType, &opts, &q.HasImage, &q.ImageDescription, &q.Marks, &q.Difficulty, &q.Subject,
		&q.Topic, &q.CreatedAt)
	if err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
		return q, err
	}
	return q, nil
}

// GetQuestion returns a question by ID.
func (s *Store) GetQuestion(id int64) (model.Question, error) {
	row := s.db.QueryRow(`SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	return scanQuestion(row)
}

// ListQuestionsByPaper returns a paper's questions in page then insert order,
// optionally filtered by review status (empty means all).
func (s *Store) ListQuestionsByPaper(paperID int64, review model.ReviewStatus) ([]model.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE paper_id = ?`
	args := []any{paperID}
	if review != "" {
		query += ` AND review = ?`
		args = append(args, review)
	}
	query += ` ORDER BY page_number, id`
	return s.queryQuestions(query, args...)
}

// ListAcceptedQuestions returns every accepted question across papers.
func (s *Store) ListAcceptedQuestions() ([]model.Question, error) {
	return s.queryQuestions(
		`SELECT ` + questionColumns + ` FROM questions WHERE review = 'accepted' ORDER BY paper_id, page_number, id`,
	)
}

func (s *Store) queryQuestions(query string, args ...any) ([]model.Question, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// SetQuestionReview transitions a question's review status.
func (s *Store) SetQuestionReview(id int64, review model.ReviewStatus) error {
	res, err := s.db.Exec(`UPDATE questions SET review = ? WHERE id = ?`, review, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateQuestion overwrites a question's extracted content after an operator
// edit, leaving its review status untouched.
func (s *Store) UpdateQuestion(id int64, q model.ExtractedQuestion) error {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(
		`UPDATE questions SET number = ?, statement = ?, question_type = ?, options = ?,
		 has_image = ?, image_description = ?, marks = ?, difficulty = ?, subject = ?, topic = ?
		 WHERE id = ?`,
		q.QuestionNumber, q.QuestionStatement, q.QuestionType, string(opts),
		q.HasImage, q.ImageDescription, q.Marks, q.Difficulty, q.Subject, q.Topic, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

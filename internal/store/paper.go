package store

import (
	"time"

	"github.com/arjunrs/paperbank/internal/model"
)

// InsertPaper stores a newly uploaded paper.
func (s *Store) InsertPaper(p model.Paper) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO papers (name, file_path, page_count, status, error, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.Name, p.FilePath, p.PageCount, model.PaperUploaded, "", time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPaper returns a paper by ID.
func (s *Store) GetPaper(id int64) (model.Paper, error) {
	var p model.Paper
	err := s.db.QueryRow(
		`SELECT id, name, file_path, page_count, status, error, uploaded_at FROM papers WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.FilePath, &p.PageCount, &p.Status, &p.Error, &p.UploadedAt)
	return p, err
}

// ListPapers returns all papers, newest first.
func (s *Store) ListPapers() ([]model.Paper, error) {
	rows, err := s.db.Query(
		`SELECT id, name, file_path, page_count, status, error, uploaded_at FROM papers ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var papers []model.Paper
	for rows.Next() {
		var p model.Paper
		if err := rows.Scan(&p.ID, &p.Name, &p.FilePath, &p.PageCount, &p.Status, &p.Error, &p.UploadedAt); err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// UpdatePaperStatus transitions a paper's lifecycle state. The error message
// is cleared on non-failure states.
func (s *Store) UpdatePaperStatus(id int64, status model.PaperStatus, errMsg string) error {
	if status != model.PaperFailed {
		errMsg = ""
	}
	_, err := s.db.Exec(`UPDATE papers SET status = ?, error = ? WHERE id = ?`, status, errMsg, id)
	return err
}

// ClaimForExtraction atomically moves a paper into the extracting state.
// Returns false when another run already holds the paper.
func (s *Store) ClaimForExtraction(id int64) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE papers SET status = ?, error = '' WHERE id = ? AND status <> ?`,
		model.PaperExtracting, id, model.PaperExtracting,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetPaperPageCount records the page count discovered at rasterization time.
func (s *Store) SetPaperPageCount(id int64, count int) error {
	_, err := s.db.Exec(`UPDATE papers SET page_count = ? WHERE id = ?`, count, id)
	return err
}

// UpsertPageResult records the outcome of extracting one page.
func (s *Store) UpsertPageResult(r model.PageResult) error {
	_, err := s.db.Exec(
		`INSERT INTO pages (paper_id, page_number, context, question_count)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(paper_id, page_number) DO UPDATE SET context = ?, question_count = ?`,
		r.PaperID, r.PageNumber, r.Context, r.QuestionCount, r.Context, r.QuestionCount,
	)
	return err
}

// GetPageResults returns per-page results for a paper in page order.
func (s *Store) GetPageResults(paperID int64) ([]model.PageResult, error) {
	rows, err := s.db.Query(
		`SELECT paper_id, page_number, context, question_count FROM pages
		 WHERE paper_id = ? ORDER BY page_number`, paperID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.PageResult
	for rows.Next() {
		var r model.PageResult
		if err := rows.Scan(&r.PaperID, &r.PageNumber, &r.Context, &r.QuestionCount); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

package store

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/arjunrs/paperbank/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestPaper(t *testing.T, s *Store, name string) int64 {
	t.Helper()
	id, err := s.InsertPaper(model.Paper{Name: name, FilePath: "/tmp/" + name + ".pdf", PageCount: 3})
	if err != nil {
		t.Fatalf("insert paper: %v", err)
	}
	return id
}

func TestPaperLifecycle(t *testing.T) {
	s := newTestStore(t)
	id := insertTestPaper(t, s, "gate-2024")

	p, err := s.GetPaper(id)
	if err != nil {
		t.Fatalf("get paper: %v", err)
	}
	if p.Status != model.PaperUploaded {
		t.Errorf("new paper status = %q, want uploaded", p.Status)
	}

	if err := s.UpdatePaperStatus(id, model.PaperFailed, "pdftoppm exited 1"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	p, _ = s.GetPaper(id)
	if p.Status != model.PaperFailed || p.Error != "pdftoppm exited 1" {
		t.Errorf("failed paper = %q/%q", p.Status, p.Error)
	}

	// Moving out of failed clears the stored error.
	if err := s.UpdatePaperStatus(id, model.PaperExtracted, "stale"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	p, _ = s.GetPaper(id)
	if p.Status != model.PaperExtracted || p.Error != "" {
		t.Errorf("extracted paper = %q/%q, want extracted with empty error", p.Status, p.Error)
	}

	if err := s.SetPaperPageCount(id, 12); err != nil {
		t.Fatalf("set page count: %v", err)
	}
	p, _ = s.GetPaper(id)
	if p.PageCount != 12 {
		t.Errorf("page count = %d, want 12", p.PageCount)
	}
}

func TestListPapersNewestFirst(t *testing.T) {
	s := newTestStore(t)
	first := insertTestPaper(t, s, "first")
	second := insertTestPaper(t, s, "second")

	papers, err := s.ListPapers()
	if err != nil {
		t.Fatalf("list papers: %v", err)
	}
	if len(papers) != 2 {
		t.Fatalf("expected 2 papers, got %d", len(papers))
	}
	if papers[0].ID != second || papers[1].ID != first {
		t.Errorf("papers not newest first: %d, %d", papers[0].ID, papers[1].ID)
	}
}

func TestGetPaperMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetPaper(99)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}

func TestPageResultsUpsert(t *testing.T) {
	s := newTestStore(t)
	id := insertTestPaper(t, s, "p")

	r := model.PageResult{PaperID: id, PageNumber: 1, Context: "initial", QuestionCount: 2}
	if err := s.UpsertPageResult(r); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	r.Context = "revised"
	r.QuestionCount = 5
	if err := s.UpsertPageResult(r); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	results, err := s.GetPageResults(id)
	if err != nil {
		t.Fatalf("get page results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 row after upsert, got %d", len(results))
	}
	if results[0].Context != "revised" || results[0].QuestionCount != 5 {
		t.Errorf("upsert did not overwrite: %+v", results[0])
	}
}

func TestQuestionInsertListReview(t *testing.T) {
	s := newTestStore(t)
	id := insertTestPaper(t, s, "p")

	qs := []model.ExtractedQuestion{
		{QuestionNumber: "1", QuestionStatement: "Pick one", QuestionType: model.TypeMCQ, Options: []string{"a", "b"}},
		{QuestionNumber: "2", QuestionStatement: "Compute", QuestionType: model.TypeNAT, Marks: 2},
	}
	if err := s.InsertQuestions(id, 1, qs); err != nil {
		t.Fatalf("insert questions: %v", err)
	}

	all, err := s.ListQuestionsByPaper(id, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(all))
	}
	if all[0].Review != model.ReviewPending {
		t.Errorf("new question review = %q, want pending", all[0].Review)
	}
	if got := all[0].Options; len(got) != 2 || got[0] != "a" {
		t.Errorf("options round trip: %v", got)
	}
	if all[1].Options != nil {
		t.Errorf("NAT options should stay empty, got %v", all[1].Options)
	}

	if err := s.SetQuestionReview(all[0].ID, model.ReviewAccepted); err != nil {
		t.Fatalf("set review: %v", err)
	}
	accepted, err := s.ListQuestionsByPaper(id, model.ReviewAccepted)
	if err != nil {
		t.Fatalf("list accepted: %v", err)
	}
	if len(accepted) != 1 || accepted[0].ID != all[0].ID {
		t.Errorf("accepted filter returned %d rows", len(accepted))
	}

	if err := s.SetQuestionReview(999, model.ReviewAccepted); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing question review: expected ErrNoRows, got %v", err)
	}
}

func TestUpdateQuestionKeepsReview(t *testing.T) {
	s := newTestStore(t)
	id := insertTestPaper(t, s, "p")
	if err := s.InsertQuestions(id, 1, []model.ExtractedQuestion{
		{QuestionNumber: "1", QuestionStatement: "orig", QuestionType: model.TypeMCQ, Options: []string{"a"}},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	qs, _ := s.ListQuestionsByPaper(id, "")
	qid := qs[0].ID
	if err := s.SetQuestionReview(qid, model.ReviewAccepted); err != nil {
		t.Fatalf("set review: %v", err)
	}

	err := s.UpdateQuestion(qid, model.ExtractedQuestion{
		QuestionNumber: "1", QuestionStatement: "edited", QuestionType: model.TypeSubjective,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	q, err := s.GetQuestion(qid)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if q.QuestionStatement != "edited" || q.QuestionType != model.TypeSubjective {
		t.Errorf("edit not applied: %+v", q.ExtractedQuestion)
	}
	if q.Review != model.ReviewAccepted {
		t.Errorf("edit must not reset review, got %q", q.Review)
	}

	if err := s.UpdateQuestion(999, model.ExtractedQuestion{}); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing question update: expected ErrNoRows, got %v", err)
	}
}

func TestSchemesSeedAndEdit(t *testing.T) {
	s := newTestStore(t)

	if err := s.SeedDefaultSchemes(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	schemes, err := s.ListSchemes()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(schemes) != len(model.AllQuestionTypes) {
		t.Fatalf("expected %d schemes, got %d", len(model.AllQuestionTypes), len(schemes))
	}

	mcq, err := s.GetScheme(model.TypeMCQ)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if mcq.CorrectMarks != 4 || mcq.IncorrectMarks != -1 || mcq.TimeSeconds != 120 {
		t.Errorf("unexpected MCQ defaults: %+v", mcq)
	}

	mcq.CorrectMarks = 3
	if err := s.UpsertScheme(*mcq); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// Reseeding must not clobber operator edits.
	if err := s.SeedDefaultSchemes(); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	edited, _ := s.GetScheme(model.TypeMCQ)
	if edited.CorrectMarks != 3 {
		t.Errorf("reseed overwrote edit: %+v", edited)
	}
}

func TestGetSchemeUnset(t *testing.T) {
	s := newTestStore(t)
	m, err := s.GetScheme(model.TypeMCQ)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil for unset scheme, got %+v", m)
	}
}

func TestUsersAndAuthSessions(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateUser(model.User{Username: "admin", PasswordHash: "hash", Role: model.UserRoleAdmin, Active: true})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	u, err := s.GetUserByUsername("admin")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if u == nil || u.ID != id || u.Role != model.UserRoleAdmin {
		t.Fatalf("unexpected user: %+v", u)
	}
	if missing, _ := s.GetUserByUsername("nobody"); missing != nil {
		t.Errorf("expected nil for missing user, got %+v", missing)
	}
	if n, _ := s.UserCount(); n != 1 {
		t.Errorf("user count = %d, want 1", n)
	}

	token, err := s.CreateAuthSession(id)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess == nil || sess.UserID != id {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if sess, _ := s.GetAuthSession(token); sess != nil {
		t.Errorf("deleted session still resolves")
	}
	if sess, _ := s.GetAuthSession("bogus"); sess != nil {
		t.Errorf("unknown token resolved to %+v", sess)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if v, err := s.GetMetadata("schema_version"); err != nil || v != "" {
		t.Fatalf("missing key: %q, %v", v, err)
	}
	if err := s.SetMetadata("schema_version", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetMetadata("schema_version", "2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, _ := s.GetMetadata("schema_version"); v != "2" {
		t.Errorf("value = %q, want 2", v)
	}
}

func TestSchemaVersionStampedOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if v, _ := s.GetMetadata("schema_version"); v != schemaVersion {
		t.Errorf("schema version = %q, want %q", v, schemaVersion)
	}
	s.Close()

	// Reopening a database at the current version succeeds.
	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	s.Close()
}

func TestSchemaVersionMismatchRefused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetMetadata("schema_version", "999"); err != nil {
		t.Fatalf("set version: %v", err)
	}
	s.Close()

	if _, err := New(path); err == nil {
		t.Fatal("expected error for unsupported schema version")
	}
}

func TestNewStoreUnwritablePath(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing", "test.db")); err == nil {
		t.Fatal("expected error for nonexistent directory")
	}
}

func TestClaimForExtraction(t *testing.T) {
	s := newTestStore(t)
	id := insertTestPaper(t, s, "p")

	claimed, err := s.ClaimForExtraction(id)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !claimed {
		t.Fatal("first claim should succeed")
	}
	p, _ := s.GetPaper(id)
	if p.Status != model.PaperExtracting {
		t.Errorf("status = %q, want extracting", p.Status)
	}

	claimed, err = s.ClaimForExtraction(id)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claimed {
		t.Error("claim on an extracting paper should fail")
	}

	// Releasing the paper makes it claimable again.
	if err := s.UpdatePaperStatus(id, model.PaperFailed, "boom"); err != nil {
		t.Fatalf("release: %v", err)
	}
	claimed, _ = s.ClaimForExtraction(id)
	if !claimed {
		t.Error("failed paper should be claimable")
	}
	p, _ = s.GetPaper(id)
	if p.Error != "" {
		t.Errorf("claim should clear the stored error, got %q", p.Error)
	}
}

func TestBuildExport(t *testing.T) {
	s := newTestStore(t)
	if err := s.SeedDefaultSchemes(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	id := insertTestPaper(t, s, "mock-test-1")
	if err := s.InsertQuestions(id, 2, []model.ExtractedQuestion{
		{QuestionNumber: "1", QuestionStatement: "Pick", QuestionType: model.TypeMCQ, Options: []string{"a", "b"}},
		{QuestionNumber: "2", QuestionStatement: "Explain", QuestionType: model.TypeSubjective},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	qs, _ := s.ListQuestionsByPaper(id, "")
	if err := s.SetQuestionReview(qs[0].ID, model.ReviewAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := s.SetQuestionReview(qs[1].ID, model.ReviewRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}

	bank, err := s.BuildExport()
	if err != nil {
		t.Fatalf("build export: %v", err)
	}
	if len(bank.Questions) != 1 {
		t.Fatalf("expected only the accepted question, got %d", len(bank.Questions))
	}
	q := bank.Questions[0]
	if q.PaperName != "mock-test-1" || q.PageNumber != 2 {
		t.Errorf("paper join wrong: %+v", q)
	}
	if q.CorrectMarks != 4 || q.IncorrectMarks != -1 || q.TimeSeconds != 120 {
		t.Errorf("scheme join wrong: %+v", q)
	}
	if len(bank.Papers) != 1 || len(bank.Schemes) != len(model.AllQuestionTypes) {
		t.Errorf("export summary wrong: %d papers, %d schemes", len(bank.Papers), len(bank.Schemes))
	}
}

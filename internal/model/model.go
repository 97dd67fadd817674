package model

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// QuestionType is one of the four supported question categories.
type QuestionType string

const (
	// TypeMCQ is multiple choice with a single correct option.
	TypeMCQ QuestionType = "MCQ"
	// TypeMSQ is multiple select with one or more correct options.
	TypeMSQ QuestionType = "MSQ"
	// TypeNAT is numerical answer type (no options).
	TypeNAT QuestionType = "NAT"
	// TypeSubjective is a free-form descriptive question.
	TypeSubjective QuestionType = "Subjective"
)

// AllQuestionTypes lists every supported question type in display order.
var AllQuestionTypes = []QuestionType{TypeMCQ, TypeMSQ, TypeNAT, TypeSubjective}

// ParseQuestionType maps a string onto a known question type.
// Matching is case-insensitive to tolerate model output drift.
func ParseQuestionType(s string) (QuestionType, error) {
	for _, t := range AllQuestionTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown question type %q", s)
}

// HasOptions reports whether the type carries an options list.
func (t QuestionType) HasOptions() bool {
	return t == TypeMCQ || t == TypeMSQ
}

// TypeSet is the caller-configured subset of enabled question types.
type TypeSet map[QuestionType]bool

// NewTypeSet builds a set from the given types.
func NewTypeSet(types ...QuestionType) TypeSet {
	s := make(TypeSet, len(types))
	for _, t := range types {
		s[t] = true
	}
	return s
}

// ParseTypeSet builds a set from raw strings, rejecting unknown names.
func ParseTypeSet(names []string) (TypeSet, error) {
	s := make(TypeSet, len(names))
	for _, n := range names {
		t, err := ParseQuestionType(n)
		if err != nil {
			return nil, err
		}
		s[t] = true
	}
	return s, nil
}

// Has reports membership.
func (s TypeSet) Has(t QuestionType) bool { return s[t] }

// Slice returns the members in display order.
func (s TypeSet) Slice() []QuestionType {
	var out []QuestionType
	for _, t := range AllQuestionTypes {
		if s[t] {
			out = append(out, t)
		}
	}
	return out
}

// Strings returns the member names in display order.
func (s TypeSet) Strings() []string {
	var out []string
	for _, t := range s.Slice() {
		out = append(out, string(t))
	}
	return out
}

// ExtractedQuestion is one question as returned by the extraction model.
// Statements and options may embed LaTeX delimited by $...$ or $$...$$.
type ExtractedQuestion struct {
	QuestionNumber    string       `json:"question_number"`
	QuestionStatement string       `json:"question_statement"`
	QuestionType      QuestionType `json:"question_type"`
	Options           []string     `json:"options,omitempty"`
	HasImage          bool         `json:"has_image"`
	ImageDescription  string       `json:"image_description,omitempty"`
	Marks             float64      `json:"marks,omitempty"`
	Difficulty        string       `json:"difficulty,omitempty"`
	Subject           string       `json:"subject,omitempty"`
	Topic             string       `json:"topic,omitempty"`
}

// ReviewStatus tracks a stored question through operator review.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewAccepted ReviewStatus = "accepted"
	ReviewRejected ReviewStatus = "rejected"
)

// Question is an extracted question persisted for review.
type Question struct {
	ID         int64        `json:"id"`
	PaperID    int64        `json:"paper_id"`
	PageNumber int          `json:"page_number"`
	Review     ReviewStatus `json:"review"`
	CreatedAt  time.Time    `json:"created_at"`
	ExtractedQuestion
}

// PaperStatus is the lifecycle state of an uploaded paper.
type PaperStatus string

const (
	PaperUploaded   PaperStatus = "uploaded"
	PaperExtracting PaperStatus = "extracting"
	PaperExtracted  PaperStatus = "extracted"
	PaperFailed     PaperStatus = "failed"
)

// Paper is one uploaded exam PDF.
type Paper struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	FilePath   string      `json:"-"`
	PageCount  int         `json:"page_count"`
	Status     PaperStatus `json:"status"`
	Error      string      `json:"error,omitempty"`
	UploadedAt time.Time   `json:"uploaded_at"`
}

// PageResult records the outcome of extracting one page.
type PageResult struct {
	PaperID       int64  `json:"paper_id"`
	PageNumber    int    `json:"page_number"`
	Context       string `json:"context"`
	QuestionCount int    `json:"question_count"`
}

// MarkingScheme configures marks per question type.
// IncorrectMarks is typically zero or negative.
type MarkingScheme struct {
	QuestionType   QuestionType `json:"question_type"`
	CorrectMarks   float64      `json:"correct_marks"`
	IncorrectMarks float64      `json:"incorrect_marks"`
	SkippedMarks   float64      `json:"skipped_marks"`
	PartialMarks   float64      `json:"partial_marks"`
	TimeSeconds    int          `json:"time_seconds"`
}

// DefaultSchemes are seeded on first run and operator-editable afterwards.
func DefaultSchemes() []MarkingScheme {
	return []MarkingScheme{
		{QuestionType: TypeMCQ, CorrectMarks: 4, IncorrectMarks: -1, TimeSeconds: 120},
		{QuestionType: TypeMSQ, CorrectMarks: 4, IncorrectMarks: -2, PartialMarks: 1, TimeSeconds: 180},
		{QuestionType: TypeNAT, CorrectMarks: 4, TimeSeconds: 180},
		{QuestionType: TypeSubjective, CorrectMarks: 10, TimeSeconds: 600},
	}
}

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleOperator may upload papers and review questions.
	UserRoleOperator UserRole = "operator"
	// UserRoleAdmin may additionally manage users and marking schemes.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// ServiceConfig holds operator-facing runtime configuration shared by handlers.
type ServiceConfig struct {
	EnabledTypes   TypeSet
	MaxUploadBytes int64
	SecureCookies  bool
}

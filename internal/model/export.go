package model

import "time"

// PaperExport is the top-level JSON structure for question-bank export.
type PaperExport struct {
	ExportedAt time.Time        `json:"exported_at"`
	Papers     []PaperResult    `json:"papers"`
	Schemes    []MarkingScheme  `json:"marking_schemes"`
	Questions  []QuestionExport `json:"questions"`
}

// PaperResult summarizes one paper in an export.
type PaperResult struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	PageCount  int         `json:"page_count"`
	Status     PaperStatus `json:"status"`
	UploadedAt time.Time   `json:"uploaded_at"`
}

// QuestionExport is one accepted question joined with its marking scheme.
type QuestionExport struct {
	PaperID        int64        `json:"paper_id"`
	PaperName      string       `json:"paper_name"`
	PageNumber     int          `json:"page_number"`
	Number         string       `json:"question_number"`
	Statement      string       `json:"question_statement"`
	Type           QuestionType `json:"question_type"`
	Options        []string     `json:"options,omitempty"`
	HasImage       bool         `json:"has_image"`
	ImageDesc      string       `json:"image_description,omitempty"`
	Subject        string       `json:"subject,omitempty"`
	Topic          string       `json:"topic,omitempty"`
	Difficulty     string       `json:"difficulty,omitempty"`
	CorrectMarks   float64      `json:"correct_marks"`
	IncorrectMarks float64      `json:"incorrect_marks"`
	SkippedMarks   float64      `json:"skipped_marks"`
	PartialMarks   float64      `json:"partial_marks"`
	TimeSeconds    int          `json:"time_seconds"`
}

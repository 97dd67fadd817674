// Package pipeline drives the per-paper extraction flow: rasterize the PDF,
// then run the invoker over each page strictly in order. One page's full
// retry loop completes, success or terminal failure, before the next page
// begins, so the shared page memory never sees concurrent access.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arjunrs/paperbank/internal/extract"
	"github.com/arjunrs/paperbank/internal/model"
	"github.com/arjunrs/paperbank/internal/store"
)

// ErrExtractionInProgress is returned when a paper is already being extracted.
var ErrExtractionInProgress = errors.New("extraction already in progress")

// Rasterizer renders a PDF into per-page JPEG images.
type Rasterizer interface {
	RenderPages(ctx context.Context, path string) ([][]byte, error)
}

// Extractor turns one page image into validated questions.
type Extractor interface {
	Extract(ctx context.Context, req extract.PageRequest) ([]model.ExtractedQuestion, error)
}

// Processor runs extraction for uploaded papers and persists the results.
type Processor struct {
	raster    Rasterizer
	extractor Extractor
	store     *store.Store
	logger    *slog.Logger
}

// New creates a processor.
func New(raster Rasterizer, extractor Extractor, st *store.Store, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{raster: raster, extractor: extractor, store: st, logger: logger}
}

// Process extracts every page of the given paper sequentially and stores the
// questions pending review. A terminal extraction failure on any page marks
// the paper failed and stops the run; pages already processed keep their
// results. Returns the total number of questions stored.
func (p *Processor) Process(ctx context.Context, paperID int64, enabled model.TypeSet) (int, error) {
	paper, err := p.store.GetPaper(paperID)
	if err != nil {
		return 0, fmt.Errorf("get paper %d: %w", paperID, err)
	}

	// Claiming the paper and marking it extracting is a single conditional
	// update, so concurrent runs cannot both pass a status check.
	claimed, err := p.store.ClaimForExtraction(paperID)
	if err != nil {
		return 0, fmt.Errorf("mark paper extracting: %w", err)
	}
	if !claimed {
		return 0, ErrExtractionInProgress
	}

	pages, err := p.raster.RenderPages(ctx, paper.FilePath)
	if err != nil {
		p.fail(paperID, err)
		return 0, fmt.Errorf("rasterize %s: %w", paper.Name, err)
	}
	if err := p.store.SetPaperPageCount(paperID, len(pages)); err != nil {
		return 0, fmt.Errorf("set page count: %w", err)
	}

	p.logger.Info("pipeline.start", "paper_id", paperID, "name", paper.Name, "pages", len(pages))

	memory := extract.NewPageMemory()
	total := 0
	for idx, img := range pages {
		pageNum := idx + 1
		qs, err := p.extractor.Extract(ctx, extract.PageRequest{
			ImageJPEG:    img,
			PageNumber:   pageNum,
			Memory:       memory,
			EnabledTypes: enabled,
		})
		if err != nil {
			p.fail(paperID, err)
			return total, fmt.Errorf("extract page %d of %s: %w", pageNum, paper.Name, err)
		}

		if err := p.store.InsertQuestions(paperID, pageNum, qs); err != nil {
			p.fail(paperID, err)
			return total, fmt.Errorf("store questions for page %d: %w", pageNum, err)
		}
		pageCtx, _ := memory.Get(pageNum)
		if err := p.store.UpsertPageResult(model.PageResult{
			PaperID:       paperID,
			PageNumber:    pageNum,
			Context:       pageCtx,
			QuestionCount: len(qs),
		}); err != nil {
			p.fail(paperID, err)
			return total, fmt.Errorf("store page result %d: %w", pageNum, err)
		}
		total += len(qs)
	}

	if err := p.store.UpdatePaperStatus(paperID, model.PaperExtracted, ""); err != nil {
		return total, fmt.Errorf("mark paper extracted: %w", err)
	}
	p.logger.Info("pipeline.done", "paper_id", paperID, "questions", total)
	return total, nil
}

func (p *Processor) fail(paperID int64, cause error) {
	if err := p.store.UpdatePaperStatus(paperID, model.PaperFailed, cause.Error()); err != nil {
		p.logger.Error("pipeline.mark_failed", "paper_id", paperID, "error", err)
	}
}

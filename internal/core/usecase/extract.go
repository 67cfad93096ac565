package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rcoppens/tableminer/internal/core/domain"
	"github.com/rcoppens/tableminer/internal/core/ports"
)

// ExtractTablesUseCase runs one upload through the pipeline: decode the
// document, run the detection strategies page by page, render each found
// table, and install the finished result as the current session. Progress
// is narrated over the broadcaster as the run advances.
type ExtractTablesUseCase struct {
	decoder   ports.DocumentDecoder
	detectors []ports.TableDetector
	progress  ports.ProgressBroadcaster
	session   ports.SessionStore
	fragments ports.FragmentRenderer
	logger    *slog.Logger
}

func NewExtractTablesUseCase(
	decoder ports.DocumentDecoder,
	detectors []ports.TableDetector,
	progress ports.ProgressBroadcaster,
	session ports.SessionStore,
	fragments ports.FragmentRenderer,
	logger *slog.Logger,
) *ExtractTablesUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractTablesUseCase{
		decoder:   decoder,
		detectors: detectors,
		progress:  progress,
		session:   session,
		fragments: fragments,
		logger:    logger,
	}
}

func (uc *ExtractTablesUseCase) Extract(ctx context.Context, filename string, data []byte) (*domain.ExtractionResult, error) {
	id := uuid.NewString()
	announce := func(format string, args ...any) {
		uc.progress.Publish(domain.NewProgressEvent(id, fmt.Sprintf(format, args...)))
	}

	doc, err := uc.decoder.Decode(ctx, filename, data)
	if err != nil {
		announce("document decode failed: %v", err)
		uc.logger.Error("extraction_decode_failed", "extraction_id", id, "filename", filename, "error", err)
		return nil, err
	}
	announce("document decoded: %d page(s)", len(doc.Pages))

	var tables []domain.ExtractedTable

	for i, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			announce("extraction aborted: %v", err)
			return nil, domain.WrapError(domain.ErrTemporary, "extract tables", err)
		}
		announce("processing page %d of %d", i+1, len(doc.Pages))

		raw := uc.detectPage(ctx, page, announce)
		announce("page %d: %d table(s) found", page.Number, len(raw))

		for _, rt := range raw {
			fragment, err := uc.fragments.Fragment(rt.Cells)
			if err != nil {
				uc.logger.Warn("table_render_failed", "extraction_id", id, "page", rt.Page, "error", err)
				continue
			}
			tables = append(tables, domain.ExtractedTable{
				Index:    len(tables),
				Page:     rt.Page,
				Label:    fmt.Sprintf("Table %d (page %d)", len(tables)+1, rt.Page),
				Fragment: fragment,
				Cells:    rt.Cells,
			})
		}
	}

	result := &domain.ExtractionResult{
		ID:        id,
		Filename:  filename,
		Pages:     len(doc.Pages),
		Tables:    tables,
		CreatedAt: time.Now().UTC(),
	}
	uc.session.Replace(result)
	announce("extraction complete: %d table(s)", len(tables))
	uc.logger.Info("extraction_complete",
		"extraction_id", id,
		"filename", filename,
		"pages", result.Pages,
		"tables", len(tables),
	)

	return result, nil
}

// detectPage runs the strategies in priority order and returns the tables
// from the first applicable one that succeeds. A strategy error is reported
// and the next strategy gets its turn.
func (uc *ExtractTablesUseCase) detectPage(
	ctx context.Context,
	page domain.Page,
	announce func(format string, args ...any),
) []domain.RawTable {
	for i, detector := range uc.detectors {
		if !detector.Applies(page) {
			continue
		}
		if i > 0 {
			announce("page %d: falling back to %s strategy", page.Number, detector.Name())
		}

		raw, err := detector.Detect(ctx, page)
		if err != nil {
			announce("page %d: %s detection failed: %v", page.Number, detector.Name(), err)
			uc.logger.Warn("page_detection_failed",
				"page", page.Number,
				"strategy", detector.Name(),
				"error", err,
			)
			continue
		}
		return raw
	}
	return nil
}

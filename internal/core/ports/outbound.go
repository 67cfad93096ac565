package ports

import (
	"context"

	"github.com/rcoppens/tableminer/internal/core/domain"
)

// DocumentDecoder turns upload bytes into a page sequence. A failure here is
// fatal for the extraction call.
type DocumentDecoder interface {
	Decode(ctx context.Context, filename string, data []byte) (*domain.Document, error)
}

// TableDetector is one detection strategy. Strategies are tried in order;
// Applies gates whether a strategy is worth attempting on a page, and Detect
// must return an empty slice (not an error) for a page without tables.
type TableDetector interface {
	Name() string
	Applies(page domain.Page) bool
	Detect(ctx context.Context, page domain.Page) ([]domain.RawTable, error)
}

// ProgressBroadcaster fans extraction progress out to observers. Publish
// never blocks on slow observers; Subscribe yields events published after
// the subscription was created, in publish order, until cancel is called or
// the context ends.
type ProgressBroadcaster interface {
	Publish(event domain.ProgressEvent)
	Subscribe(ctx context.Context) (<-chan domain.ProgressEvent, func())
}

// SessionStore holds the current extraction result. Replace installs a new
// result atomically; Get resolves an index against the currently installed
// result only.
type SessionStore interface {
	Replace(result *domain.ExtractionResult)
	Get(index int) (domain.ExtractedTable, error)
	Current() *domain.ExtractionResult
}

// FragmentRenderer builds the immutable HTML display fragment for a cell
// matrix. Pure: identical cells produce identical markup.
type FragmentRenderer interface {
	Fragment(cells [][]string) (string, error)
}

// SpreadsheetRenderer builds downloadable spreadsheet bytes for one table.
type SpreadsheetRenderer interface {
	Spreadsheet(table domain.ExtractedTable) ([]byte, error)
}

// Package domain holds the vocabulary of the extraction pipeline: decoded
// pages, detected cell grids, rendered tables, and the progress events that
// narrate a run.
package domain

import (
	"fmt"
	"image"
	"time"
)

// Word is one positioned token on a page. Coordinates are PDF points with Y
// growing downward from the top of the page.
type Word struct {
	Text string
	X    float64
	EndX float64
	Y    float64
}

// Page is one decoded document page. Words carry the text layer when the
// page has one; Image holds the page render for pages that need OCR.
type Page struct {
	Number int
	Words  []Word
	Image  image.Image
}

// HasTextLayer reports whether the page's text layer is dense enough to
// trust for geometric detection.
func (p Page) HasTextLayer(minWords int) bool {
	return len(p.Words) >= minWords
}

type Document struct {
	Filename string
	Pages    []Page
}

// RawTable is a detected cell grid before rendering, in reading order.
type RawTable struct {
	Page  int
	Cells [][]string
}

func (t RawTable) RowCount() int {
	return len(t.Cells)
}

func (t RawTable) ColCount() int {
	if len(t.Cells) == 0 {
		return 0
	}
	return len(t.Cells[0])
}

// ExtractedTable is one finished table of the current result. Index is its
// position across the whole document and stays stable until the next
// extraction replaces the session.
type ExtractedTable struct {
	Index    int        `json:"index"`
	Page     int        `json:"page"`
	Label    string     `json:"label"`
	Fragment string     `json:"fragment"`
	Cells    [][]string `json:"-"`
}

// ExtractionResult is the complete outcome of one extraction call.
type ExtractionResult struct {
	ID        string           `json:"id"`
	Filename  string           `json:"filename"`
	Pages     int              `json:"pages"`
	Tables    []ExtractedTable `json:"tables"`
	CreatedAt time.Time        `json:"created_at"`
}

// ProgressEvent is one line of the live extraction narration.
type ProgressEvent struct {
	Time         time.Time `json:"time"`
	ExtractionID string    `json:"extraction_id"`
	Message      string    `json:"message"`
}

func NewProgressEvent(extractionID, message string) ProgressEvent {
	return ProgressEvent{
		Time:         time.Now().UTC(),
		ExtractionID: extractionID,
		Message:      message,
	}
}

// String renders the event the way the progress stream and the NATS relay
// show it to humans.
func (e ProgressEvent) String() string {
	id := e.ExtractionID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s [%s] %s", e.Time.Format("15:04:05"), id, e.Message)
}

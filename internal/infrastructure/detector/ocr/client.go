// Package ocr is the fallback table strategy for pages without a text
// layer: the page render is preprocessed, handed to Tesseract for word
// boxes, and the boxes go through the same geometric analysis as text-layer
// words.
package ocr

import (
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Box is one recognized word with its pixel bounding box.
type Box struct {
	Text       string
	X0, Y0     int
	X1, Y1     int
	Confidence float64
}

// TesseractClient wraps a gosseract client. The underlying client is not
// safe for concurrent calls, so every operation takes the mutex.
type TesseractClient struct {
	mu     sync.Mutex
	client *gosseract.Client
}

func NewTesseractClient(language string) (*TesseractClient, error) {
	client := gosseract.NewClient()
	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			client.Close()
			return nil, fmt.Errorf("set language %q: %w", language, err)
		}
	}
	return &TesseractClient{client: client}, nil
}

// WordBoxes recognizes the PNG image and returns word-level bounding boxes.
func (c *TesseractClient) WordBoxes(png []byte) ([]Box, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.SetImageFromBytes(png); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	rects, err := c.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	boxes := make([]Box, 0, len(rects))
	for _, r := range rects {
		text := strings.TrimSpace(r.Word)
		if text == "" {
			continue
		}
		boxes = append(boxes, Box{
			Text:       text,
			X0:         r.Box.Min.X,
			Y0:         r.Box.Min.Y,
			X1:         r.Box.Max.X,
			Y1:         r.Box.Max.Y,
			Confidence: r.Confidence,
		})
	}
	return boxes, nil
}

func (c *TesseractClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client.Close()
}

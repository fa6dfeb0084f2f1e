package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/domain"
)

// TesseractConfig holds the tesseract engine settings.
type TesseractConfig struct {
	// TessdataPrefix points at the trained data directory; empty uses the
	// system default.
	TessdataPrefix string
	// Languages in tesseract notation, e.g. "ara".
	Languages []string
	// PageSegMode as a raw tesseract PSM number. Sparse-text mode suits
	// the card layout, where lines float without a paragraph structure.
	PageSegMode int
}

// Tesseract runs recognition in-process through the tesseract C API.
type Tesseract struct {
	cfg           TesseractConfig
	clientFactory func() *gosseract.Client
}

// NewTesseract creates the tesseract-backed engine.
func NewTesseract(cfg TesseractConfig) *Tesseract {
	return &Tesseract{cfg: cfg, clientFactory: gosseract.NewClient}
}

func (t *Tesseract) Name() domain.EngineName { return domain.EngineTesseract }

// Recognize extracts text lines with per-line confidence. A fresh client
// per call keeps the engine safe under the concurrent fan-out; gosseract
// clients are not reusable across goroutines.
func (t *Tesseract) Recognize(ctx context.Context, imageData []byte) (domain.RawOcrResult, error) {
	result := domain.RawOcrResult{Engine: t.Name()}

	if !isImageData(imageData) {
		return result, fmt.Errorf("tesseract: data is not a JPEG or PNG image")
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	c := t.clientFactory()
	defer c.Close()

	if t.cfg.TessdataPrefix != "" {
		if err := c.SetTessdataPrefix(t.cfg.TessdataPrefix); err != nil {
			return result, fmt.Errorf("tesseract: set tessdata prefix: %w", err)
		}
	}
	if len(t.cfg.Languages) > 0 {
		if err := c.SetLanguage(t.cfg.Languages...); err != nil {
			return result, fmt.Errorf("tesseract: set languages: %w", err)
		}
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(t.cfg.PageSegMode)); err != nil {
		return result, fmt.Errorf("tesseract: set page seg mode: %w", err)
	}
	if err := c.SetImageFromBytes(imageData); err != nil {
		return result, fmt.Errorf("tesseract: set image: %w", err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return result, fmt.Errorf("tesseract: recognize: %w", err)
	}

	result.Lines = make([]domain.OcrLine, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		result.Lines = append(result.Lines, domain.OcrLine{
			Text:       text,
			Confidence: b.Confidence / 100.0,
			Box: &domain.Box{
				X0: b.Box.Min.X,
				Y0: b.Box.Min.Y,
				X1: b.Box.Max.X,
				Y1: b.Box.Max.Y,
			},
		})
	}

	// Line segmentation can come back empty on low-contrast scans even
	// when full-page recognition still finds text.
	if len(result.Lines) == 0 {
		text, err := c.Text()
		if err != nil {
			return result, fmt.Errorf("tesseract: recognize: %w", err)
		}
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			result.Lines = append(result.Lines, domain.OcrLine{Text: line, Confidence: -1})
		}
	}

	return result, nil
}

// Package engine wraps the OCR backends behind a single interface so the
// service layer can fan out to all of them without knowing which is a
// local library and which is a network call.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/domain"
	apperrors "github.com/bitaqa/bitaqa-backend/pkg/errors"
)

// JPEG and PNG magic bytes for image detection
var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47}
)

// Engine runs character recognition over one card image.
type Engine interface {
	// Recognize extracts raw text lines from image bytes. The image data
	// should NOT be retained after recognition.
	Recognize(ctx context.Context, imageData []byte) (domain.RawOcrResult, error)

	// Name returns the engine name for logging and tie-breaking
	Name() domain.EngineName
}

// Outcome is one engine's result or failure from a fan-out run.
type Outcome struct {
	Engine domain.EngineName
	Result domain.RawOcrResult
	Err    error
}

// Set holds the configured engines in precedence order.
type Set struct {
	engines []Engine
}

// NewSet creates an engine set. Order fixes tie-break precedence.
func NewSet(engines ...Engine) *Set {
	return &Set{engines: engines}
}

// Names returns the engine names in precedence order.
func (s *Set) Names() []domain.EngineName {
	names := make([]domain.EngineName, len(s.engines))
	for i, e := range s.engines {
		names[i] = e.Name()
	}
	return names
}

// RecognizeAll runs every engine concurrently against the same image and
// returns one outcome per engine, in precedence order. Individual engine
// failures are reported in the outcome, never returned: one flaky backend
// must not cost the scan.
func (s *Set) RecognizeAll(ctx context.Context, imageData []byte) []Outcome {
	outcomes := make([]Outcome, len(s.engines))

	var wg sync.WaitGroup
	for i, e := range s.engines {
		wg.Add(1)
		go func(i int, e Engine) {
			defer wg.Done()
			res, err := e.Recognize(ctx, imageData)
			if err != nil {
				err = fmt.Errorf("%w: %s: %v", apperrors.ErrEngineFailure, e.Name(), err)
			}
			outcomes[i] = Outcome{Engine: e.Name(), Result: res, Err: err}
		}(i, e)
	}
	wg.Wait()

	return outcomes
}

// isImageData checks for JPEG or PNG magic bytes at the start of the data.
func isImageData(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	return bytes.HasPrefix(data, jpegMagic) || bytes.HasPrefix(data, pngMagic)
}

package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/domain"
	apperrors "github.com/bitaqa/bitaqa-backend/pkg/errors"
)

type stubEngine struct {
	name   domain.EngineName
	result domain.RawOcrResult
	err    error
}

func (s *stubEngine) Name() domain.EngineName { return s.name }

func (s *stubEngine) Recognize(ctx context.Context, imageData []byte) (domain.RawOcrResult, error) {
	return s.result, s.err
}

func TestSet_RecognizeAll(t *testing.T) {
	a := &stubEngine{
		name: domain.EngineTesseract,
		result: domain.RawOcrResult{
			Engine: domain.EngineTesseract,
			Lines:  []domain.OcrLine{{Text: "محمود", Confidence: 0.9}},
		},
	}
	b := &stubEngine{
		name: domain.EngineEasyOCR,
		err:  errors.New("sidecar down"),
	}

	set := NewSet(a, b)
	outcomes := set.RecognizeAll(context.Background(), fakeJPEG)

	require.Len(t, outcomes, 2)
	// Outcomes keep precedence order regardless of which goroutine
	// finished first.
	assert.Equal(t, domain.EngineTesseract, outcomes[0].Engine)
	assert.NoError(t, outcomes[0].Err)
	assert.Len(t, outcomes[0].Result.Lines, 1)

	assert.Equal(t, domain.EngineEasyOCR, outcomes[1].Engine)
	require.Error(t, outcomes[1].Err)
	// Failures surface as ErrEngineFailure so callers can match the
	// class without knowing which backend broke.
	assert.ErrorIs(t, outcomes[1].Err, apperrors.ErrEngineFailure)
	assert.Contains(t, outcomes[1].Err.Error(), "easyocr")
}

func TestSet_Names(t *testing.T) {
	set := NewSet(
		&stubEngine{name: domain.EngineTesseract},
		&stubEngine{name: domain.EngineEasyOCR},
	)
	assert.Equal(t, []domain.EngineName{domain.EngineTesseract, domain.EngineEasyOCR}, set.Names())
}

func TestIsImageData(t *testing.T) {
	assert.True(t, isImageData(fakeJPEG))
	assert.True(t, isImageData([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}))
	assert.False(t, isImageData([]byte("%PDF-1.4")))
	assert.False(t, isImageData([]byte{0xFF}))
}

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/domain"
)

// EasyOCRConfig holds the settings for the EasyOCR sidecar.
type EasyOCRConfig struct {
	BaseURL string
	Timeout time.Duration
	// Detector tuning forwarded to the sidecar. Zero values mean the
	// sidecar's own defaults.
	TextThreshold  float64
	LowTextBound   float64
	WidthThreshold float64
}

// EasyOCR extracts text by sending images to the EasyOCR sidecar service.
type EasyOCR struct {
	cfg        EasyOCRConfig
	httpClient *http.Client
}

// NewEasyOCR creates an engine backed by the sidecar at cfg.BaseURL.
func NewEasyOCR(cfg EasyOCRConfig) *EasyOCR {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second // GPU-less inference can take 10-20s
	}
	return &EasyOCR{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (e *EasyOCR) Name() domain.EngineName { return domain.EngineEasyOCR }

func (e *EasyOCR) Recognize(ctx context.Context, imageData []byte) (domain.RawOcrResult, error) {
	result := domain.RawOcrResult{Engine: e.Name()}

	if !isImageData(imageData) {
		return result, fmt.Errorf("easyocr: data is not a JPEG or PNG image")
	}

	// Build multipart request
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "card.bin")
	if err != nil {
		return result, fmt.Errorf("easyocr: create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return result, fmt.Errorf("easyocr: write image data: %w", err)
	}
	for field, v := range map[string]float64{
		"text_threshold": e.cfg.TextThreshold,
		"low_text":       e.cfg.LowTextBound,
		"width_ths":      e.cfg.WidthThreshold,
	} {
		if v == 0 {
			continue
		}
		if err := writer.WriteField(field, strconv.FormatFloat(v, 'f', -1, 64)); err != nil {
			return result, fmt.Errorf("easyocr: write %s field: %w", field, err)
		}
	}
	if err := writer.Close(); err != nil {
		return result, fmt.Errorf("easyocr: close multipart writer: %w", err)
	}

	url := e.cfg.BaseURL + "/api/v1/readtext"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return result, fmt.Errorf("easyocr: create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return result, fmt.Errorf("easyocr: sidecar request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, fmt.Errorf("easyocr: read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("easyocr: sidecar returned %d: %s", resp.StatusCode, string(respBody))
	}

	var sidecarResp readtextResponse
	if err := json.Unmarshal(respBody, &sidecarResp); err != nil {
		return result, fmt.Errorf("easyocr: parse response: %w", err)
	}

	result.Lines = make([]domain.OcrLine, 0, len(sidecarResp.Lines))
	for _, l := range sidecarResp.Lines {
		line := domain.OcrLine{Text: l.Text, Confidence: l.Confidence}
		if len(l.Box) == 4 {
			line.Box = &domain.Box{X0: l.Box[0], Y0: l.Box[1], X1: l.Box[2], Y1: l.Box[3]}
		}
		result.Lines = append(result.Lines, line)
	}

	return result, nil
}

// readtextResponse mirrors the sidecar's ReadtextResponse model.
type readtextResponse struct {
	Lines            []readtextLine `json:"lines"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
}

type readtextLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Box        []int   `json:"box"`
}

package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bitaqa/bitaqa-backend/internal/idcard/pipeline"
	"github.com/bitaqa/bitaqa-backend/internal/idcard/service"
	apperrors "github.com/bitaqa/bitaqa-backend/pkg/errors"
	"github.com/bitaqa/bitaqa-backend/pkg/httputil"
	"github.com/bitaqa/bitaqa-backend/pkg/logger"
)

const maxUploadSize = 15 << 20 // 15MB

// Handler handles HTTP requests for ID card scans
type Handler struct {
	service *service.Service
	log     *logger.Logger
}

// NewHandler creates a new scan handler
func NewHandler(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{
		service: svc,
		log:     log,
	}
}

// Routes mounts the scan endpoints on a chi router
func (h *Handler) Routes(r chi.Router) {
	r.Post("/idcard/analyze", h.Analyze)
	r.Get("/idcard/scans/{jobId}", h.GetScan)
	r.Get("/idcard/stats", h.GetStats)
}

// Analyze handles POST /idcard/analyze
// Accepts multipart form with:
// - file: the card image (JPEG or PNG)
// - sync: "true" to wait for the record instead of polling a job
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	// Limit request size
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputil.Error(w, apperrors.BadRequest("file too large or invalid multipart form"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		httputil.Error(w, apperrors.BadRequest("missing file in request"))
		return
	}
	defer file.Close()

	// Read file into memory (never to disk)
	imageData, err := io.ReadAll(file)
	if err != nil {
		httputil.Error(w, apperrors.Internal("failed to read uploaded file"))
		return
	}

	if r.FormValue("sync") == "true" {
		h.analyzeSync(w, r, imageData)
		return
	}

	// Start the scan (imageData will be zeroed by the service)
	job := h.service.StartScan(r.Context(), imageData)
	httputil.JSON(w, http.StatusAccepted, job)
}

// analyzeSync runs the scan inline. Degraded extraction is still HTTP
// 200: the record's error field carries the quality verdict, and callers
// key off it. Only a scan that could not run at all is an HTTP error.
func (h *Handler) analyzeSync(w http.ResponseWriter, r *http.Request, imageData []byte) {
	rec, err := h.service.ScanSync(r.Context(), imageData)
	switch {
	case err == nil:
		httputil.JSON(w, http.StatusOK, rec)
	case errors.Is(err, apperrors.ErrUnreadableImage):
		httputil.Error(w, apperrors.UnreadableImage(err))
	case errors.Is(err, pipeline.ErrNoEngineOutput):
		// The record still carries its error bits; return it so the
		// caller sees what was attempted.
		h.log.Error().Err(err).Msg("scan produced no text")
		httputil.JSON(w, http.StatusUnprocessableEntity, rec)
	default:
		h.log.Error().Err(err).Msg("scan failed")
		httputil.Error(w, apperrors.Internal("card processing failed"))
	}
}

// statsWindow bounds the stats endpoint to the trailing day.
const statsWindow = 24 * time.Hour

// GetStats handles GET /idcard/stats
// Returns aggregate scan outcomes from the audit store; 404 when the
// deployment runs without one.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.ScanStats(r.Context(), time.Now().Add(-statsWindow))
	if err != nil {
		h.log.Error().Err(err).Msg("stats query failed")
		httputil.Error(w, apperrors.Internal("failed to load scan statistics"))
		return
	}
	if stats == nil {
		httputil.Error(w, apperrors.NotFound("scan statistics"))
		return
	}

	httputil.JSON(w, http.StatusOK, stats)
}

// GetScan handles GET /idcard/scans/{jobId}
// Returns the scan job status and, once completed, the record
func (h *Handler) GetScan(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		httputil.Error(w, apperrors.BadRequest("missing jobId parameter"))
		return
	}

	job := h.service.GetJob(jobID)
	if job == nil {
		httputil.Error(w, apperrors.NotFound("scan job"))
		return
	}

	httputil.JSON(w, http.StatusOK, job)
}

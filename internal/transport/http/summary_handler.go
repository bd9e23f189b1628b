package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"attendsum/internal/aggregation"
	"attendsum/internal/config"
	apierrors "attendsum/internal/errors"
	"attendsum/internal/exporter"
	"attendsum/internal/services"
	"attendsum/internal/tabular"
)

// uploadFormField is the multipart form field carrying the attendee export.
const uploadFormField = "file"

// SummaryHandler handles attendance summary requests: one uploaded
// attendee-tracking export in, one summary table out.
type SummaryHandler struct {
	service      SummaryServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
	upload       config.UploadConfig
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(service SummaryServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, upload config.UploadConfig) *SummaryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "summary_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
		upload:       upload,
	}
}

// Routes returns the summary routes with proper Chi patterns
func (h *SummaryHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/{source}", func(r chi.Router) {
		r.Use(h.SourceCtx)
		r.Post("/", h.CreateSummary)
	})

	return r
}

// summarizeParams carries the validated request parameters.
type summarizeParams struct {
	Source   string `validate:"required,oneof=growthflow webinarjam"`
	Format   string `validate:"omitempty,oneof=csv xlsx"`
	Filename string `validate:"required"`
}

// SourceCtx middleware validates the source URL parameter early so every
// route below it can assume a known source type.
func (h *SummaryHandler) SourceCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := aggregation.ParseSource(chi.URLParam(r, "source")); err != nil {
			h.logger.WarnContext(r.Context(), "rejected unknown source",
				slog.String("source", chi.URLParam(r, "source")))
			h.errorHandler.HandleError(w, r, apierrors.ErrInvalidSource)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateSummary handles POST /api/summaries/{source}.
//
// The request is a multipart form with the export under the "file" field.
// Without a "download" query parameter the summary comes back as JSON; with
// one, the encoded table is streamed as an attachment. An optional "format"
// parameter (csv|xlsx) overrides the default download format.
func (h *SummaryHandler) CreateSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	source, _ := aggregation.ParseSource(chi.URLParam(r, "source"))

	r.Body = http.MaxBytesReader(w, r.Body, h.upload.MaxSizeBytes)
	if err := r.ParseMultipartForm(h.upload.MaxSizeBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.NewValidationError("request is not a valid multipart upload"))
		return
	}

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(uploadFormField, "upload file is required"))
		return
	}
	defer file.Close()

	if !h.extensionAllowed(header.Filename) {
		h.errorHandler.HandleError(w, r, apierrors.ErrUnsupportedFile)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		// ?download=xlsx is accepted as shorthand for ?download&format=xlsx
		format = r.URL.Query().Get("download")
	}

	params := summarizeParams{
		Source:   string(source),
		Format:   format,
		Filename: header.Filename,
	}
	if err := h.validate.Struct(params); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewValidationError(err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "processing upload",
		slog.String("source", string(source)),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	result, err := h.service.Process(ctx, file, header.Filename, source)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if _, download := r.URL.Query()["download"]; download {
		h.writeDownload(w, r, result, params.Format)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{
		"status":     "success",
		"source":     result.Source,
		"data":       result.Summaries,
		"count":      len(result.Summaries),
		"input_rows": result.InputRows,
		"download": map[string]string{
			"filename": result.DownloadName,
			"format":   string(result.SuggestedForm),
		},
	})
}

// extensionAllowed checks the uploaded filename against the configured
// extension allowlist.
func (h *SummaryHandler) extensionAllowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range h.upload.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// writeDownload streams the encoded summary table as a file attachment.
func (h *SummaryHandler) writeDownload(w http.ResponseWriter, r *http.Request, result *services.Result, formatOverride string) {
	format := result.SuggestedForm
	if formatOverride != "" {
		format = tabular.Format(formatOverride)
	}

	w.Header().Set("Content-Type", exporter.MimeType(format))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", exporter.DownloadFilename(result.Source, format)))

	if err := h.service.Encode(w, format, result.Summaries); err != nil {
		// Headers already sent, best effort: log and drop the connection
		h.logger.ErrorContext(r.Context(), "failed to encode download",
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
	}
}

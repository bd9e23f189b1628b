package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendsum/internal/config"
	apierrors "attendsum/internal/errors"
	"attendsum/internal/services"
)

const growthflowCSV = "First Name,Email,Phone,Attendance_Day\n" +
	"A,e1@example.com,p1,Mon\n" +
	"A,e1@example.com,p1,\"Mon,Tue\"\n" +
	"B,e1@example.com,p1,\n"

const webinarjamCSV = "First name,Email,Phone number,Attended live\n" +
	"A,e1@example.com,p1,Yes\n" +
	"B,e1@example.com,p1,Yes\n"

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	errorHandler := apierrors.NewErrorHandler(logger, false)
	service := services.NewSummaryService(nil, logger)
	handler := NewSummaryHandler(service, logger, errorHandler, config.UploadConfig{
		MaxSizeBytes:      1 << 20,
		AllowedExtensions: []string{".csv", ".xlsx"},
	})

	r := chi.NewRouter()
	r.Mount("/api/summaries", handler.Routes())
	return r
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestSummaryHandler_GrowthflowJSON(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartUpload(t, "export.csv", growthflowCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/summaries/growthflow", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
		Data   []struct {
			Name       string `json:"name"`
			Email      string `json:"email"`
			Phone      string `json:"phone"`
			Attendance int    `json:"attendance"`
		} `json:"data"`
		Download struct {
			Filename string `json:"filename"`
			Format   string `json:"format"`
		} `json:"download"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "A", resp.Data[0].Name)
	assert.Equal(t, 2, resp.Data[0].Attendance)
	assert.Equal(t, "growthflow_summary.xlsx", resp.Download.Filename)
	assert.Equal(t, "xlsx", resp.Download.Format)
}

func TestSummaryHandler_WebinarjamDownloadCSV(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartUpload(t, "export.csv", webinarjamCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/summaries/webinarjam?download", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="webinarjam_summary.csv"`, rec.Header().Get("Content-Disposition"))

	out := strings.TrimPrefix(rec.Body.String(), "\xEF\xBB\xBF")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "First Name,Email,Phone,Attendance", lines[0])
	// Same email, different names: two rows
	assert.Equal(t, "A,e1@example.com,p1,1", lines[1])
	assert.Equal(t, "B,e1@example.com,p1,1", lines[2])
}

func TestSummaryHandler_DownloadFormatOverride(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartUpload(t, "export.csv", growthflowCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/summaries/growthflow?download&format=csv", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="growthflow_summary.csv"`, rec.Header().Get("Content-Disposition"))

	// ?download=csv shorthand behaves the same
	body, contentType = multipartUpload(t, "export.csv", growthflowCSV)
	req = httptest.NewRequest(http.MethodPost, "/api/summaries/growthflow?download=csv", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
}

func TestSummaryHandler_SchemaError(t *testing.T) {
	router := newTestRouter(t)

	// Growthflow-shaped file uploaded as WebinarJam
	body, contentType := multipartUpload(t, "export.csv", growthflowCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/summaries/webinarjam", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "/errors/upload/schema-invalid", problem["type"])
	assert.Equal(t, "WebinarJam", problem["source"])
	assert.NotEmpty(t, problem["missing_columns"])
	assert.Len(t, problem["expected_columns"], 4)
}

func TestSummaryHandler_FormatError(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartUpload(t, "export.xlsx", "definitely not a workbook")
	req := httptest.NewRequest(http.MethodPost, "/api/summaries/growthflow", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "/errors/upload/format-unreadable", problem["type"])
}

func TestSummaryHandler_UnknownSource(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartUpload(t, "export.csv", growthflowCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/summaries/zoom", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "/errors/upload/source-unknown", problem["type"])
}

func TestSummaryHandler_DisallowedExtension(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartUpload(t, "export.txt", growthflowCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/summaries/growthflow", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "/errors/validation", problem["type"])
	assert.Contains(t, problem["detail"], "Unsupported file format")
}

func TestSummaryHandler_MissingFileField(t *testing.T) {
	router := newTestRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/summaries/growthflow", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryHandler_NotMultipart(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/summaries/growthflow", strings.NewReader(growthflowCSV))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(nil, "test")

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "test", resp["version"])
}

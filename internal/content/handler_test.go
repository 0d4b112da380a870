package content

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-match/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T) (*gin.Engine, *fakeCleaner) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, cleaner := newTestService()
	router := gin.New()
	router.Use(middleware.Identity())
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router, cleaner
}

func doJSON(router *gin.Engine, method, path, userID string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestResumeUploadAndCurrent(t *testing.T) {
	router, _ := newTestRouter(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("resumePdf", "resume.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write([]byte("Jane Doe, Go engineer")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-User-Id", "user-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created ResumeResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ResumeID == "" || created.Content != "Jane Doe, Go engineer" {
		t.Fatalf("unexpected resume %+v", created)
	}

	respGet := doJSON(router, http.MethodGet, "/api/v1/resumes/current", "user-1", nil)
	if respGet.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", respGet.Code)
	}
	var current ResumeResponse
	if err := json.NewDecoder(respGet.Body).Decode(&current); err != nil {
		t.Fatalf("decode current response: %v", err)
	}
	if current.ResumeID != created.ResumeID {
		t.Fatalf("expected current %s, got %s", created.ResumeID, current.ResumeID)
	}

	dup := doJSON(router, http.MethodPost, "/api/v1/resumes", "user-1", gin.H{"fileName": "cv2.txt", "content": "again"})
	if dup.Code != http.StatusConflict {
		t.Fatalf("expected 409 for second resume, got %d", dup.Code)
	}
}

func TestResumeRoutesRequireIdentity(t *testing.T) {
	router, _ := newTestRouter(t)
	resp := doJSON(router, http.MethodPost, "/api/v1/resumes", "", gin.H{"fileName": "cv.txt", "content": "text"})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestResumeUploadMissingFile(t *testing.T) {
	router, _ := newTestRouter(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("fileName", "cv.pdf")
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-User-Id", "user-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "resumePdf is required") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestJobOfferLifecycle(t *testing.T) {
	router, cleaner := newTestRouter(t)

	created := doJSON(router, http.MethodPost, "/api/v1/job-offers", "", gin.H{"fileName": "backend.txt", "content": "Go, Postgres"})
	if created.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", created.Code, created.Body.String())
	}
	var offer JobOfferResponse
	if err := json.NewDecoder(created.Body).Decode(&offer); err != nil {
		t.Fatalf("decode: %v", err)
	}

	dup := doJSON(router, http.MethodPost, "/api/v1/job-offers", "", gin.H{"fileName": "backend.txt", "content": "again"})
	if dup.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", dup.Code)
	}

	list := doJSON(router, http.MethodGet, "/api/v1/job-offers?limit=5", "", nil)
	var offers []JobOfferResponse
	if err := json.NewDecoder(list.Body).Decode(&offers); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("expected 1 offer, got %d", len(offers))
	}

	updated := doJSON(router, http.MethodPut, "/api/v1/job-offers/"+offer.JobOfferID, "", gin.H{"fileName": "backend.txt", "content": "Go, SQLite"})
	if updated.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", updated.Code)
	}

	deleted := doJSON(router, http.MethodDelete, "/api/v1/job-offers/"+offer.JobOfferID, "", nil)
	if deleted.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", deleted.Code)
	}
	if len(cleaner.jobOffers) != 1 {
		t.Fatalf("expected score cleanup on delete")
	}

	missing := doJSON(router, http.MethodGet, "/api/v1/job-offers/"+offer.JobOfferID, "", nil)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.Code)
	}
}

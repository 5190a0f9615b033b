package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/secondopinion/companion/internal/platform/llm"
)

func multipartRequest(t *testing.T, fileName, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte(content))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestHandler_UploadDocument(t *testing.T) {
	ai := &fakeCompleter{result: llm.Result{Text: "Signs of arthritis.", Outcome: llm.OutcomeCompleted}}
	svc, _, _ := newTestService(ai)
	h := NewHandler(svc)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(multipartRequest(t, "xray_report.png", "PNG"), rec)
	c.SetParamNames("user_id")
	c.SetParamValues("u1")

	if err := h.UploadDocument(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["status"] != "success" {
		t.Errorf("unexpected status %v", got["status"])
	}
	if got["message"] != "Document xray_report.png uploaded and analyzed successfully" {
		t.Errorf("unexpected message %v", got["message"])
	}
	conds, _ := got["extracted_conditions"].([]interface{})
	if len(conds) != 1 || conds[0] != "Arthritis" {
		t.Errorf("unexpected conditions %v", got["extracted_conditions"])
	}
	analysis, _ := got["analysis"].(map[string]interface{})
	if analysis["document_type"] != "report" {
		t.Errorf("unexpected analysis %v", analysis)
	}
}

func TestHandler_UploadDocument_MissingFile(t *testing.T) {
	svc, _, _ := newTestService(&fakeCompleter{})
	h := NewHandler(svc)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("user_id")
	c.SetParamValues("u1")

	err := h.UploadDocument(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_ListDocuments(t *testing.T) {
	svc, _, _ := newTestService(&fakeCompleter{})
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if _, err := svc.Upload(context.Background(), "u1", Upload{FileName: name, Content: strings.NewReader("x")}); err != nil {
			t.Fatal(err)
		}
	}
	h := NewHandler(svc)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("user_id")
	c.SetParamValues("u1")

	if err := h.ListDocuments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got struct {
		UserID    string            `json:"user_id"`
		Documents []json.RawMessage `json:"documents"`
		Count     int               `json:"count"`
		Total     int               `json:"total"`
		HasMore   bool              `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.UserID != "u1" || got.Count != 2 || got.Total != 3 || !got.HasMore || len(got.Documents) != 2 {
		t.Errorf("unexpected list response %+v", got)
	}
}

func TestHandler_ListDocuments_Empty(t *testing.T) {
	svc, _, _ := newTestService(&fakeCompleter{})
	h := NewHandler(svc)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("user_id")
	c.SetParamValues("nobody")

	if err := h.ListDocuments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"documents":[]`) {
		t.Errorf("expected empty documents array, got %s", rec.Body.String())
	}
}

func TestHandler_GetDocument_NotFound(t *testing.T) {
	svc, _, _ := newTestService(&fakeCompleter{})
	h := NewHandler(svc)

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("user_id", "document_id")
	c.SetParamValues("u1", "doc_nope")

	err := h.GetDocument(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_DownloadDocument(t *testing.T) {
	svc, _, _ := newTestService(&fakeCompleter{})
	doc, err := svc.Upload(context.Background(), "u1", Upload{
		FileName:    "lab.txt",
		ContentType: "text/plain",
		Content:     strings.NewReader("HbA1c 6.1"),
	})
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(svc)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("user_id", "document_id")
	c.SetParamValues("u1", doc.DocumentID)

	if err := h.DownloadDocument(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != "HbA1c 6.1" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if rec.Header().Get("Content-Disposition") != "attachment; filename=lab.txt" {
		t.Errorf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
}

func TestHandler_DownloadDocument_HostileFileName(t *testing.T) {
	names := []string{
		`scan".pdf`,
		"x.pdf\"; filename=evil.exe",
		"report\r\nSet-Cookie: a=b.pdf",
		"résumé médical.pdf",
		"my lab results.pdf",
	}

	svc, _, _ := newTestService(&fakeCompleter{})
	h := NewHandler(svc)
	e := echo.New()

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			doc, err := svc.Upload(context.Background(), "u1", Upload{FileName: name, Content: strings.NewReader("x")})
			if err != nil {
				t.Fatal(err)
			}

			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			c.SetParamNames("user_id", "document_id")
			c.SetParamValues("u1", doc.DocumentID)
			if err := h.DownloadDocument(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			header := rec.Header().Get("Content-Disposition")
			if strings.ContainsAny(header, "\r\n") {
				t.Fatalf("header contains line break: %q", header)
			}
			disposition, params, err := mime.ParseMediaType(header)
			if err != nil {
				t.Fatalf("ParseMediaType(%q): %v", header, err)
			}
			if disposition != "attachment" {
				t.Errorf("disposition = %q, want attachment", disposition)
			}
			if params["filename"] != name {
				t.Errorf("filename = %q, want %q", params["filename"], name)
			}
			if len(params) > 1 {
				t.Errorf("unexpected extra parameters %v", params)
			}
		})
	}
}

package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestPingHandler_Healthy(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/store", nil), rec)

	h := PingHandler("redis", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected ping context to carry a deadline")
		}
		return nil
	}, nil)

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" || body["backend"] != "redis" {
		t.Errorf("unexpected body %v", body)
	}
	if _, ok := body["details"]; ok {
		t.Error("expected no details without a details func")
	}
}

func TestPingHandler_Unhealthy(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/store", nil), rec)

	h := PingHandler("postgres", func(context.Context) error {
		return errors.New("connection refused")
	}, func() interface{} {
		return &PoolStats{MaxConns: 20}
	})

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body struct {
		Status  string    `json:"status"`
		Error   string    `json:"error"`
		Details PoolStats `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "unhealthy" || body.Error != "connection refused" || body.Details.MaxConns != 20 {
		t.Errorf("unexpected body %+v", body)
	}
}

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSPreflightAllowsConfirmationHeader(t *testing.T) {
	harness := newTestHarness(t, withAllowedOrigins("https://slides.example.com"))

	request := httptest.NewRequest(http.MethodOptions, "/decks/deck-1/edits", http.NoBody)
	request.Header.Set("Origin", "https://slides.example.com")
	request.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	request.Header.Set("Access-Control-Request-Headers", "X-Confirmation-Token")
	recorder := httptest.NewRecorder()

	harness.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("unexpected preflight status: %d", recorder.Code)
	}
	if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "https://slides.example.com" {
		t.Fatalf("unexpected allow origin header %q", got)
	}
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	harness := newTestHarness(t, withAllowedOrigins("https://slides.example.com"))

	request := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	request.Header.Set("Origin", "https://elsewhere.example.com")
	recorder := httptest.NewRecorder()

	harness.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected forbidden status for unknown origin, got %d", recorder.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	harness := newTestHarness(t)

	recorder := httptest.NewRecorder()
	harness.handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected health status: %d", recorder.Code)
	}
}

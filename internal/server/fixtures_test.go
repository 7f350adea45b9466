package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/slidecraft/internal/analyzer"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/auth"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/contributions"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/edits"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/llm"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/narration"
	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

type stubGenerator struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
}

func (g *stubGenerator) Complete(_ context.Context, request llm.CompletionRequest) (llm.CompletionResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, request.Prompt)
	if g.err != nil {
		return llm.CompletionResponse{}, g.err
	}
	if len(g.responses) == 0 {
		return llm.CompletionResponse{}, errors.New("no scripted response")
	}
	text := g.responses[0]
	if len(g.responses) > 1 {
		g.responses = g.responses[1:]
	}
	return llm.CompletionResponse{Text: text}, nil
}

func (g *stubGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type stubDetector struct {
	result  analyzer.Result
	err     error
	request analyzer.Request
}

func (d *stubDetector) Detect(_ context.Context, request analyzer.Request) (analyzer.Result, error) {
	d.request = request
	if d.err != nil {
		return analyzer.Result{}, d.err
	}
	return d.result, nil
}

type testHarness struct {
	handler    http.Handler
	generator  *stubGenerator
	detector   *stubDetector
	dispatcher *RealtimeDispatcher
	issuer     *auth.ConfirmationIssuer
}

type harnessOption func(*Dependencies)

func withRequestsPerMinute(limit int) harnessOption {
	return func(deps *Dependencies) {
		deps.LLMRequestsPerMinute = limit
	}
}

func withGenerator(generator llm.Generator) harnessOption {
	return func(deps *Dependencies) {
		service, err := narration.NewService(narration.ServiceConfig{Generator: generator})
		if err != nil {
			panic(err)
		}
		deps.Narration = service
	}
}

func withAllowedOrigins(origins ...string) harnessOption {
	return func(deps *Dependencies) {
		deps.AllowedOrigins = origins
	}
}

func newTestHarness(t *testing.T, options ...harnessOption) *testHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:slidecraft_server_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&edits.Record{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	editService, err := edits.NewService(edits.ServiceConfig{
		Database:   db,
		Clock:      func() time.Time { return testNow },
		IDProvider: edits.NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("failed to construct edit service: %v", err)
	}
	issuer, err := auth.NewConfirmationIssuer(auth.ConfirmationIssuerConfig{
		SigningSecret: []byte("test-signing-secret"),
		TokenTTL:      time.Minute,
	})
	if err != nil {
		t.Fatalf("failed to construct confirmation issuer: %v", err)
	}
	scorer, err := contributions.NewScorer("en")
	if err != nil {
		t.Fatalf("failed to construct scorer: %v", err)
	}
	generator := &stubGenerator{}
	narrator, err := narration.NewService(narration.ServiceConfig{Generator: generator})
	if err != nil {
		t.Fatalf("failed to construct narration service: %v", err)
	}
	detector := &stubDetector{}
	dispatcher := NewRealtimeDispatcher()

	deps := Dependencies{
		Edits:             editService,
		Confirmations:     issuer,
		Scorer:            scorer,
		Narration:         narrator,
		Analyzer:          detector,
		Realtime:          dispatcher,
		Logger:            zap.NewNop(),
		HeartbeatInterval: time.Hour,
		Clock:             func() time.Time { return testNow },
	}
	for _, option := range options {
		option(&deps)
	}

	handler, err := NewHTTPHandler(deps)
	if err != nil {
		t.Fatalf("failed to construct http handler: %v", err)
	}
	return &testHarness{
		handler:    handler,
		generator:  generator,
		detector:   detector,
		dispatcher: dispatcher,
		issuer:     issuer,
	}
}

package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/MarcoPoloResearchLab/slidecraft/internal/llm"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/narration"
)

const sampleSlideText = "The Industrial Revolution marked a major turning point in history."

func TestGenerateNotesEndpoint(t *testing.T) {
	harness := newTestHarness(t)
	harness.generator.responses = []string{"Slide 1: The Industrial Revolution began in Britain. It changed work. It changed work. Factories grew rapidly and"}

	recorder := postJSON(t, harness.handler, "/generate_notes",
		`{"slide_text":"`+sampleSlideText+`","tone":"Storytelling","max_seconds":60,"include_main_idea":true}`, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", recorder.Code, recorder.Body.String())
	}
	var notes narration.Notes
	decodeBody(t, recorder, &notes)
	if notes.SpeakerNotes != "- The **Industrial** **Revolution** began in **Britain**.\n- It changed work." {
		t.Fatalf("unexpected speaker notes %q", notes.SpeakerNotes)
	}
	if notes.WordsPerMinute != 132 || notes.Degraded {
		t.Fatalf("unexpected notes metadata %+v", notes)
	}
}

func TestGenerateNotesDegradesWhenBackendFails(t *testing.T) {
	harness := newTestHarness(t)
	harness.generator.err = llm.ErrUnavailable

	recorder := postJSON(t, harness.handler, "/generate_notes", `{"slide_text":"`+sampleSlideText+`"}`, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", recorder.Code)
	}
	var notes narration.Notes
	decodeBody(t, recorder, &notes)
	if !notes.Degraded || notes.SpeakerNotes != "" {
		t.Fatalf("expected degraded empty notes, got %+v", notes)
	}
}

func TestGenerateNotesRequiresSlideText(t *testing.T) {
	harness := newTestHarness(t)

	recorder := postJSON(t, harness.handler, "/generate_notes", `{"slide_text":"   "}`, nil)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "missing_slide_text") {
		t.Fatalf("unexpected body %s", recorder.Body.String())
	}
	if harness.generator.calls() != 0 {
		t.Fatalf("expected no backend calls for empty slide text")
	}
}

func TestPreviewNoteSkipsShortText(t *testing.T) {
	harness := newTestHarness(t)

	recorder := postJSON(t, harness.handler, "/preview_note", `{"slide_text":"Too short","tone":"Academic"}`, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", recorder.Code)
	}
	var preview narration.Preview
	decodeBody(t, recorder, &preview)
	if preview.Preview != "" || harness.generator.calls() != 0 {
		t.Fatalf("expected empty preview without backend call, got %+v", preview)
	}
}

func TestGenerateVisualPromptEndpoint(t *testing.T) {
	harness := newTestHarness(t)
	harness.generator.responses = []string{"A sketch of steam engines in a busy factory"}

	recorder := postJSON(t, harness.handler, "/generate_visual_prompt",
		`{"slide_text":"Timeline of steam engine milestones","style":"Sketch","enhance":true}`, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", recorder.Code, recorder.Body.String())
	}
	var visual narration.Visual
	decodeBody(t, recorder, &visual)
	if visual.VisualPrompt != "A sketch of steam engines in a busy factory" || visual.Style != "Sketch" {
		t.Fatalf("unexpected visual %+v", visual)
	}
	if visual.SuggestedStyle == "" {
		t.Fatalf("expected a suggested style")
	}
}

func TestExportNotesEndpoint(t *testing.T) {
	harness := newTestHarness(t)
	body := `{"title":"Water Cycle","subtitle":"Evaporation","number":3,"notes":"- Water rises.","duration":"0m 20s"}`

	recorder := postJSON(t, harness.handler, "/export_notes", body, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", recorder.Code)
	}
	var document narration.Document
	decodeBody(t, recorder, &document)
	if document.Filename != "slide_3_notes.md" {
		t.Fatalf("unexpected filename %q", document.Filename)
	}
	if !strings.HasPrefix(document.Markdown, "### Slide 3: Water Cycle\n**Evaporation**\n0m 20s") {
		t.Fatalf("unexpected markdown %q", document.Markdown)
	}

	download := postJSON(t, harness.handler, "/export_notes?download=markdown", body, nil)
	if !strings.Contains(download.Header().Get("Content-Disposition"), "slide_3_notes.md") {
		t.Fatalf("expected markdown attachment")
	}
	if download.Body.String() != document.Markdown {
		t.Fatalf("unexpected download body %q", download.Body.String())
	}
}

func TestNarrationCatalog(t *testing.T) {
	harness := newTestHarness(t)

	recorder := httptest.NewRecorder()
	harness.handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/narration/catalog", http.NoBody))
	var payload struct {
		Tones        []narration.Tone    `json:"tones"`
		Styles       []narration.Style   `json:"styles"`
		Examples     []narration.Example `json:"examples"`
		NotesExample narration.Example   `json:"notes_example"`
	}
	decodeBody(t, recorder, &payload)
	if len(payload.Tones) == 0 || len(payload.Styles) == 0 {
		t.Fatalf("expected non-empty catalog, got %+v", payload)
	}
	if len(payload.Examples) != 3 || payload.Examples[0].Title != "The Water Cycle" {
		t.Fatalf("unexpected visual examples %+v", payload.Examples)
	}
	if payload.NotesExample.Title != "The Industrial Revolution" || payload.NotesExample.SlideText == "" {
		t.Fatalf("unexpected notes example %+v", payload.NotesExample)
	}
}

func TestGenerationRoutesAreRateLimited(t *testing.T) {
	harness := newTestHarness(t, withRequestsPerMinute(1))

	first := postJSON(t, harness.handler, "/preview_note", `{"slide_text":"short"}`, nil)
	if first.Code != http.StatusOK {
		t.Fatalf("unexpected first status %d", first.Code)
	}
	second := postJSON(t, harness.handler, "/preview_note", `{"slide_text":"short"}`, nil)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limited status, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatalf("expected retry-after header")
	}

	export := postJSON(t, harness.handler, "/export_notes", `{"title":"t","number":1}`, nil)
	if export.Code != http.StatusOK {
		t.Fatalf("export route must not be rate limited, got %d", export.Code)
	}
}

// blockingGenerator holds the first completion until its context ends.
type blockingGenerator struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
}

func (g *blockingGenerator) Complete(ctx context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
	g.mu.Lock()
	g.calls++
	call := g.calls
	g.mu.Unlock()
	if call == 1 {
		close(g.started)
		<-ctx.Done()
		return llm.CompletionResponse{}, errors.Join(llm.ErrUnavailable, ctx.Err())
	}
	return llm.CompletionResponse{Text: "A newer preview."}, nil
}

func TestPreviewNoteLatestRequestWins(t *testing.T) {
	generator := &blockingGenerator{started: make(chan struct{})}
	harness := newTestHarness(t, withGenerator(generator))
	headers := map[string]string{clientIDHeader: "panel-1"}

	firstDone := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		firstDone <- postJSON(t, harness.handler, "/preview_note", `{"slide_text":"`+sampleSlideText+`"}`, headers)
	}()
	<-generator.started

	second := postJSON(t, harness.handler, "/preview_note", `{"slide_text":"`+sampleSlideText+`"}`, headers)
	if second.Code != http.StatusOK {
		t.Fatalf("unexpected newest status %d: %s", second.Code, second.Body.String())
	}
	var preview narration.Preview
	decodeBody(t, second, &preview)
	if preview.Preview != "A newer preview." {
		t.Fatalf("unexpected preview %q", preview.Preview)
	}

	first := <-firstDone
	if first.Code != http.StatusConflict {
		t.Fatalf("expected superseded request to be rejected, got %d", first.Code)
	}
}

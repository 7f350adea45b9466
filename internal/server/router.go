package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/slidecraft/internal/analyzer"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/auth"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/contributions"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/edits"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/narration"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	clientIDHeader          = "X-Client-ID"
	confirmationTokenHeader = "X-Confirmation-Token"

	defaultHeartbeatInterval = 15 * time.Second
)

var (
	errMissingEditLog       = errors.New("edit log dependency required")
	errMissingConfirmations = errors.New("confirmation issuer dependency required")
	errMissingScorer        = errors.New("contribution scorer dependency required")
	errMissingNarrator      = errors.New("narration dependency required")
	errMissingDetector      = errors.New("beat detector dependency required")
)

// EditLog persists per-deck edit records.
type EditLog interface {
	Append(ctx context.Context, deckID edits.DeckID, entries []edits.Entry) ([]edits.Record, error)
	List(ctx context.Context, deckID edits.DeckID) ([]edits.Record, error)
	Clear(ctx context.Context, deckID edits.DeckID) (int64, error)
}

// Confirmations issues and checks tokens guarding destructive deck actions.
type Confirmations interface {
	Issue(deckID, action string) (auth.Confirmation, error)
	Verify(token, deckID, action string) error
}

// Narrator produces speaker notes, previews, visual prompts, and note exports.
type Narrator interface {
	GenerateNotes(ctx context.Context, request narration.NotesRequest) (narration.Notes, error)
	Preview(ctx context.Context, slideText, tone string) (narration.Preview, error)
	VisualPrompt(ctx context.Context, request narration.VisualRequest) (narration.Visual, error)
	RenderDocument(request narration.DocumentRequest) (narration.Document, error)
}

type Dependencies struct {
	Edits                EditLog
	Confirmations        Confirmations
	Scorer               *contributions.Scorer
	Narration            Narrator
	Analyzer             analyzer.Detector
	Realtime             *RealtimeDispatcher
	Logger               *zap.Logger
	AllowedOrigins       []string
	LLMRequestsPerMinute int
	HeartbeatInterval    time.Duration
	Clock                func() time.Time
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Edits == nil {
		return nil, errMissingEditLog
	}
	if deps.Confirmations == nil {
		return nil, errMissingConfirmations
	}
	if deps.Scorer == nil {
		return nil, errMissingScorer
	}
	if deps.Narration == nil {
		return nil, errMissingNarrator
	}
	if deps.Analyzer == nil {
		return nil, errMissingDetector
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	realtime := deps.Realtime
	if realtime == nil {
		realtime = NewRealtimeDispatcher()
	}
	heartbeat := deps.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(deps.AllowedOrigins))

	handler := &httpHandler{
		edits:             deps.Edits,
		confirmations:     deps.Confirmations,
		scorer:            deps.Scorer,
		narration:         deps.Narration,
		analyzer:          deps.Analyzer,
		realtime:          realtime,
		gate:              newRequestGate(),
		logger:            logger,
		heartbeatInterval: heartbeat,
		clock:             clock,
	}

	router.GET("/healthz", handler.handleHealth)

	router.GET("/beats/genres", handler.handleGenres)
	router.POST("/beats/plan", handler.handlePlanBeats)
	router.POST("/generate_beats", handler.handleGenerateBeats)
	router.POST("/auto_slide_timing", handler.handleAutoSlideTiming)
	router.POST("/export_json", handler.handleExportJSON)
	router.POST("/export_csv", handler.handleExportCSV)

	router.GET("/narration/catalog", handler.handleNarrationCatalog)
	router.POST("/export_notes", handler.handleExportNotes)
	generation := router.Group("/")
	generation.Use(newRateLimiter(deps.LLMRequestsPerMinute))
	generation.POST("/generate_notes", handler.handleGenerateNotes)
	generation.POST("/preview_note", handler.handlePreviewNote)
	generation.POST("/generate_visual_prompt", handler.handleGenerateVisualPrompt)

	router.POST("/contributions/summary", handler.handleContributionSummary)

	decks := router.Group("/decks/:deck/edits")
	decks.GET("", handler.handleListEdits)
	decks.POST("", handler.handleAppendEdits)
	decks.DELETE("", handler.handleClearEdits)
	decks.POST("/clear", handler.handleRequestClear)
	decks.POST("/example", handler.handleLoadExample)
	decks.GET("/summary", handler.handleEditsSummary)
	decks.GET("/view", handler.handleEditsView)
	decks.GET("/stream", handler.handleEditsStream)

	return router, nil
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	origins := make([]string, 0, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	config := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", clientIDHeader, confirmationTokenHeader},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || containsWildcard(origins) {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	return cors.New(config)
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}

type httpHandler struct {
	edits             EditLog
	confirmations     Confirmations
	scorer            *contributions.Scorer
	narration         Narrator
	analyzer          analyzer.Detector
	realtime          *RealtimeDispatcher
	gate              *requestGate
	logger            *zap.Logger
	heartbeatInterval time.Duration
	clock             func() time.Time
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

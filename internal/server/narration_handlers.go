package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/MarcoPoloResearchLab/slidecraft/internal/narration"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type notesRequestPayload struct {
	SlideText          string `json:"slide_text"`
	Tone               string `json:"tone"`
	MaxSeconds         int    `json:"max_seconds"`
	IncludeMainIdea    bool   `json:"include_main_idea"`
	IncludeTransitions bool   `json:"include_transitions"`
}

type previewRequestPayload struct {
	SlideText string `json:"slide_text"`
	Tone      string `json:"tone"`
}

type visualRequestPayload struct {
	SlideText string `json:"slide_text"`
	Style     string `json:"style"`
	Enhance   bool   `json:"enhance"`
	Variant   bool   `json:"variant"`
}

func (h *httpHandler) handleNarrationCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tones":         narration.Tones(),
		"styles":        narration.Styles(),
		"examples":      narration.VisualExamples(),
		"notes_example": narration.NotesExample(),
	})
}

func (h *httpHandler) handleGenerateNotes(c *gin.Context) {
	var request notesRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	h.respondLatest(c, func(ctx context.Context) (int, any) {
		notes, err := h.narration.GenerateNotes(ctx, narration.NotesRequest{
			SlideText:          request.SlideText,
			Tone:               request.Tone,
			MaxSeconds:         request.MaxSeconds,
			IncludeMainIdea:    request.IncludeMainIdea,
			IncludeTransitions: request.IncludeTransitions,
		})
		if err != nil {
			return h.narrationFailure("generate_notes", err)
		}
		return http.StatusOK, notes
	})
}

func (h *httpHandler) handlePreviewNote(c *gin.Context) {
	var request previewRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	h.respondLatest(c, func(ctx context.Context) (int, any) {
		preview, err := h.narration.Preview(ctx, request.SlideText, request.Tone)
		if err != nil {
			return h.narrationFailure("preview_note", err)
		}
		return http.StatusOK, preview
	})
}

func (h *httpHandler) handleGenerateVisualPrompt(c *gin.Context) {
	var request visualRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	h.respondLatest(c, func(ctx context.Context) (int, any) {
		visual, err := h.narration.VisualPrompt(ctx, narration.VisualRequest{
			SlideText: request.SlideText,
			Style:     request.Style,
			Enhance:   request.Enhance,
			Variant:   request.Variant,
		})
		if err != nil {
			return h.narrationFailure("generate_visual_prompt", err)
		}
		return http.StatusOK, visual
	})
}

func (h *httpHandler) handleExportNotes(c *gin.Context) {
	var request narration.DocumentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	document, err := h.narration.RenderDocument(request)
	if err != nil {
		h.logger.Error("failed to render notes document", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export_failed"})
		return
	}
	if c.Query("download") == "markdown" {
		c.Header("Content-Disposition", `attachment; filename="`+document.Filename+`"`)
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(document.Markdown))
		return
	}
	c.JSON(http.StatusOK, document)
}

func (h *httpHandler) narrationFailure(operation string, err error) (int, any) {
	switch {
	case errors.Is(err, narration.ErrMissingSlideText):
		return http.StatusBadRequest, gin.H{"error": "missing_slide_text"}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, gin.H{"error": "cancelled"}
	default:
		h.logger.Error("narration request failed", zap.String("operation", operation), zap.Error(err))
		return http.StatusInternalServerError, gin.H{"error": "narration_failed"}
	}
}

package narration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MarcoPoloResearchLab/slidecraft/internal/llm"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"
)

const (
	defaultMaxSeconds  = 60
	maxSpeakingSeconds = 300
	previewMinLength   = 21
	previewTokens      = 60
	visualPromptTokens = 80
)

var (
	// ErrMissingSlideText indicates that a request carried no slide content.
	ErrMissingSlideText = errors.New("narration: slide text is required")
	errMissingGenerator = errors.New("narration: text generator is required")
)

// ServiceConfig wires the narration service.
type ServiceConfig struct {
	Generator llm.Generator
	Logger    *zap.Logger
}

// Service turns slide content into speaker notes, previews, and visual prompts.
type Service struct {
	generator llm.Generator
	markdown  goldmark.Markdown
	logger    *zap.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Generator == nil {
		return nil, errMissingGenerator
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		generator: cfg.Generator,
		markdown:  newMarkdownRenderer(),
		logger:    logger,
	}, nil
}

// NotesRequest asks for speaker notes.
type NotesRequest struct {
	SlideText          string
	Tone               string
	MaxSeconds         int
	IncludeMainIdea    bool
	IncludeTransitions bool
}

// Notes is the processed speaker-notes result. Degraded is set when the generator failed.
type Notes struct {
	SpeakerNotes      string         `json:"speaker_notes"`
	PlainNotes        string         `json:"plain_notes"`
	HTML              string         `json:"html"`
	EstimatedDuration Duration       `json:"estimated_duration"`
	WordsPerMinute    int            `json:"wpm"`
	PaceRating        string         `json:"pace_rating"`
	SlideText         SlideTextStats `json:"slide_text"`
	Degraded          bool           `json:"degraded"`
}

// GenerateNotes prompts the generator and post-processes the completion into emphasised bullets.
func (s *Service) GenerateNotes(ctx context.Context, request NotesRequest) (Notes, error) {
	if strings.TrimSpace(request.SlideText) == "" {
		return Notes{}, ErrMissingSlideText
	}
	maxSeconds := clampSeconds(request.MaxSeconds)
	tone := request.Tone
	if strings.TrimSpace(tone) == "" {
		tone = defaultTone
	}

	stats := AnalyzeSlideText(request.SlideText, maxSeconds)
	_, maxTokens := WordBudget(maxSeconds)
	completion, err := s.generator.Complete(ctx, llm.CompletionRequest{
		Prompt: NotesPrompt(NotesOptions{
			SlideText:          request.SlideText,
			Tone:               tone,
			IncludeMainIdea:    request.IncludeMainIdea,
			IncludeTransitions: request.IncludeTransitions,
		}),
		MaxTokens: maxTokens,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Notes{}, ctxErr
		}
		s.logger.Warn("speaker notes degraded", zap.String("tone", tone), zap.Error(err))
		return Notes{SlideText: stats, Degraded: true}, nil
	}

	notes := RemoveLoops(FinishLastSentence(completion.Text))
	bullets := CleanSpacing(notes)
	duration := EstimateDuration(notes)
	rate := WordsPerMinute(bullets, duration)
	emphasized := EmphasizeKeywords(bullets)

	html, err := renderHTML(s.markdown, emphasized)
	if err != nil {
		return Notes{}, fmt.Errorf("narration: render notes: %w", err)
	}

	return Notes{
		SpeakerNotes:      emphasized,
		PlainNotes:        bullets,
		HTML:              html,
		EstimatedDuration: duration,
		WordsPerMinute:    rate,
		PaceRating:        PaceRating(rate),
		SlideText:         stats,
	}, nil
}

// Preview is an opening-line preview.
type Preview struct {
	Preview  string `json:"preview"`
	Degraded bool   `json:"degraded"`
}

// Preview produces a short opening for the slide. Text of 20 characters or fewer yields an
// empty preview without calling the generator.
func (s *Service) Preview(ctx context.Context, slideText, tone string) (Preview, error) {
	trimmed := strings.TrimSpace(slideText)
	if trimmed == "" {
		return Preview{}, ErrMissingSlideText
	}
	if len([]rune(slideText)) < previewMinLength {
		return Preview{}, nil
	}
	if strings.TrimSpace(tone) == "" {
		tone = defaultTone
	}
	completion, err := s.generator.Complete(ctx, llm.CompletionRequest{
		Prompt:    PreviewPrompt(trimmed, tone),
		MaxTokens: previewTokens,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Preview{}, ctxErr
		}
		s.logger.Warn("note preview degraded", zap.String("tone", tone), zap.Error(err))
		return Preview{Degraded: true}, nil
	}
	return Preview{Preview: strings.TrimSpace(completion.Text)}, nil
}

// VisualRequest asks for an image-generator prompt.
type VisualRequest struct {
	SlideText string
	Style     string
	Enhance   bool
	Variant   bool
}

// Visual is the generated image prompt with the style suggested by the slide text.
type Visual struct {
	VisualPrompt   string `json:"visual_prompt"`
	Style          string `json:"style"`
	SuggestedStyle string `json:"suggested_style"`
	Degraded       bool   `json:"degraded"`
}

// VisualPrompt generates a prompt of at most 280 characters for the chosen style.
func (s *Service) VisualPrompt(ctx context.Context, request VisualRequest) (Visual, error) {
	if strings.TrimSpace(request.SlideText) == "" {
		return Visual{}, ErrMissingSlideText
	}
	style := strings.TrimSpace(request.Style)
	if style == "" {
		style = defaultStyle
	}
	result := Visual{Style: style, SuggestedStyle: SuggestStyle(request.SlideText)}

	completion, err := s.generator.Complete(ctx, llm.CompletionRequest{
		Prompt: VisualPrompt(VisualOptions{
			SlideText: request.SlideText,
			Style:     style,
			Enhance:   request.Enhance,
			Variant:   request.Variant,
		}),
		MaxTokens: visualPromptTokens,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Visual{}, ctxErr
		}
		s.logger.Warn("visual prompt degraded", zap.String("style", style), zap.Error(err))
		result.Degraded = true
		return result, nil
	}
	result.VisualPrompt = TrimVisualPrompt(completion.Text)
	return result, nil
}

// RenderDocument formats notes for export and renders them to HTML.
func (s *Service) RenderDocument(request DocumentRequest) (Document, error) {
	if request.Number < 1 {
		request.Number = 1
	}
	markdown := FormatDocument(request)
	html, err := renderHTML(s.markdown, markdown)
	if err != nil {
		return Document{}, fmt.Errorf("narration: render document: %w", err)
	}
	return Document{
		Filename: fmt.Sprintf("slide_%d_notes.md", request.Number),
		Markdown: markdown,
		HTML:     html,
	}, nil
}

func clampSeconds(value int) int {
	if value <= 0 {
		return defaultMaxSeconds
	}
	if value > maxSpeakingSeconds {
		return maxSpeakingSeconds
	}
	return value
}

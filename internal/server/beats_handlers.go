package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/MarcoPoloResearchLab/slidecraft/internal/analyzer"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/beats"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const missingBeatsMessage = "Missing 'beats' data"

type planRequestPayload struct {
	Mode               string    `json:"mode"`
	Start              float64   `json:"start"`
	End                float64   `json:"end"`
	RequestedCount     int       `json:"requested_count"`
	MinGap             float64   `json:"min_gap"`
	Genre              string    `json:"genre"`
	GenreAffectsTiming bool      `json:"genre_affects_timing"`
	DetectedBeats      []float64 `json:"detected_beats"`
}

type planResponsePayload struct {
	Timestamps []float64 `json:"timestamps"`
	SlideCount int       `json:"slide_count"`
	Evenly     bool      `json:"evenly"`
	Lines      []string  `json:"lines"`
	Text       string    `json:"text"`
	BeatList   string    `json:"beat_list"`
	Status     string    `json:"status"`
}

func (h *httpHandler) handleGenres(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"genres": beats.Genres()})
}

func (h *httpHandler) handlePlanBeats(c *gin.Context) {
	var request planRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	mode, err := beats.ParseMode(request.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_mode", "message": err.Error()})
		return
	}
	timeRange, err := beats.NewTimeRange(request.Start, request.End)
	if err != nil {
		respondPlanError(c, err)
		return
	}

	var plan beats.Plan
	switch mode {
	case beats.ModeAuto:
		plan, err = beats.PlanAuto(beats.AutoRequest{
			Range:              timeRange,
			RequestedCount:     request.RequestedCount,
			MinGap:             request.MinGap,
			Genre:              beats.ParseGenre(request.Genre),
			GenreAffectsTiming: request.GenreAffectsTiming,
			DetectedBeats:      request.DetectedBeats,
		})
	default:
		plan, err = beats.PlanManual(beats.ManualRequest{
			Range:          timeRange,
			RequestedCount: request.RequestedCount,
			MinGap:         request.MinGap,
		})
	}
	if err != nil {
		respondPlanError(c, err)
		return
	}

	descriptor := ""
	if mode == beats.ModeAuto {
		descriptor = beats.DescribeTiming(plan.Timestamps())
	}
	c.JSON(http.StatusOK, planResponsePayload{
		Timestamps: plan.Timestamps(),
		SlideCount: plan.SlideCount(),
		Evenly:     plan.Evenly(),
		Lines:      plan.Lines(),
		Text:       plan.Text(),
		BeatList:   plan.BeatList(),
		Status:     plan.Status(descriptor),
	})
}

func respondPlanError(c *gin.Context, err error) {
	code := "invalid_plan"
	switch {
	case errors.Is(err, beats.ErrInvalidRange):
		code = "invalid_range"
	case errors.Is(err, beats.ErrInvalidCount):
		code = "invalid_count"
	case errors.Is(err, beats.ErrInvalidGap):
		code = "invalid_gap"
	case errors.Is(err, beats.ErrInsufficientSpace):
		code = "insufficient_space"
	case errors.Is(err, beats.ErrInsufficientBeats):
		code = "insufficient_beats"
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": code, "message": err.Error()})
}

type detectResponsePayload struct {
	SyncPoints             []analyzer.SyncPoint `json:"sync_points"`
	EstimatedTotalDuration float64              `json:"estimated_total_duration"`
	Degraded               bool                 `json:"degraded"`
}

func (h *httpHandler) handleGenerateBeats(c *gin.Context) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_audio", "message": "No audio file uploaded"})
		return
	}
	startTime, startErr := parseFormFloat(c.PostForm("start_time"), 0)
	endTime, endErr := parseFormFloat(c.PostForm("end_time"), 0)
	numBeats, countErr := strconv.Atoi(defaultString(c.PostForm("num_beats"), "0"))
	if startErr != nil || endErr != nil || countErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	evenSpacing := strings.EqualFold(strings.TrimSpace(c.PostForm("even_spacing")), "true")

	audio, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("failed to open uploaded audio", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_audio"})
		return
	}
	defer audio.Close()

	h.respondLatest(c, func(ctx context.Context) (int, any) {
		result, detectErr := h.analyzer.Detect(ctx, analyzer.Request{
			Filename:    fileHeader.Filename,
			Audio:       audio,
			StartTime:   startTime,
			EndTime:     endTime,
			NumBeats:    numBeats,
			EvenSpacing: evenSpacing,
		})
		if detectErr != nil {
			if ctx.Err() != nil {
				return http.StatusServiceUnavailable, gin.H{"error": "cancelled"}
			}
			h.logger.Warn("beat detection degraded", zap.String("filename", fileHeader.Filename), zap.Error(detectErr))
			return http.StatusOK, detectResponsePayload{SyncPoints: []analyzer.SyncPoint{}, Degraded: true}
		}
		return http.StatusOK, detectResponsePayload{
			SyncPoints:             result.SyncPoints,
			EstimatedTotalDuration: result.EstimatedTotalDuration,
		}
	})
}

func (h *httpHandler) handleAutoSlideTiming(c *gin.Context) {
	timestamps, ok := bindBeatList(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestion": beats.DescribeTiming(timestamps)})
}

func (h *httpHandler) handleExportJSON(c *gin.Context) {
	timestamps, ok := bindBeatList(c)
	if !ok {
		return
	}
	body, err := beats.ExportJSON(timestamps)
	if err != nil {
		h.logger.Error("failed to export beats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export_failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="beats.json"`)
	c.Data(http.StatusOK, "application/json", body)
}

func (h *httpHandler) handleExportCSV(c *gin.Context) {
	timestamps, ok := bindBeatList(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="beats.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(beats.ExportCSV(timestamps)))
}

func bindBeatList(c *gin.Context) ([]float64, bool) {
	raw := c.PostForm("beats")
	if strings.TrimSpace(raw) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_beats", "message": missingBeatsMessage})
		return nil, false
	}
	timestamps, err := beats.ParseBeatList(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_beats", "message": err.Error()})
		return nil, false
	}
	return timestamps, true
}

func parseFormFloat(value string, fallback float64) (float64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(trimmed, 64)
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

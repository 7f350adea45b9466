package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/slidecraft/internal/auth"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/contributions"
	"github.com/MarcoPoloResearchLab/slidecraft/internal/edits"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type appendRequestPayload struct {
	Entries []edits.Entry `json:"entries"`
}

type recordPayload struct {
	RecordID        string    `json:"record_id"`
	User            string    `json:"user"`
	SlideID         string    `json:"slide_id"`
	EditType        string    `json:"edit_type"`
	NumEdits        int       `json:"num_edits"`
	DurationSeconds int       `json:"duration_sec"`
	Duration        string    `json:"duration"`
	Timestamp       time.Time `json:"timestamp"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
}

type recordsResponsePayload struct {
	DeckID  string          `json:"deck_id"`
	Records []recordPayload `json:"records"`
}

type summaryRequestPayload struct {
	Records []contributions.EditRecord `json:"records"`
}

type realtimeEventPayload struct {
	DeckID    string `json:"deck_id"`
	Reason    string `json:"reason,omitempty"`
	Count     int64  `json:"count"`
	Timestamp int64  `json:"timestamp_s"`
	Source    string `json:"source"`
}

func toRecordPayloads(records []edits.Record) []recordPayload {
	payloads := make([]recordPayload, 0, len(records))
	for _, record := range records {
		payloads = append(payloads, recordPayload{
			RecordID:        record.RecordID,
			User:            record.UserName,
			SlideID:         record.SlideID,
			EditType:        record.EditType,
			NumEdits:        record.NumEdits,
			DurationSeconds: record.DurationSeconds,
			Duration:        contributions.FormatDuration(record.DurationSeconds),
			Timestamp:       time.Unix(record.OccurredAtSeconds, 0).UTC(),
			AvatarURL:       record.AvatarURL,
		})
	}
	return payloads
}

func (h *httpHandler) deckIDParam(c *gin.Context) (edits.DeckID, bool) {
	deckID, err := edits.NewDeckID(c.Param("deck"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_deck_id"})
		return "", false
	}
	return deckID, true
}

func (h *httpHandler) handleListEdits(c *gin.Context) {
	deckID, ok := h.deckIDParam(c)
	if !ok {
		return
	}
	records, err := h.edits.List(c.Request.Context(), deckID)
	if err != nil {
		respondServiceError(c, "list_failed", err)
		return
	}
	c.JSON(http.StatusOK, recordsResponsePayload{DeckID: deckID.String(), Records: toRecordPayloads(records)})
}

func (h *httpHandler) handleAppendEdits(c *gin.Context) {
	deckID, ok := h.deckIDParam(c)
	if !ok {
		return
	}
	var request appendRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || len(request.Entries) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	h.appendAndRespond(c, deckID, request.Entries)
}

func (h *httpHandler) handleLoadExample(c *gin.Context) {
	deckID, ok := h.deckIDParam(c)
	if !ok {
		return
	}
	examples := contributions.ExampleRecords(h.clock())
	entries := make([]edits.Entry, 0, len(examples))
	for _, example := range examples {
		entries = append(entries, edits.EntryFromContribution(example))
	}
	h.appendAndRespond(c, deckID, entries)
}

func (h *httpHandler) appendAndRespond(c *gin.Context, deckID edits.DeckID, entries []edits.Entry) {
	records, err := h.edits.Append(c.Request.Context(), deckID, entries)
	if err != nil {
		respondServiceError(c, "append_failed", err)
		return
	}
	h.publishChange(deckID, ChangeReasonAppended, int64(len(records)))
	c.JSON(http.StatusCreated, recordsResponsePayload{DeckID: deckID.String(), Records: toRecordPayloads(records)})
}

func (h *httpHandler) handleRequestClear(c *gin.Context) {
	deckID, ok := h.deckIDParam(c)
	if !ok {
		return
	}
	confirmation, err := h.confirmations.Issue(deckID.String(), auth.ActionClearEdits)
	if err != nil {
		h.logger.Error("failed to issue confirmation token", zap.String("deck_id", deckID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "confirmation_issue_failed"})
		return
	}
	c.JSON(http.StatusOK, confirmation)
}

func (h *httpHandler) handleClearEdits(c *gin.Context) {
	deckID, ok := h.deckIDParam(c)
	if !ok {
		return
	}
	token := strings.TrimSpace(c.GetHeader(confirmationTokenHeader))
	if token == "" {
		token = strings.TrimSpace(c.Query("confirmation_token"))
	}
	if token == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "confirmation_required"})
		return
	}
	if err := h.confirmations.Verify(token, deckID.String(), auth.ActionClearEdits); err != nil {
		h.logger.Warn("clear confirmation rejected", zap.String("deck_id", deckID.String()), zap.Error(err))
		c.JSON(http.StatusForbidden, gin.H{"error": "confirmation_rejected"})
		return
	}
	removed, err := h.edits.Clear(c.Request.Context(), deckID)
	if err != nil {
		respondServiceError(c, "clear_failed", err)
		return
	}
	h.publishChange(deckID, ChangeReasonCleared, removed)
	c.JSON(http.StatusOK, gin.H{"deck_id": deckID.String(), "removed": removed})
}

func (h *httpHandler) handleEditsSummary(c *gin.Context) {
	deckID, ok := h.deckIDParam(c)
	if !ok {
		return
	}
	records, err := h.edits.List(c.Request.Context(), deckID)
	if err != nil {
		respondServiceError(c, "list_failed", err)
		return
	}
	c.JSON(http.StatusOK, h.scorer.Summarize(edits.ToContributions(records)))
}

func (h *httpHandler) handleEditsView(c *gin.Context) {
	deckID, ok := h.deckIDParam(c)
	if !ok {
		return
	}
	sortKey, err := contributions.ParseSortKey(c.Query("sort"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_sort", "message": err.Error()})
		return
	}
	groupKey, err := contributions.ParseGroupKey(c.Query("group"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_group", "message": err.Error()})
		return
	}
	nonContributors, _ := strconv.ParseBool(c.DefaultQuery("non_contributors", "false"))
	ascending, _ := strconv.ParseBool(c.DefaultQuery("ascending", "false"))

	records, err := h.edits.List(c.Request.Context(), deckID)
	if err != nil {
		respondServiceError(c, "list_failed", err)
		return
	}
	groups := h.scorer.View(edits.ToContributions(records), contributions.ViewQuery{
		Search:              c.Query("search"),
		NonContributorsOnly: nonContributors,
		SortBy:              sortKey,
		Ascending:           ascending,
		GroupBy:             groupKey,
	})
	c.JSON(http.StatusOK, gin.H{"deck_id": deckID.String(), "groups": groups})
}

func (h *httpHandler) handleContributionSummary(c *gin.Context) {
	var request summaryRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	for index, record := range request.Records {
		if err := record.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_record",
				"message": fmt.Sprintf("record %d: %v", index, err),
			})
			return
		}
	}
	c.JSON(http.StatusOK, h.scorer.Summarize(request.Records))
}

func (h *httpHandler) handleEditsStream(c *gin.Context) {
	deckID, ok := h.deckIDParam(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	stream, cleanup := h.realtime.Subscribe(ctx, deckID.String())
	defer cleanup()

	c.SSEvent(realtimeEventConnected, realtimeEventPayload{
		DeckID:    deckID.String(),
		Timestamp: h.clock().UTC().Unix(),
		Source:    realtimeSourceBackend,
	})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case message, open := <-stream:
			if !open {
				return
			}
			c.SSEvent(message.EventType, realtimeEventPayload{
				DeckID:    message.DeckID,
				Reason:    message.Reason,
				Count:     message.Count,
				Timestamp: message.Timestamp.Unix(),
				Source:    realtimeSourceBackend,
			})
			c.Writer.Flush()
		case tick := <-ticker.C:
			c.SSEvent(realtimeEventHeartbeat, realtimeEventPayload{
				DeckID:    deckID.String(),
				Timestamp: tick.UTC().Unix(),
				Source:    realtimeSourceBackend,
			})
			c.Writer.Flush()
		}
	}
}

func (h *httpHandler) publishChange(deckID edits.DeckID, reason string, count int64) {
	h.realtime.Publish(RealtimeMessage{
		DeckID:    deckID.String(),
		EventType: RealtimeEventEditsChanged,
		Reason:    reason,
		Count:     count,
		Timestamp: h.clock().UTC(),
	})
}

func respondServiceError(c *gin.Context, fallback string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, edits.ErrInvalidEntry) || errors.Is(err, edits.ErrInvalidDeckID) {
		status = http.StatusBadRequest
	}
	body := gin.H{"error": fallback}
	var serviceErr *edits.ServiceError
	if errors.As(err, &serviceErr) {
		body["code"] = serviceErr.Code()
	}
	c.JSON(status, body)
}

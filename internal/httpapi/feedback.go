package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/anvramos/adforge/internal/feedback"
	"github.com/anvramos/adforge/internal/model"
)

func (s *Server) handleRecordFeedback(w http.ResponseWriter, r *http.Request) {
	var rec model.FeedbackRecord
	if err := decodeJSON(r, &rec); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	rec.RequestID = strings.TrimSpace(rec.RequestID)
	if rec.RequestID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "request_id is required")
		return
	}

	if err := s.aggregator.Record(rec); err != nil {
		if errors.Is(err, feedback.ErrRequestNotFound) {
			respondError(w, http.StatusNotFound, "request_not_found", err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_feedback", err.Error())
		return
	}
	s.metrics.FeedbackRecorded()
	s.metrics.SetFeedbackEntries(s.aggregator.Count())

	respondJSON(w, http.StatusOK, map[string]any{
		"message":    "Feedback recorded successfully",
		"request_id": rec.RequestID,
		"platform":   strings.ToLower(strings.TrimSpace(rec.Platform)),
	})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	requestID := strings.TrimSpace(chi.URLParam(r, "request_id"))
	if requestID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "missing request id")
		return
	}

	summary, err := s.aggregator.Insights(requestID)
	if err != nil {
		if errors.Is(err, feedback.ErrNoFeedback) {
			respondError(w, http.StatusNotFound, "no_feedback", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "insights_failed", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"request_id": requestID,
		"insights":   summary,
		"timestamp":  time.Now().UTC(),
	})
}

func (s *Server) handleTopPerformers(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}

	performers := make([]model.FeedbackRecord, 0, limit)
	for rec := range s.aggregator.TopPerformers(limit) {
		performers = append(performers, rec)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"top_performers": performers,
		"count":          len(performers),
	})
}

// handleFeedbackWS streams feedback events to the client as they are
// recorded. The read loop exists only to notice disconnects; clients
// are not expected to send messages.
func (s *Server) handleFeedbackWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancelSub := s.aggregator.Subscribe()
	defer cancelSub()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(evt); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	conn.SetReadLimit(1 << 20)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	cancel()
	<-writerDone
}

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/chriscow/postop-callsvc/pkg/analyzer"
	"github.com/gin-gonic/gin"
)

// analyzeSessionHandler handles POST /discharge-sessions/:id/analyze:
// runs the Transcript Analyzer over a captured passive-listening
// session and schedules the resulting call recommendations.
func (s *Server) analyzeSessionHandler(c *gin.Context) {
	sessionID := c.Param("id")

	var req AnalyzeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx, cancel := withTimeout(c, 45*time.Second)
	defer cancel()

	instructions := req.toDomainInstructions()
	analysis := s.analyzer.AnalyzeDischargeTranscript(ctx, sessionID, req.PatientName, req.PatientLanguage, instructions)

	if payload, err := json.Marshal(analysis); err != nil {
		slog.Error("failed to encode transcript analysis", "session_id", sessionID, "error", err)
	} else if err := s.store.SaveAnalysis(ctx, sessionID, payload); err != nil {
		slog.Error("failed to persist transcript analysis", "session_id", sessionID, "error", err)
	}

	calls := analyzer.ToCallScheduleItems(analysis, req.PatientID, req.PatientPhone, req.DischargeTime)
	if err := s.scheduler.ScheduleFromAnalysis(ctx, calls); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, AnalyzeResponse{
		SessionID:          sessionID,
		CallsCreated:       len(calls),
		OverallComplexity:  analysis.OverallComplexity,
		AnalysisConfidence: analysis.AnalysisConfidence,
		AnalyzedAt:         time.Now().UTC(),
	})
}

// getAnalysisHandler handles GET /discharge-sessions/:id/analysis:
// returns the Transcript Analysis previously persisted for a session,
// exactly as the analyzer produced it.
func (s *Server) getAnalysisHandler(c *gin.Context) {
	sessionID := c.Param("id")

	payload, ok, err := s.store.GetAnalysis(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no analysis recorded for session " + sessionID})
		return
	}

	var analysis analyzer.TranscriptAnalysis
	if err := json.Unmarshal(payload, &analysis); err != nil {
		slog.Error("stored transcript analysis malformed", "session_id", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stored analysis malformed"})
		return
	}

	c.JSON(http.StatusOK, analysis)
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"admissions-workers/internal/analysis"
	apperrors "admissions-workers/internal/common/errors"
	"admissions-workers/internal/models"
	"admissions-workers/internal/notify"
	"admissions-workers/internal/providers"
)

const readyTimeout = 5 * time.Second

type analyzeRequest struct {
	SessionID string              `json:"sessionId"`
	Quiz      models.QuizResponse `json:"quiz"`
	Settings  *models.Settings    `json:"settings"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	failed := map[string]string{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"checks": failed,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// analyze always answers 200 with a result once the body is valid; the
// orchestrator falls back internally.
func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	if err := req.Quiz.Validate(); err != nil {
		stdErr := apperrors.Normalize(err)
		c.JSON(http.StatusBadRequest, errorResponse{Error: stdErr.Message, Code: string(stdErr.Code), Details: stdErr.Details})
		return
	}

	settings := models.Settings{}
	if req.Settings != nil {
		settings = *req.Settings
	}

	ctx := c.Request.Context()
	result := s.analyzer.Analyze(ctx, req.Quiz, settings)

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = result.AnalysisID
	}
	if s.store != nil {
		if err := s.store.Save(ctx, sessionID, result); err != nil {
			s.logger.Warn("failed to cache analysis result", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
		}
	}

	c.Header("X-Session-Id", sessionID)
	c.JSON(http.StatusOK, result)
}

func (s *Server) getAnalysis(c *gin.Context) {
	result, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) share(c *gin.Context) {
	result, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mailto":      notify.PartnerShareMailto(s.siteURL, result),
		"bookingLink": notify.BookingLink(s.siteURL),
	})
}

// lookup writes the error response itself when it returns false.
func (s *Server) lookup(c *gin.Context) (*models.AnalysisResult, bool) {
	sessionID := c.Param("sessionId")
	if s.store == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "analysis not found"})
		return nil, false
	}

	result, err := s.store.Get(c.Request.Context(), sessionID)
	switch {
	case errors.Is(err, analysis.ErrResultNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "analysis not found"})
		return nil, false
	case err != nil:
		stdErr := apperrors.Normalize(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: stdErr.Message, Code: string(stdErr.Code), Details: stdErr.Details})
		return nil, false
	}
	return result, true
}

func (s *Server) transcribe(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "audio file is required", Details: err.Error()})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "audio file could not be read", Details: err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "audio file could not be read", Details: err.Error()})
		return
	}

	audio := providers.Audio{
		Data:     data,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Filename: fileHeader.Filename,
	}
	if raw := c.PostForm("durationMs"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "durationMs must be an integer"})
			return
		}
		audio.DurationMs = ms
	}

	settings := models.Settings{}
	if raw := c.PostForm("settings"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &settings); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "settings must be a JSON object", Details: err.Error()})
			return
		}
	}

	result, err := s.analyzer.Transcribe(c.Request.Context(), audio, settings)
	if err != nil {
		stdErr := apperrors.Normalize(err)
		c.JSON(transcriptionStatus(stdErr.Code), errorResponse{
			Error:   stdErr.Message,
			Code:    string(stdErr.Code),
			Details: stdErr.Details,
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

// transcriptionStatus maps capability problems to 422 so the client switches
// input mode. Timeouts are 504, anything else is an upstream failure.
func transcriptionStatus(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeTranscriptionUnsupported,
		apperrors.ErrCodeVoiceInputDisabled,
		apperrors.ErrCodeAudioTooLong:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeLLMTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

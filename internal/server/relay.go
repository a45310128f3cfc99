package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const relayFailure = "Failed to connect to LMStudio"

// relayLMStudio forwards a browser call to the local inference server and
// wraps whatever JSON it answers in {success, data}.
func (s *Server) relayLMStudio(c *gin.Context) {
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		endpoint = "models"
		if c.Request.Method == http.MethodPost {
			endpoint = "chat/completions"
		}
	}
	baseURL := c.DefaultQuery("baseUrl", s.lmstudio)
	if !s.relayAllowed(baseURL) {
		s.logger.Warn("lmstudio relay target rejected", map[string]interface{}{"baseUrl": baseURL})
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "baseUrl is not allowed",
			"details": "baseUrl must point at the configured LM Studio host or a loopback address",
		})
		return
	}
	target := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")

	var body io.Reader
	if c.Request.Method == http.MethodPost {
		payload, err := io.ReadAll(c.Request.Body)
		if err != nil || !json.Valid(payload) {
			s.relayFailed(c, target, fmt.Errorf("request body is not valid JSON"))
			return
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, body)
	if err != nil {
		s.relayFailed(c, target, err)
		return
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.relay.Do(req)
	if err != nil {
		s.relayFailed(c, target, err)
		return
	}
	defer resp.Body.Close()

	var data json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		s.relayFailed(c, target, fmt.Errorf("decode upstream reply: %w", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// relayAllowed limits the relay to the configured LM Studio host and loopback.
func (s *Server) relayAllowed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	if configured, err := url.Parse(s.lmstudio); err == nil && strings.EqualFold(configured.Host, u.Host) {
		return true
	}
	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) relayFailed(c *gin.Context, target string, err error) {
	s.logger.Warn("lmstudio relay failed", map[string]interface{}{
		"target": target,
		"error":  err.Error(),
	})
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   relayFailure,
		"details": err.Error(),
	})
}

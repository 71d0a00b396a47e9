package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"crypto-signal-bot/internal/analysis"
	"crypto-signal-bot/internal/auth"
	"crypto-signal-bot/internal/scanner"
	"crypto-signal-bot/internal/signal"

	"github.com/gin-gonic/gin"
)

type scanRequest struct {
	Symbols        []string `json:"symbols"`
	Timeframe      string   `json:"timeframe"`
	MaxConcurrency int      `json:"max_concurrency"`
	TopK           int      `json:"top_k"`
}

type loginRequest struct {
	AccessKey string `json:"access_key" binding:"required"`
}

// rankedEntry mirrors scanner.RankedEntry with the display highlight
// attached. Highlight marks entries at or above the configured minimum
// score; it never changes the ranking or the signal.
type rankedEntry struct {
	Symbol    string             `json:"symbol"`
	Score     float64            `json:"score"`
	Signal    signal.SignalState `json:"signal"`
	Highlight bool               `json:"highlight"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"ws_clients": s.hub.ClientCount(),
		"time":       time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	if s.authManager == nil {
		errorResponse(c, http.StatusNotFound, "authentication is disabled")
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "access_key is required")
		return
	}

	token, claims, err := s.authManager.Login(req.AccessKey)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidAccessKey) {
			errorResponse(c, http.StatusUnauthorized, "invalid access key")
			return
		}
		s.logger.Error().Err(err).Msg("login failed")
		errorResponse(c, http.StatusInternalServerError, "login failed")
		return
	}

	successResponse(c, gin.H{
		"token":      token,
		"client_id":  claims.ClientID,
		"expires_at": claims.ExpiresAt.Time.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStartScan(c *gin.Context) {
	// An empty body starts a scan over the configured defaults.
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		errorResponse(c, http.StatusBadRequest, "invalid scan request: "+err.Error())
		return
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		symbols = s.scanDefaults.Symbols
	}

	tfName := req.Timeframe
	if tfName == "" {
		tfName = s.scoring.DefaultTimeframe
	}
	tf, err := analysis.ParseTimeframe(tfName)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	opts := scanner.ScanOptions{
		Symbols:        symbols,
		Timeframe:      tf,
		MaxConcurrency: req.MaxConcurrency,
		TopK:           req.TopK,
	}
	if opts.MaxConcurrency == 0 {
		opts.MaxConcurrency = s.scanDefaults.MaxConcurrency
	}
	if opts.TopK == 0 {
		opts.TopK = s.scanDefaults.TopK
	}

	requester := auth.ClientID(c, "default")

	// The scan outlives the HTTP request, so it runs on its own context.
	handle, err := s.scanner.Scan(context.Background(), requester, opts)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":   true,
		"scan_id":   handle.ID(),
		"requester": handle.Requester(),
		"total":     len(opts.Symbols),
	})
}

func (s *Server) handleScanProgress(c *gin.Context) {
	handle, ok := s.scanner.HandleByID(c.Param("id"))
	if !ok {
		errorResponse(c, http.StatusNotFound, "scan not found")
		return
	}

	progress := handle.Progress()
	done := false
	select {
	case <-handle.Done():
		done = true
	default:
	}

	successResponse(c, gin.H{
		"scan_id":   handle.ID(),
		"completed": progress.Completed,
		"total":     progress.Total,
		"done":      done,
	})
}

func (s *Server) handleScanResult(c *gin.Context) {
	handle, ok := s.scanner.HandleByID(c.Param("id"))
	if !ok {
		errorResponse(c, http.StatusNotFound, "scan not found")
		return
	}

	result := handle.Result()
	entries := make([]rankedEntry, len(result.Entries))
	for i, e := range result.Entries {
		entries[i] = rankedEntry{
			Symbol:    e.Symbol,
			Score:     e.Score,
			Signal:    e.Signal,
			Highlight: e.Score >= float64(s.scoring.MinSignalScore),
		}
	}

	successResponse(c, gin.H{
		"scan_id":    result.ScanID,
		"requester":  result.Requester,
		"start_time": result.StartTime,
		"end_time":   result.EndTime,
		"total":      result.Total,
		"completed":  result.Completed,
		"scored":     result.Scored,
		"failed":     result.Failed,
		"cancelled":  result.Cancelled,
		"outcome":    result.Outcome,
		"entries":    entries,
	})
}

func (s *Server) handleCancelScan(c *gin.Context) {
	handle, ok := s.scanner.HandleByID(c.Param("id"))
	if !ok {
		errorResponse(c, http.StatusNotFound, "scan not found")
		return
	}

	handle.Cancel()
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"scan_id": handle.ID(),
		"status":  "cancelling",
	})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	if symbol == "" {
		errorResponse(c, http.StatusBadRequest, "symbol is required")
		return
	}

	tfName := c.DefaultQuery("timeframe", s.scoring.DefaultTimeframe)
	tf, err := analysis.ParseTimeframe(tfName)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.evaluator.Evaluate(c.Request.Context(), symbol, tf)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("analyze failed")
		errorResponse(c, http.StatusInternalServerError, "analysis failed")
		return
	}
	if report.Failed() {
		errorResponse(c, http.StatusBadGateway, report.Error)
		return
	}

	highlight := false
	if report.Score != nil {
		highlight = report.Score.Opportunity >= float64(s.scoring.MinSignalScore)
	}

	successResponse(c, gin.H{
		"symbol":     report.Symbol,
		"timeframe":  tf,
		"price":      report.Price,
		"score":      report.Score,
		"decision":   report.Decision,
		"indicators": report.Indicators,
		"highlight":  highlight,
	})
}

func (s *Server) handleRecommendations(c *gin.Context) {
	recs, err := s.recs.LoadAll(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("loading recommendations failed")
		errorResponse(c, http.StatusInternalServerError, "failed to load recommendations")
		return
	}
	successResponse(c, gin.H{
		"count":           len(recs),
		"recommendations": recs,
	})
}

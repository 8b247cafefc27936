// Package server exposes analyses, explorations and history over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"MarketScout/internal/agent"
	"MarketScout/internal/explorer"
	"MarketScout/internal/model"
	"MarketScout/internal/recorder"
)

// Explorer runs scenario explorations.
type Explorer interface {
	Explore(ctx context.Context, req explorer.Request) (*model.Exploration, error)
}

// Config describes the server dependencies. Recorder, Metrics, Ready and
// OnExplore are optional.
type Config struct {
	Addr      string
	Analyzer  agent.Analyzer
	Explorer  Explorer
	Recorder  recorder.Recorder
	Metrics   http.Handler
	Ready     func() bool
	OnExplore func(picks int)
	// RequestTimeout bounds analyze and explore handlers.
	RequestTimeout time.Duration
}

// Server is the MarketScout HTTP API.
type Server struct {
	addr   string
	router *gin.Engine
	cfg    Config
	http   *http.Server
}

// New builds the router.
func New(cfg Config) (*Server, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("http server requires an analyzer")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Recorder == nil {
		cfg.Recorder = recorder.NewNoopRecorder()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{addr: cfg.Addr, router: router, cfg: cfg}
	router.GET("/health", s.handleHealth)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}
	api := router.Group("/api")
	api.GET("/analyze/:symbol", s.handleAnalyze)
	api.GET("/history/:symbol", s.handleHistory)
	if cfg.Explorer != nil {
		api.POST("/explore", s.handleExplore)
	}
	return s, nil
}

// Handler returns the underlying router.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("http server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("http server shutting down")
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	ready := true
	if s.cfg.Ready != nil {
		ready = s.cfg.Ready()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "classifier_ready": ready})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	rep := s.cfg.Analyzer.AnalyzeSymbol(ctx, symbol)
	if err := s.cfg.Recorder.RecordAnalysis(recorder.NewAnalysisRecord(symbol, "http", rep)); err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("record analysis")
	}
	c.JSON(analysisStatus(rep), rep)
}

func analysisStatus(rep model.AnalysisReport) int {
	switch {
	case !rep.Failed():
		return http.StatusOK
	case errors.Is(rep.Cause, agent.ErrDataUnavailable):
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) handleExplore(c *gin.Context) {
	var req explorer.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	res, err := s.cfg.Explorer.Explore(ctx, req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, explorer.ErrInvalidRequest) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	picks := make([]string, len(res.AlignedStocks))
	for i, st := range res.AlignedStocks {
		picks[i] = st.Symbol
	}
	if err := s.cfg.Recorder.RecordExploration(&recorder.ExplorationRecord{
		Savings:   req.Savings,
		EquityPct: req.EquityPct,
		Profile:   req.Profile,
		Picks:     picks,
	}); err != nil {
		log.Error().Err(err).Msg("record exploration")
	}
	if s.cfg.OnExplore != nil {
		s.cfg.OnExplore(len(picks))
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleHistory(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 500 {
		limit = 20
	}
	recs, err := s.cfg.Recorder.Recent(symbol, limit)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("load history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if recs == nil {
		recs = []recorder.AnalysisRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "records": recs})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("http request")
	}
}

// Package server exposes the admission engine, risk scorer and audit trail
// over HTTP. It is plumbing only: every invariant lives in the engine.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rustyeddy/tradegate/broker"
	"github.com/rustyeddy/tradegate/config"
	"github.com/rustyeddy/tradegate/journal"
	"github.com/rustyeddy/tradegate/portfolio"
	"github.com/rustyeddy/tradegate/risk"
)

type Server struct {
	R      *gin.Engine
	engine *portfolio.Engine
	scorer *risk.Scorer
	broker broker.Broker
	jrnl   journal.Journal
	cfg    *config.Config
	log    *zap.Logger
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// New wires the router, middleware and routes.
func New(engine *portfolio.Engine, scorer *risk.Scorer, brk broker.Broker, jrnl journal.Journal, cfg *config.Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	g := gin.New()

	g.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	})
	g.Use(gin.Recovery())

	s := &Server{
		R:      g,
		engine: engine,
		scorer: scorer,
		broker: brk,
		jrnl:   jrnl,
		cfg:    cfg,
		log:    log,
	}

	g.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	api := g.Group("/api")
	api.GET("/portfolio", s.getPortfolio)
	api.GET("/portfolio/stats", s.getStats)
	api.GET("/portfolio/limits", s.getLimits)
	api.POST("/portfolio/reset", s.resetStats)
	api.GET("/portfolio/audit", s.getAudit)
	api.POST("/trades/buy", s.postBuy)
	api.POST("/trades/sell", s.postSell)
	api.POST("/risk/assess", s.postAssess)
	api.GET("/risk/metrics", s.getMetrics)

	g.POST("/signals", s.postSignal)

	return s
}

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, apiError{Code: "bad_request", Message: msg})
}

func (s *Server) internalError(c *gin.Context, where string, err error) {
	s.log.Error("internal_error", zap.String("where", where), zap.Error(err))
	c.JSON(http.StatusInternalServerError, apiError{Code: "internal_server_error", Message: "internal server error"})
}

// Package server exposes extraction, prediction and retraining over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verifactura/invoice-extractor/internal/common"
	"github.com/verifactura/invoice-extractor/internal/extraction"
	"github.com/verifactura/invoice-extractor/internal/predict"
	"github.com/verifactura/invoice-extractor/internal/train"
)

// Extractor is the extraction surface the handlers depend on.
type Extractor interface {
	ExtractFromText(ctx context.Context, text string, opts extraction.Options) (*extraction.Result, error)
	ExtractFromFile(ctx context.Context, filename string, data []byte, contentType string, opts extraction.Options) (*extraction.Result, error)
}

// Predictor classifies feature sets and can swap its model in place.
type Predictor interface {
	Predict(features map[string]any) (*predict.Prediction, error)
	Reload() error
}

// Trainer runs a retraining pass.
type Trainer interface {
	Retrain(ctx context.Context, datasetPath string) (*train.Result, error)
}

// Server wires the HTTP routes to the domain services.
type Server struct {
	extractor Extractor
	predictor Predictor
	trainer   Trainer
	logger    *slog.Logger
	engine    *gin.Engine
}

func New(extractor Extractor, predictor Predictor, trainer Trainer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		extractor: extractor,
		predictor: predictor,
		trainer:   trainer,
		logger:    logger,
		engine:    engine,
	}
	engine.Use(s.requestLog())

	engine.GET("/healthz", s.handleHealth)
	engine.POST("/extract", s.handleExtract)
	engine.POST("/predictions", s.handlePredict)
	engine.POST("/predictions/retrain", s.handleRetrain)
	return s
}

// Handler returns the router for use with an http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http.request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps application error kinds to HTTP statuses. Foreign errors
// surface as a plain internal error so internals never leak to callers.
func (s *Server) writeError(c *gin.Context, err error) {
	kind := common.KindOf(err)
	status := common.HTTPStatus(kind)

	message := "internal error"
	var appErr *common.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("http.request_failed", "kind", string(kind), "error", err)
	}
	c.JSON(status, gin.H{"error": gin.H{"kind": string(kind), "message": message}})
}

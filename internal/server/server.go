// Package server exposes the translation service over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/valpere/linguabridge/internal"
	"github.com/valpere/linguabridge/internal/language"
	"github.com/valpere/linguabridge/internal/service"
)

const (
	TranslatePath = "/api/translate"
	LanguagesPath = "/api/languages"
	HealthPath    = "/healthz"

	msgInvalidBody = "Invalid request body"
	msgInternal    = "Internal server error"

	shutdownTimeout = 10 * time.Second
)

// Translator is the part of the service the transport needs.
type Translator interface {
	Translate(ctx context.Context, req internal.TranslationRequest) (*internal.TranslationResult, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	engine *gin.Engine
	svc    Translator
	logger *slog.Logger
}

// New builds the router. gin's mode is left to the caller.
func New(svc Translator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine: gin.New(),
		svc:    svc,
		logger: logger,
	}

	s.engine.Use(gin.Recovery(), requestID(), accessLog(logger))
	s.engine.POST(TranslatePath, s.handleTranslate)
	s.engine.GET(LanguagesPath, s.handleLanguages)
	s.engine.GET(HealthPath, s.handleHealth)
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "Not found"})
	})

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleTranslate(c *gin.Context) {
	var req internal.TranslationRequest
	// An empty body is a request with every field missing.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgInvalidBody})
		return
	}

	result, err := s.svc.Translate(c.Request.Context(), req)
	if err != nil {
		c.JSON(StatusFor(err), errorResponse{Error: PublicMessage(err)})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": language.Entries()})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// StatusFor maps a service error to an HTTP status.
func StatusFor(err error) int {
	switch service.KindOf(err) {
	case service.KindMissingParameters, service.KindTextTooLong:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to send to callers. Errors outside
// the service taxonomy get a generic message.
func PublicMessage(err error) string {
	var se *service.Error
	if errors.As(err, &se) {
		return se.Message
	}
	return msgInternal
}

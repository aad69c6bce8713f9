// Package server exposes the demo's JSON routes over gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sarahdemo/auth"
	"sarahdemo/board"
	"sarahdemo/config"
	"sarahdemo/dispatch"
	"sarahdemo/persona"
	"sarahdemo/speech"
)

const shutdownTimeout = 10 * time.Second

// BoardFactory builds the adapters a request works against.
type BoardFactory interface {
	// Monday returns an adapter authenticated with token, or with the
	// configured API key when token is empty.
	Monday(token string) board.Adapter
	Trello(scope board.ClearScope) board.Adapter
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type OAuth interface {
	AuthorizeURL() string
	Exchange(ctx context.Context, code string) (string, error)
	DemoURL(token string) string
}

type configBoards struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewBoardFactory returns a factory for the configured Monday and Trello boards.
func NewBoardFactory(cfg *config.Config, logger *zap.Logger) BoardFactory {
	return configBoards{cfg: cfg, logger: logger}
}

func (b configBoards) Monday(token string) board.Adapter {
	return board.NewMonday(b.cfg.Monday, b.cfg.Server.HTTPTimeout, b.logger, board.WithToken(token))
}

func (b configBoards) Trello(scope board.ClearScope) board.Adapter {
	return board.NewTrello(b.cfg.Trello, b.cfg.Server.HTTPTimeout, b.logger, board.WithScope(scope))
}

type Server struct {
	cfg        *config.Config
	logger     *zap.Logger
	dispatcher *dispatch.Dispatcher
	personas   *persona.Catalog
	boards     BoardFactory
	speech     Synthesizer
	oauth      OAuth
	router     *gin.Engine
}

type Option func(*Server)

func WithBoards(f BoardFactory) Option {
	return func(s *Server) { s.boards = f }
}

func WithSpeech(sy Synthesizer) Option {
	return func(s *Server) { s.speech = sy }
}

func WithOAuth(o OAuth) Option {
	return func(s *Server) { s.oauth = o }
}

func New(cfg *config.Config, dispatcher *dispatch.Dispatcher, personas *persona.Catalog, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		logger:     logger,
		dispatcher: dispatcher,
		personas:   personas,
	}
	for _, opt := range opts {
		opt(s)
	}

	timeout := cfg.Server.HTTPTimeout.Duration
	if s.boards == nil {
		s.boards = NewBoardFactory(cfg, logger)
	}
	if s.speech == nil {
		s.speech = speech.NewElevenLabs(cfg.Speech, timeout, logger)
	}
	if s.oauth == nil {
		s.oauth = auth.NewMondayOAuth(cfg.Monday, cfg.Server.BaseURL, timeout, logger)
	}

	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.GET("/healthz", s.health)
	r.POST("/board-items", s.mondayItem)

	api := r.Group("/api")
	api.POST("/chat", s.mondayWorkflow)
	api.POST("/trello-chat", s.trelloChat)
	api.POST("/sarah-call", s.sarahCall)
	api.POST("/tts", s.tts)
	api.GET("/auth/monday", s.authMonday)
	api.GET("/auth/callback", s.authCallback)
	api.GET("/board-items", s.mondayItems)
	api.GET("/trello-items", s.trelloItems)

	return r
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down and waits for detached
// board work to finish.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)

	s.dispatcher.Wait()
	s.logger.Info("detached board work drained")
	return err
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

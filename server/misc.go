package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sarahdemo/auth"
	"sarahdemo/board"
	"sarahdemo/speech"
)

type ttsRequest struct {
	Text string `json:"text"`
}

func (s *Server) tts(c *gin.Context) {
	var req ttsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	audio, err := s.speech.Synthesize(c.Request.Context(), req.Text)
	switch {
	case errors.Is(err, speech.ErrNoText):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No text provided"})
	case errors.Is(err, speech.ErrNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ElevenLabs API key not configured"})
	case err != nil:
		s.requestLog(c).Error("speech synthesis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "TTS generation failed"})
	default:
		c.Data(http.StatusOK, speech.ContentType, audio)
	}
}

func (s *Server) authMonday(c *gin.Context) {
	c.Redirect(http.StatusFound, s.oauth.AuthorizeURL())
}

func (s *Server) authCallback(c *gin.Context) {
	token, err := s.oauth.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		if errors.Is(err, auth.ErrNoCode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No code provided"})
			return
		}
		var exErr *auth.ExchangeError
		if errors.As(err, &exErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to get token", "details": exErr.Details})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to get token", "details": err.Error()})
		return
	}
	c.Redirect(http.StatusFound, s.oauth.DemoURL(token))
}

func (s *Server) mondayItems(c *gin.Context) {
	s.listItems(c, s.boards.Monday(c.Query("token")))
}

func (s *Server) trelloItems(c *gin.Context) {
	s.listItems(c, s.boards.Trello(board.ScopeList))
}

// listItems never fails: the page polls it and shows an empty board instead.
func (s *Server) listItems(c *gin.Context, adapter board.Adapter) {
	items, err := adapter.ListItems(c.Request.Context())
	if err != nil {
		s.requestLog(c).Warn("failed to list board items", zap.String("board", adapter.Name()), zap.Error(err))
		items = nil
	}
	if items == nil {
		items = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

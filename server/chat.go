package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sarahdemo/board"
	"sarahdemo/dispatch"
	"sarahdemo/model"
	"sarahdemo/persona"
)

type chatRequest struct {
	Message      *string              `json:"message"`
	History      []model.HistoryEntry `json:"history"`
	Token        string               `json:"token"`
	IsNewSession bool                 `json:"isNewSession"`
}

type workflowResponse struct {
	Reply     string               `json:"reply"`
	BoardName string               `json:"boardName,omitempty"`
	BoardID   string               `json:"boardId,omitempty"`
	Items     []persona.StatusItem `json:"items,omitempty"`
}

type itemResponse struct {
	Reply string               `json:"reply"`
	Items []persona.StatusItem `json:"items,omitempty"`
}

type trelloChatResponse struct {
	Reply     string         `json:"reply"`
	BoardName string         `json:"boardName,omitempty"`
	Cards     []persona.Card `json:"cards,omitempty"`
}

// callResponse always carries every field; the call page checks for null.
type callResponse struct {
	Reply   string            `json:"reply"`
	Action  *string           `json:"action"`
	Cards   []persona.Card    `json:"cards"`
	Feature *dispatch.Feature `json:"feature"`
	Pricing *dispatch.Pricing `json:"pricing"`
}

// turnRoute describes how one chat route runs its persona. The board
// adapter follows the persona's board; the route only decides how children
// are created on it.
type turnRoute struct {
	persona string
	policy  dispatch.Policy
	pace    time.Duration
	// scope applies when the persona drives Trello.
	scope board.ClearScope
	// clear wipes the board when the visitor starts a new session.
	clear bool
}

func (s *Server) mondayWorkflow(c *gin.Context) {
	req, ok := s.bindChat(c)
	if !ok {
		return
	}
	res, ok := s.runTurn(c, req, turnRoute{
		persona: persona.MondayWorkflow,
		policy:  dispatch.Detach,
		scope:   board.ScopeList,
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, workflowResponse{
		Reply:     res.Reply,
		BoardName: res.Echo.BoardName,
		BoardID:   res.Echo.BoardID,
		Items:     res.Echo.Items,
	})
}

func (s *Server) mondayItem(c *gin.Context) {
	req, ok := s.bindChat(c)
	if !ok {
		return
	}
	res, ok := s.runTurn(c, req, turnRoute{
		persona: persona.MondayItem,
		policy:  dispatch.Await,
		scope:   board.ScopeList,
		clear:   true,
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, itemResponse{Reply: res.Reply, Items: res.Echo.Items})
}

func (s *Server) trelloChat(c *gin.Context) {
	req, ok := s.bindChat(c)
	if !ok {
		return
	}
	res, ok := s.runTurn(c, req, turnRoute{
		persona: persona.TrelloBoard,
		policy:  dispatch.Await,
		pace:    s.cfg.Trello.ChatPace.Duration,
		scope:   board.ScopeList,
		clear:   true,
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, trelloChatResponse{Reply: res.Reply, BoardName: res.Echo.BoardName, Cards: res.Echo.Cards})
}

func (s *Server) sarahCall(c *gin.Context) {
	req, ok := s.bindChat(c)
	if !ok {
		return
	}
	res, ok := s.runTurn(c, req, turnRoute{
		persona: persona.TrelloCall,
		policy:  dispatch.Await,
		pace:    s.cfg.Trello.CallPace.Duration,
		scope:   board.ScopeBoard,
		clear:   true,
	})
	if !ok {
		return
	}

	resp := callResponse{
		Reply:   res.Reply,
		Cards:   res.Echo.Cards,
		Feature: res.Echo.Feature,
		Pricing: res.Echo.Pricing,
	}
	if res.Echo.Action != "" {
		resp.Action = &res.Echo.Action
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) bindChat(c *gin.Context) (chatRequest, bool) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return req, false
	}
	if req.Message == nil || strings.TrimSpace(*req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No message provided"})
		return req, false
	}
	return req, true
}

// runTurn runs the persona for one request and writes the error response
// itself when the turn fails.
func (s *Server) runTurn(c *gin.Context, req chatRequest, rt turnRoute) (*dispatch.Result, bool) {
	logger := s.requestLog(c).With(zap.String("persona", rt.persona))
	ctx := c.Request.Context()

	p, err := s.personas.Get(rt.persona)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}

	adapter := s.adapterFor(p, req.Token, rt.scope)
	logger = logger.With(zap.String("board", adapter.Name()))

	if rt.clear && req.IsNewSession {
		n, err := adapter.ClearBoard(ctx)
		if err != nil {
			logger.Warn("failed to clear board", zap.Error(err))
		} else {
			logger.Info("cleared board for new session", zap.Int("deleted", n))
		}
	}

	tools, err := s.dispatcher.Toolbox(p, dispatch.Board{Adapter: adapter, Policy: rt.policy, Pace: rt.pace})
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}

	message := dispatch.OpeningMessage(*req.Message, p.StartMessage)
	res, err := s.dispatcher.Run(ctx, dispatch.Turn{
		Messages:     dispatch.AssembleTurn(p.Prompt, req.History, message),
		Tools:        tools,
		DefaultReply: p.DefaultReply,
	})
	if err != nil {
		logger.Error("turn failed", zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}

	logger.Debug("turn complete",
		zap.Int("completions", res.Completions),
		zap.Int("tool_calls", len(res.Calls)),
	)
	return res, true
}

// adapterFor returns the adapter for the board the persona drives. The
// visitor's OAuth token only applies to Monday.
func (s *Server) adapterFor(p *persona.Persona, token string, scope board.ClearScope) board.Adapter {
	if p.Board == persona.BoardMonday {
		return s.boards.Monday(token)
	}
	return s.boards.Trello(scope)
}

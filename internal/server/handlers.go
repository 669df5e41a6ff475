package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"flou/internal/dialogue"
	"flou/internal/session"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: HealthResponse{
			Status:    "ok",
			Model:     s.modelName,
			Timestamp: time.Now().UTC(),
			Uptime:    time.Since(s.startTime).String(),
		},
	})
}

// resolveSession acquires the session's turn lock and then loads its state,
// creating one when the id is empty or unknown. The lock must be taken
// before the load and held through the save: a turn that loads outside the
// lock can snapshot stale state and its save erases the overlapping turn's
// mutations. A client retrying with a stale id gets a fresh session under
// that same id rather than an error.
func (s *Server) resolveSession(c *gin.Context, req ChatRequest) (*session.State, func(), error) {
	if req.SessionID == "" {
		// A freshly generated id is unknown to other requests, so locking
		// after Create is still race-free.
		state, err := s.store.Create(c.Request.Context(), req.UserID)
		if err != nil {
			return nil, nil, err
		}
		return state, s.locker.Lock(state.SessionID), nil
	}

	unlock := s.locker.Lock(req.SessionID)
	state, err := s.store.Load(c.Request.Context(), req.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		return session.New(req.SessionID, req.UserID), unlock, nil
	}
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return state, unlock, nil
}

func (s *Server) handleChatMessage(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	state, unlock, err := s.resolveSession(c, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: "failed to resolve session"})
		return
	}
	defer unlock()

	result := s.orchestrator.HandleTurn(c.Request.Context(), state, dialogue.TurnInput{
		Text:    req.Text,
		Locale:  req.Locale,
		History: historyMessages(req.History),
	})
	if err := s.store.Save(c.Request.Context(), result.Session); err != nil {
		s.logger.Error("failed to save session %s: %v", result.Session.SessionID, err)
		c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: "failed to save session"})
		return
	}

	c.JSON(http.StatusOK, APIResponse{Success: true, Data: ChatResponse{
		SessionID:    result.Session.SessionID,
		Reply:        result.Reply,
		QuickReplies: result.QuickReplies,
		Metadata:     result.Metadata,
		IsCrisis:     result.IsCrisis,
		Session:      result.Session,
	}})
}

func (s *Server) handleChatStream(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	state, unlock, err := s.resolveSession(c, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: "failed to resolve session"})
		return
	}
	defer unlock()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	flusher, canFlush := c.Writer.(http.Flusher)

	// When the client disconnects mid-stream the writes start failing, but
	// the channel must still be drained: the final session_state arrives
	// after the interrupt and carries the turn's partial mutations.
	var finalState *session.State
	writeFailed := false
	for event := range s.orchestrator.HandleTurnStream(c.Request.Context(), state, dialogue.TurnInput{
		Text:    req.Text,
		Locale:  req.Locale,
		History: historyMessages(req.History),
	}) {
		if st, ok := event.Data.(*session.State); ok && event.Type == dialogue.EventSessionState {
			finalState = st
		}
		if writeFailed {
			continue
		}
		payload, err := json.Marshal(event)
		if err != nil {
			s.logger.Error("failed to encode stream event: %v", err)
			continue
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
			writeFailed = true
			continue
		}
		if canFlush {
			flusher.Flush()
		}
	}

	// A cancelled turn still delivers its final session_state, and the
	// request context is already dead by then, so the save runs detached.
	if finalState != nil {
		if err := s.store.Save(context.WithoutCancel(c.Request.Context()), finalState); err != nil {
			s.logger.Error("failed to save session %s after stream: %v", finalState.SessionID, err)
		}
	}
}

func (s *Server) handleCreateSession(c *gin.Context) {
	// user_id is optional and the body may be empty.
	var req CreateSessionRequest
	_ = c.ShouldBindJSON(&req)

	state, err := s.store.Create(c.Request.Context(), req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: "failed to create session"})
		return
	}
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: state})
}

func (s *Server) handleGetSession(c *gin.Context) {
	state, err := s.store.Load(c.Request.Context(), c.Param("id"))
	if errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: "session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: "failed to load session"})
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: state})
}

func (s *Server) handleClearSession(c *gin.Context) {
	state, err := s.store.Clear(c.Request.Context(), c.Param("id"))
	if errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: "session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: "failed to clear session"})
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: state})
}

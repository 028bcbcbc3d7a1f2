package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/podrag-go/internal/history"
	"github.com/raphaelgruber/podrag-go/internal/llm"
	"github.com/raphaelgruber/podrag-go/internal/models"
	"github.com/raphaelgruber/podrag-go/internal/pipeline"
)

// chatRequest is the body of POST /api/chat and of each websocket
// message. A missing sessionId starts a fresh session; a missing model
// uses the configured default.
type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Model     string `json:"model"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) query(req chatRequest) (models.Query, error) {
	if strings.TrimSpace(req.Message) == "" {
		return models.Query{}, errors.New("message is required")
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	if req.Model == "" {
		req.Model = s.defaultModel
	}
	return models.Query{Text: req.Message, SessionID: req.SessionID, ModelID: req.Model}, nil
}

// handleChat streams the answer as plain text chunks. The session id
// is echoed in a header so callers that let the server mint one can
// continue the conversation.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	q, err := s.query(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Session-Id", q.SessionID)

	streamed := false
	_, err = s.pipeline.Answer(r.Context(), q, func(token string) error {
		if !streamed {
			w.WriteHeader(http.StatusOK)
			streamed = true
		}
		if _, werr := w.Write([]byte(token)); werr != nil {
			return werr
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		s.writeChatError(w, q, streamed, err)
		return
	}
	if !streamed {
		w.WriteHeader(http.StatusOK)
	}
}

// writeChatError maps a pipeline failure onto a status code. Once
// tokens have been written the status line is gone; all that remains
// is to stop.
func (s *Server) writeChatError(w http.ResponseWriter, q models.Query, streamed bool, err error) {
	if errors.Is(err, pipeline.ErrStreamInterrupted) {
		s.logger.Debug("chat stream interrupted", "session", q.SessionID)
		return
	}
	s.logger.Error("chat request failed", "session", q.SessionID, "error", err)
	if streamed {
		return
	}
	switch {
	case errors.Is(err, llm.ErrUnsupportedModel):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to answer question"})
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// wsEvent is one frame of the websocket stream.
type wsEvent struct {
	Type      string `json:"type"` // "token", "done", "error"
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// handleChatWS serves chat over a websocket: each client text message
// is a chatRequest, answered by a stream of token events terminated by
// a done event carrying the session id.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket closed", "error", err)
			}
			return
		}

		q, err := s.query(req)
		if err != nil {
			if werr := conn.WriteJSON(wsEvent{Type: "error", Content: err.Error()}); werr != nil {
				return
			}
			continue
		}

		_, err = s.pipeline.Answer(r.Context(), q, func(token string) error {
			return conn.WriteJSON(wsEvent{Type: "token", Content: token})
		})
		if err != nil {
			if errors.Is(err, pipeline.ErrStreamInterrupted) {
				return
			}
			s.logger.Error("websocket chat failed", "session", q.SessionID, "error", err)
			if werr := conn.WriteJSON(wsEvent{Type: "error", Content: "failed to answer question"}); werr != nil {
				return
			}
			continue
		}
		if err := conn.WriteJSON(wsEvent{Type: "done", SessionID: q.SessionID}); err != nil {
			return
		}
	}
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "session id is required"})
		return
	}

	err := s.pipeline.PurgeHistory(r.Context(), sessionID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, history.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
	default:
		s.logger.Error("history delete failed", "session", sessionID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to delete history"})
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.Metrics().Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Package client provides an API client for the podrag server.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/podrag-go/internal/metrics"
)

// ErrSessionNotFound is returned when deleting history for an unknown session.
var ErrSessionNotFound = errors.New("session not found")

// Client talks to a running podrag server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client.
// If baseURL is empty, uses PODRAG_SERVER_URL env var or defaults to localhost:8480.
// Timeout can be configured via PODRAG_CLIENT_TIMEOUT env var (default 10m, generation streams are slow).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("PODRAG_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8480"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeout := 10 * time.Minute
	if t := os.Getenv("PODRAG_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ChatRequest describes one question. SessionID may be empty; the
// server mints one, returned by Chat.
type ChatRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
	Model     string `json:"model,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Chat asks a question and streams answer chunks through onToken.
// It returns the session id serving the conversation and the full
// answer text.
func (c *Client) Chat(ctx context.Context, req ChatRequest, onToken func(token string) error) (string, string, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(reqBody))
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", decodeError(resp)
	}

	session := resp.Header.Get("X-Session-Id")
	var full strings.Builder
	reader := bufio.NewReader(resp.Body)
	buf := make([]byte, 4096)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			full.WriteString(chunk)
			if onToken != nil {
				if terr := onToken(chunk); terr != nil {
					return session, full.String(), terr
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return session, full.String(), fmt.Errorf("read stream: %w", err)
		}
	}
	return session, full.String(), nil
}

// wsEvent mirrors the server's websocket frame.
type wsEvent struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// ChatWS asks a question over the websocket endpoint. Behavior matches
// Chat; the websocket variant keeps one connection per conversation.
func (c *Client) ChatWS(ctx context.Context, req ChatRequest, onToken func(token string) error) (string, string, error) {
	wsURL, err := c.websocketURL("/api/chat/ws")
	if err != nil {
		return "", "", err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("dial websocket: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(req); err != nil {
		return "", "", fmt.Errorf("send question: %w", err)
	}

	var full strings.Builder
	for {
		var event wsEvent
		if err := conn.ReadJSON(&event); err != nil {
			return "", full.String(), fmt.Errorf("read stream: %w", err)
		}
		switch event.Type {
		case "token":
			full.WriteString(event.Content)
			if onToken != nil {
				if terr := onToken(event.Content); terr != nil {
					return "", full.String(), terr
				}
			}
		case "done":
			return event.SessionID, full.String(), nil
		case "error":
			return "", full.String(), fmt.Errorf("server error: %s", event.Content)
		default:
			return "", full.String(), fmt.Errorf("unexpected event type %q", event.Type)
		}
	}
}

// DeleteHistory removes a session's conversation history.
func (c *Client) DeleteHistory(ctx context.Context, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/api/history/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrSessionNotFound
	default:
		return decodeError(resp)
	}
}

// Stats fetches the server's pipeline metrics.
func (c *Client) Stats(ctx context.Context) (metrics.Snapshot, error) {
	var snap metrics.Snapshot

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/stats", nil)
	if err != nil {
		return snap, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return snap, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return snap, decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, fmt.Errorf("decode stats: %w", err)
	}
	return snap, nil
}

// Health reports whether the server is reachable and serving.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server unhealthy: %s", resp.Status)
	}
	return nil
}

func (c *Client) websocketURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	return u.String(), nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		return fmt.Errorf("server error: %s - %s", resp.Status, er.Error)
	}
	return fmt.Errorf("server error: %s", resp.Status)
}

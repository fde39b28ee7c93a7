// Package chatclient is the receiving side of the chat server: a Session that
// keeps one channel's message list consistent across a history load and the
// live broadcast stream, and a Stream that owns the WebSocket connection and
// its reconnect policy.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/akinalp/cordlite/models"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chat api: %d %s", e.Status, e.Message)
}

// API is a small HTTP client for the endpoints a Session needs. It remembers
// the token from the last successful Login.
type API struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewAPI returns a client for baseURL, e.g. "http://localhost:3001".
// A nil httpClient uses one with a 15 second timeout.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Token is the bearer token sent with each request.
func (a *API) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// SetToken replaces the bearer token, e.g. after Login.
func (a *API) SetToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

// Login exchanges credentials for a token and keeps it for later calls.
func (a *API) Login(ctx context.Context, email, password string) (*models.User, error) {
	var resp struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	body := models.LoginRequest{Email: email, Password: password}
	if err := a.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	a.SetToken(resp.Token)
	return &resp.User, nil
}

// ListMessages returns a channel's history, oldest first.
func (a *API) ListMessages(ctx context.Context, channelID string) ([]models.Message, error) {
	var resp struct {
		Messages []models.Message `json:"messages"`
	}
	path := "/api/messages?channel_id=" + url.QueryEscape(channelID)
	if err := a.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendMessage posts a message and returns the stored record.
func (a *API) SendMessage(ctx context.Context, channelID, content string) (*models.Message, error) {
	var resp struct {
		Data models.Message `json:"data"`
	}
	body := models.CreateMessageRequest{Content: content, ChannelID: channelID}
	if err := a.do(ctx, http.MethodPost, "/api/messages", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := a.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(res.StatusCode)
		}
		return &APIError{Status: res.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

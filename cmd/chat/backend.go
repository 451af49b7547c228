package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/thread"
)

// apiClient talks to the community HTTP API with one bearer token.
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func newAPIClient(base, token string) *apiClient {
	return &apiClient{base: strings.TrimRight(base, "/"), token: token, http: http.DefaultClient}
}

func (a *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("%s %s: %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// account returns the signed-in profile, or an anonymous author when no
// token is configured.
func (a *apiClient) account(ctx context.Context) (dto.UserResponse, error) {
	if a.token == "" {
		return dto.UserResponse{}, nil
	}
	var resp dto.AccountResponse
	if err := a.do(ctx, http.MethodGet, "/api/account", nil, &resp); err != nil {
		return dto.UserResponse{}, err
	}
	return resp.User, nil
}

// httpBackend is one thread seen through the API.
type httpBackend struct {
	api      *apiClient
	readPath string
	sendPath string
}

func requestBackend(api *apiClient, requestID string) *httpBackend {
	return &httpBackend{
		api:      api,
		readPath: "/api/threads/requests/" + requestID,
		sendPath: "/api/threads/requests/" + requestID + "/messages",
	}
}

func announcementBackend(api *apiClient, announcementID string) *httpBackend {
	return &httpBackend{
		api:      api,
		readPath: "/api/threads/announcements/" + announcementID,
		sendPath: "/api/threads/announcements/" + announcementID + "/messages",
	}
}

// Messages drops the server's greeting; the session adds its own.
func (b *httpBackend) Messages(ctx context.Context) ([]thread.Message, error) {
	var msgs []thread.Message
	if err := b.api.do(ctx, http.MethodGet, b.readPath, nil, &msgs); err != nil {
		return nil, err
	}
	out := msgs[:0]
	for _, m := range msgs {
		if !m.System {
			out = append(out, m)
		}
	}
	return out, nil
}

// MarkSeen is a no-op: the server marks a thread seen when it is read.
func (b *httpBackend) MarkSeen(context.Context, []string) error {
	return nil
}

func (b *httpBackend) Send(ctx context.Context, content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("empty message")
	}
	return b.api.do(ctx, http.MethodPost, b.sendPath, dto.SendMessageRequest{Content: content}, nil)
}

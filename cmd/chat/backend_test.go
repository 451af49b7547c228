package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/thread"
)

func TestHTTPBackendDrivesSession(t *testing.T) {
	var stored []thread.Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/threads/requests/r1":
			if len(stored) == 0 {
				json.NewEncoder(w).Encode([]thread.Message{thread.Greeting("r1", time.Now())})
				return
			}
			json.NewEncoder(w).Encode(stored)
		case r.Method == http.MethodPost && r.URL.Path == "/api/threads/requests/r1/messages":
			var req dto.SendMessageRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			stored = append(stored, thread.Message{ID: "m1", Content: req.Content, UserID: "u1", CreatedAt: time.Now()})
			w.WriteHeader(http.StatusCreated)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	backend := requestBackend(newAPIClient(srv.URL+"/", "tok"), "r1")
	session := thread.NewSession(backend, "u1", &thread.Author{Username: "alice"}, nil)

	msgs, err := session.Open(context.Background())
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = session.Send(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Zero(t, session.PendingCount())
}

func TestHTTPBackendReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(dto.ErrorResponse{Error: true, Message: "Not allowed"})
	}))
	defer srv.Close()

	backend := announcementBackend(newAPIClient(srv.URL, ""), "a1")
	err := backend.Send(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403 Not allowed")
}

func TestRealtimeURL(t *testing.T) {
	got, err := realtimeURL("https://api.unilak.test/", "request_id", "r1", "tok")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.unilak.test/api/realtime?access_token=tok&filter=request_id%3Deq.r1&table=announcement_responses", got)

	got, err = realtimeURL("http://localhost:8080", "announcement_id", "a1", "")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/api/realtime?filter=announcement_id%3Deq.a1&table=announcement_responses", got)
}

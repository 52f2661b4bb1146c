package realtime

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lalith-99/pulsechat/internal/apperr"
	"github.com/stretchr/testify/require"
)

func TestCentrifugoClient_Publish(t *testing.T) {
	req := require.New(t)

	var (
		gotAuth string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewCentrifugoClient(srv.URL, "secret-key", time.Second)
	err := client.Publish(context.Background(), UserChannel("u2"), Event{
		Type: EventMessageReceived,
		Data: map[string]string{"content": "hi"},
	})
	req.NoError(err)

	req.Equal("apikey secret-key", gotAuth)
	req.Equal("publish", gotBody["method"])
	params := gotBody["params"].(map[string]any)
	req.Equal("user-u2", params["channel"])
	data := params["data"].(map[string]any)
	req.Equal(EventMessageReceived, data["type"])
	req.Equal("hi", data["data"].(map[string]any)["content"])
}

func TestCentrifugoClient_Non200IsUnavailable(t *testing.T) {
	req := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewCentrifugoClient(srv.URL, "wrong", time.Second)
	err := client.Publish(context.Background(), BroadcastChannel, Event{Type: EventUserStatusChanged})
	req.ErrorIs(err, apperr.ErrPublishUnavailable)
	req.Contains(err.Error(), "401")
}

func TestCentrifugoClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewCentrifugoClient(url, "k", 200*time.Millisecond)
	err := client.Publish(context.Background(), BroadcastChannel, Event{Type: EventUserStatusChanged})
	require.ErrorIs(t, err, apperr.ErrPublishUnavailable)
}

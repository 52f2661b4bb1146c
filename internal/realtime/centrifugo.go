package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lalith-99/pulsechat/internal/apperr"
)

// CentrifugoClient publishes through Centrifugo's server HTTP API.
//
//	POST <apiURL>
//	Authorization: apikey <key>
//	{"method": "publish", "params": {"channel": ..., "data": ...}}
//
// Anything but 200 is a failed publish.
type CentrifugoClient struct {
	apiURL string
	apiKey string
	http   *http.Client
}

func NewCentrifugoClient(apiURL, apiKey string, timeout time.Duration) *CentrifugoClient {
	return &CentrifugoClient{
		apiURL: apiURL,
		apiKey: apiKey,
		http:   &http.Client{Timeout: timeout},
	}
}

type centrifugoCommand struct {
	Method string           `json:"method"`
	Params centrifugoParams `json:"params"`
}

type centrifugoParams struct {
	Channel string `json:"channel"`
	Data    Event  `json:"data"`
}

func (c *CentrifugoClient) Publish(ctx context.Context, channel string, event Event) error {
	body, err := json.Marshal(centrifugoCommand{
		Method: "publish",
		Params: centrifugoParams{Channel: channel, Data: event},
	})
	if err != nil {
		return fmt.Errorf("%w: encode publish: %v", apperr.ErrPublishUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", apperr.ErrPublishUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "apikey "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrPublishUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: centrifugo returned %d: %s", apperr.ErrPublishUnavailable, resp.StatusCode, snippet)
	}
	// Drain so the connection goes back to the pool.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Package controller implements the fire-and-forget HTTP client used
// to power a backend on through an external control plane.
package controller

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nickheyer/madproxy/pkg/logger"
)

// BackendController wakes a backend server by calling out to an
// external panel. Start never blocks its caller and never returns an
// error to it: the call runs on a detached goroutine and failures are
// logged only, per the wake-up's fire-and-forget contract.
type BackendController struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *logger.Logger
}

// New returns a BackendController. baseURL and apiKey come straight
// from config.yml's panel_link/api_key keys.
func New(baseURL, apiKey string, log *logger.Logger) *BackendController {
	return &BackendController{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 5 * time.Second},
		log:     log,
	}
}

// Start fires a wake request for serverID on a detached goroutine and
// returns immediately. The client reply to the player is sent by the
// caller regardless of how this call turns out.
func (c *BackendController) Start(serverID string) {
	if c.baseURL == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := c.start(ctx, serverID); err != nil {
			c.log.Warn("backend wake-up for %s failed: %v", serverID, err)
		}
	}()
}

func (c *BackendController) start(ctx context.Context, serverID string) error {
	url := fmt.Sprintf("%s/api/servers/%s/start", c.baseURL, serverID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("build wake request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("wake request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("wake request returned status %s", resp.Status)
	}
	return nil
}

// Package spotify starts alarm playback on the user's Spotify Connect
// device through the Web API.
package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/ewilliams-labs/reveille/internal/core/domain"
	"github.com/ewilliams-labs/reveille/internal/core/ports"
)

const (
	defaultBaseURL = "https://api.spotify.com"
	tokenURL       = "https://accounts.spotify.com/api/token"
)

// Client is an HTTP client for the Spotify player adapter.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	deviceID    string
	maxRetries  int
	baseBackoff time.Duration
}

// compile-time interface assertion
var _ ports.Player = (*Client)(nil)

// NewClient constructs a player over an explicit HTTP client and base URL.
func NewClient(httpClient *http.Client, baseURL, deviceID string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	maxRetries, backoff := getRetryConfig()
	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		deviceID:    deviceID,
		maxRetries:  maxRetries,
		baseBackoff: backoff,
	}
}

// NewClientCredentials constructs a player whose HTTP client injects tokens
// from the client-credentials flow.
func NewClientCredentials(clientID, clientSecret, deviceID string) *Client {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	return NewClient(cfg.Client(context.Background()), defaultBaseURL, deviceID)
}

type playRequest struct {
	ContextURI string   `json:"context_uri,omitempty"`
	URIs       []string `json:"uris,omitempty"`
}

// Play sets the playback volume from the alarm and starts the configured
// Spotify URI on the user's active (or configured) device.
func (c *Client) Play(ctx context.Context, alarm domain.Alarm) error {
	uri := alarm.Music.Resource
	if uri == "" {
		return ports.PlaybackError{Source: alarm.Music.Source, Reason: "spotify uri missing"}
	}
	if !strings.HasPrefix(uri, "spotify:") {
		uri = "spotify:" + uri
	}

	// Volume failures are not fatal; the alarm still has to sound.
	if err := c.setVolume(ctx, alarm.Volume); err != nil {
		log.Printf("WARN spotify player: set volume: %v", err)
	}

	var body playRequest
	if strings.HasPrefix(uri, "spotify:track:") {
		body.URIs = []string{uri}
	} else {
		body.ContextURI = uri
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return ports.PlaybackError{Source: alarm.Music.Source, Reason: err.Error()}
	}

	endpoint := c.baseURL + "/v1/me/player/play"
	if c.deviceID != "" {
		endpoint += "?device_id=" + url.QueryEscape(c.deviceID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return ports.PlaybackError{Source: alarm.Music.Source, Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return ports.PlaybackError{Source: alarm.Music.Source, Reason: err.Error()}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent:
		return nil
	default:
		return ports.PlaybackError{Source: alarm.Music.Source, Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}
}

func (c *Client) setVolume(ctx context.Context, volume float64) error {
	percent := int(math.Round(volume * 100))
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}

	endpoint := fmt.Sprintf("%s/v1/me/player/volume?volume_percent=%d", c.baseURL, percent)
	if c.deviceID != "" {
		endpoint += "&device_id=" + url.QueryEscape(c.deviceID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, nil)
	if err != nil {
		return fmt.Errorf("spotify player: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return fmt.Errorf("spotify player: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("spotify player: status %d", resp.StatusCode)
	}
	return nil
}

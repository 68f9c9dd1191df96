package realtime

import (
	"errors"
	"net/http"
	"net/url"
)

const (
	// DefaultWebSocketURL is the default WebSocket endpoint.
	DefaultWebSocketURL = "wss://api.openai.com/v1/realtime"

	// DefaultHTTPURL is the default HTTP endpoint (for WebRTC session creation).
	DefaultHTTPURL = "https://api.openai.com/v1/realtime"
)

// DialOption configures DialWebSocket and DialWebRTC.
type DialOption func(*dialConfig)

type dialConfig struct {
	apiKey       string
	organization string
	project      string
	model        string
	voice        string
	wsURL        string
	httpURL      string
	httpClient   *http.Client
	iceServers   []string
}

func newDialConfig(opts []DialOption) (*dialConfig, error) {
	cfg := &dialConfig{
		model:      ModelGPT4oRealtimePreview,
		voice:      VoiceAlloy,
		wsURL:      DefaultWebSocketURL,
		httpURL:    DefaultHTTPURL,
		httpClient: http.DefaultClient,
		iceServers: []string{"stun:stun.l.google.com:19302"},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.apiKey == "" {
		return nil, errors.New("realtime: API key is required")
	}
	return cfg, nil
}

// WithAPIKey sets the API key used for authentication.
func WithAPIKey(key string) DialOption {
	return func(c *dialConfig) {
		c.apiKey = key
	}
}

// WithModel sets the model. Default: gpt-4o-realtime-preview.
func WithModel(model string) DialOption {
	return func(c *dialConfig) {
		if model != "" {
			c.model = model
		}
	}
}

// WithVoice sets the voice requested with the WebRTC ephemeral token.
func WithVoice(voice string) DialOption {
	return func(c *dialConfig) {
		if voice != "" {
			c.voice = voice
		}
	}
}

// WithOrganization sets the organization ID for API requests.
func WithOrganization(orgID string) DialOption {
	return func(c *dialConfig) {
		c.organization = orgID
	}
}

// WithProject sets the project ID for API requests.
func WithProject(projectID string) DialOption {
	return func(c *dialConfig) {
		c.project = projectID
	}
}

// WithWebSocketURL sets the WebSocket URL.
func WithWebSocketURL(u string) DialOption {
	return func(c *dialConfig) {
		if u != "" {
			c.wsURL = u
		}
	}
}

// WithHTTPURL sets the HTTP URL for WebRTC session creation.
func WithHTTPURL(u string) DialOption {
	return func(c *dialConfig) {
		if u != "" {
			c.httpURL = u
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) DialOption {
	return func(c *dialConfig) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithICEServers replaces the STUN/TURN servers used by DialWebRTC.
func WithICEServers(urls ...string) DialOption {
	return func(c *dialConfig) {
		c.iceServers = urls
	}
}

func (c *dialConfig) header(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	if c.organization != "" {
		h.Set("OpenAI-Organization", c.organization)
	}
	if c.project != "" {
		h.Set("OpenAI-Project", c.project)
	}
	return h
}

// endpoint appends the model query parameter to base.
func (c *dialConfig) endpoint(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("model", c.model)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

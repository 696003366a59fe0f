package relay

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// TokenSource yields the current bearer token, or "" when unauthenticated.
type TokenSource func() string

// ClientConfig configures the shared outbound HTTP client.
type ClientConfig struct {
	BaseURL string
	Token   TokenSource
	// OnUnauthorized is invoked when a response comes back 401. Session
	// invalidation itself is the caller's concern.
	OnUnauthorized func()
	Logger         zerolog.Logger
}

// NewClient builds a resty client that attaches the bearer token when one is
// present, logs method/URL/status for every exchange, and intercepts 401
// responses as a hook point.
func NewClient(cfg ClientConfig) *resty.Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json")

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if cfg.Token != nil {
			if tok := cfg.Token(); tok != "" {
				req.SetAuthToken(tok)
			}
		}
		return nil
	})

	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		cfg.Logger.Info().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Int("status", resp.StatusCode()).
			Dur("latency", resp.Time()).
			Msg("outbound request")
		if resp.StatusCode() == http.StatusUnauthorized && cfg.OnUnauthorized != nil {
			cfg.OnUnauthorized()
		}
		return nil
	})

	return client
}

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }

// Package relay wraps the platform's outbound integrations: the SMS gateway,
// the image upload endpoint, and a shared authenticated HTTP client. Relay
// calls are fire-and-forget with respect to entity persistence: a provider
// failure is reported in the result envelope, never raised as an error, so a
// failed dispatch can be recorded as a delivery attempt and retried later.
package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// SMSResult is the uniform envelope returned to callers. Callers must branch
// on Success rather than rely on errors.
type SMSResult struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message,omitempty"`
	Provider json.RawMessage `json:"provider,omitempty"`
}

// SMSClient relays text messages to the SMS gateway.
type SMSClient struct {
	http     *resty.Client
	senderID string
	logger   zerolog.Logger
}

// NewSMSClient creates an SMS relay against the given gateway URL.
func NewSMSClient(baseURL, apiKey, senderID string, logger zerolog.Logger) *SMSClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(apiKey)

	return &SMSClient{http: client, senderID: senderID, logger: logger}
}

type smsRequest struct {
	To       string `json:"to"`
	Message  string `json:"message"`
	SenderID string `json:"sender_id,omitempty"`
}

// Send relays one message. It never returns an error: transport and provider
// failures both come back as {success:false, message}.
func (c *SMSClient) Send(ctx context.Context, to, message string) *SMSResult {
	if to == "" || message == "" {
		return &SMSResult{Success: false, Message: "to and message are required"}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(smsRequest{To: to, Message: message, SenderID: c.senderID}).
		Post("/messages")

	if err != nil {
		c.logger.Error().Err(err).Str("to", to).Msg("sms relay transport failure")
		return &SMSResult{Success: false, Message: err.Error()}
	}

	if resp.IsError() {
		detail := string(resp.Body())
		if detail == "" {
			detail = resp.Status()
		}
		c.logger.Error().
			Int("status", resp.StatusCode()).
			Str("to", to).
			Msg("sms relay provider failure")
		return &SMSResult{Success: false, Message: detail}
	}

	c.logger.Info().Str("to", to).Int("status", resp.StatusCode()).Msg("sms relayed")
	return &SMSResult{Success: true, Provider: json.RawMessage(resp.Body())}
}

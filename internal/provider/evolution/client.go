// Package evolution talks to the Evolution API, the WhatsApp provider used for
// outbound messages.
package evolution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	errx "github.com/synapse-ia/salesagent/internal/core/error"
	logx "github.com/synapse-ia/salesagent/pkg/logger"
)

// ProviderName is reported by the status endpoint.
const ProviderName = "Evolution API"

const defaultSendTimeout = 10 * time.Second

type Config struct {
	APIURL       string        `envconfig:"EVOLUTION_API_URL"`
	APIToken     string        `envconfig:"EVOLUTION_API_TOKEN"`
	InstanceName string        `envconfig:"EVOLUTION_INSTANCE_NAME"`
	SendTimeout  time.Duration `envconfig:"EVOLUTION_SEND_TIMEOUT" default:"10s"`
}

// Configured reports whether every value needed to send is present.
func (c Config) Configured() bool {
	return c.APIURL != "" && c.APIToken != "" && c.InstanceName != ""
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// Client sends text messages through one Evolution instance.
type Client struct {
	cfg  Config
	http *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	c := &Client{
		cfg:  cfg,
		http: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// Instance returns the configured instance name.
func (c *Client) Instance() string {
	return c.cfg.InstanceName
}

// SendText posts text to number. Any 2xx response is success; there are no retries.
func (c *Client) SendText(ctx context.Context, number, text string) error {
	if !c.Configured() {
		return errx.New(nil, http.StatusServiceUnavailable, errx.ProviderConfigMessage)
	}

	recipient := DigitsOnly(number)
	if recipient == "" {
		return errx.New(fmt.Errorf("recipient %q has no digits", number), http.StatusBadRequest, errx.ProviderErrorMessage)
	}

	body, err := json.Marshal(sendTextRequest{Number: recipient, Text: text})
	if err != nil {
		return fmt.Errorf("encode send request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.SendTimeout)
	defer cancel()

	endpoint := c.cfg.APIURL + "/message/sendText/" + url.PathEscape(c.cfg.InstanceName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.cfg.APIToken)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return errx.WrapProvider(err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errx.ProviderStatus(resp.StatusCode, respBody)
	}

	logx.Debug().
		Str("instance", c.cfg.InstanceName).
		Str("number", recipient).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("WhatsApp message sent")
	return nil
}

// DigitsOnly strips everything but ASCII digits from a phone number.
func DigitsOnly(number string) string {
	var b strings.Builder
	b.Grow(len(number))
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

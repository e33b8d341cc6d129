package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/teamdraw/internal/domain/model"
	"github.com/okian/teamdraw/pkg/logger"
)

const (
	// DefaultEndpoint is the public EmailJS API host.
	DefaultEndpoint = "https://api.emailjs.com"
	// DefaultMessageParam is the template variable that receives the summary.
	DefaultMessageParam = "message"

	sendPath       = "/api/v1.0/email/send"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

// Credentials identify the EmailJS service, template and account.
type Credentials struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string // optional access token
}

// Complete reports whether the required identifiers are set.
func (c Credentials) Complete() bool {
	return c.ServiceID != "" && c.TemplateID != "" && c.PublicKey != ""
}

// EmailOption applies a configuration option to the EmailJS client.
type EmailOption func(*EmailJS)

// WithEndpoint overrides the API host.
func WithEndpoint(endpoint string) EmailOption {
	return func(e *EmailJS) {
		if endpoint != "" {
			e.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// WithMessageParam sets the template variable that receives the summary.
func WithMessageParam(name string) EmailOption {
	return func(e *EmailJS) {
		if name != "" {
			e.messageParam = name
		}
	}
}

// WithHTTPClient sets the HTTP client to send through. The client is copied,
// never modified.
func WithHTTPClient(c *http.Client) EmailOption {
	return func(e *EmailJS) {
		if c != nil {
			e.client = c
		}
	}
}

// WithTimeout sets the per-request timeout. It overrides the timeout of a
// client passed with WithHTTPClient, in any option order.
func WithTimeout(d time.Duration) EmailOption {
	return func(e *EmailJS) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) EmailOption {
	return func(e *EmailJS) {
		if l != nil {
			e.logger = l
		}
	}
}

// EmailJS sends summaries through the EmailJS REST API.
type EmailJS struct {
	creds        Credentials
	endpoint     string
	messageParam string
	client       *http.Client
	timeout      time.Duration
	logger       logger.Logger
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// NewEmailJS returns a client for the given credentials.
func NewEmailJS(creds Credentials, opts ...EmailOption) (*EmailJS, error) {
	if !creds.Complete() {
		return nil, ErrMissingConfig
	}
	e := &EmailJS{
		creds:        creds,
		endpoint:     DefaultEndpoint,
		messageParam: DefaultMessageParam,
	}
	for _, opt := range opts {
		opt(e)
	}

	client := http.Client{Timeout: defaultTimeout}
	if e.client != nil {
		client = *e.client
	}
	if e.timeout > 0 {
		client.Timeout = e.timeout
	}
	e.client = &client
	if e.logger == nil {
		e.logger = logger.Named("emailjs")
	}
	return e, nil
}

// New returns an EmailJS notifier when creds are complete and Disabled
// otherwise.
func New(creds Credentials, opts ...EmailOption) Notifier {
	e, err := NewEmailJS(creds, opts...)
	if err != nil {
		return Disabled{}
	}
	return e
}

// Send posts the summary. Any non-2xx answer is ErrRejected.
func (e *EmailJS) Send(ctx context.Context, n model.Notification) error {
	body, err := json.Marshal(sendRequest{
		ServiceID:      e.creds.ServiceID,
		TemplateID:     e.creds.TemplateID,
		UserID:         e.creds.PublicKey,
		AccessToken:    e.creds.PrivateKey,
		TemplateParams: map[string]string{e.messageParam: n.Message},
	})
	if err != nil {
		return fmt.Errorf("encode emailjs request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+sendPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	e.logger.Debug(ctx, "summary emailed",
		logger.String("notification_id", n.ID),
		logger.Int("status", resp.StatusCode),
	)
	return nil
}

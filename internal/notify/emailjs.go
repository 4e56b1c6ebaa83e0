package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const DefaultEmailJSURL = "https://api.emailjs.com"

// EmailJSConfig identifies the account, service and template to send with.
type EmailJSConfig struct {
	BaseURL     string
	ServiceID   string
	TemplateID  string
	PublicKey   string // "user_id" in the API
	AccessToken string // private key, optional depending on account settings

	// PerMinute caps outbound sends; 0 means 10.
	PerMinute int
	Timeout   time.Duration
}

func (c EmailJSConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.ServiceID) == "" {
		missing = append(missing, "service id")
	}
	if strings.TrimSpace(c.TemplateID) == "" {
		missing = append(missing, "template id")
	}
	if strings.TrimSpace(c.PublicKey) == "" {
		missing = append(missing, "public key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("emailjs: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// EmailJS sends template emails through the EmailJS REST endpoint.
type EmailJS struct {
	cfg     EmailJSConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewEmailJS(cfg EmailJSConfig, client *http.Client) (*EmailJS, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultEmailJSURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	every := time.Minute / time.Duration(cfg.PerMinute)
	return &EmailJS{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(every), 1),
	}, nil
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// APIError is a non-2xx answer from the email service.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("emailjs: status %d: %s", e.Status, e.Body)
}

func (m *EmailJS) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("emailjs: empty recipient")
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("emailjs: rate limit: %w", err)
	}

	params := map[string]string{
		"to_email": msg.To,
		"subject":  msg.Subject,
	}
	for k, v := range msg.Params {
		params[k] = v
	}
	body, err := json.Marshal(emailJSRequest{
		ServiceID:      m.cfg.ServiceID,
		TemplateID:     m.cfg.TemplateID,
		UserID:         m.cfg.PublicKey,
		AccessToken:    m.cfg.AccessToken,
		TemplateParams: params,
	})
	if err != nil {
		return fmt.Errorf("emailjs: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+"/api/v1.0/email/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("emailjs: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs: send: %w", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return nil
}

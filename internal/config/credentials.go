package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const credFileName = "credentials.json"

// ErrNoCredentials means neither the env var nor the file holds a token.
var ErrNoCredentials = errors.New("no email access token configured")

// Credentials is the private EmailJS access token.
type Credentials struct {
	AccessToken string    `json:"access_token"`
	Source      string    `json:"source"`     // "env" | "file"
	CreatedAt   time.Time `json:"created_at"` // when we saved to file
}

func credFilePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, credFileName), nil
}

func GetCredentials() (*Credentials, error) {
	// 1) env override
	if env := strings.TrimSpace(os.Getenv("SUMMIT_EMAIL_TOKEN")); env != "" {
		return &Credentials{AccessToken: stripBearer(env), Source: "env"}, nil
	}

	// 2) file
	p, err := credFilePath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	c.AccessToken = stripBearer(c.AccessToken)
	if c.AccessToken == "" {
		return nil, ErrNoCredentials
	}
	c.Source = "file"
	return &c, nil
}

func SetCredentials(token string) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return fmt.Errorf("empty token")
	}
	dir, err := Dir()
	if err != nil {
		return err
	}
	// ensure ~/.summit exists with 0700
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	c := Credentials{
		AccessToken: token,
		Source:      "file",
		CreatedAt:   time.Now(),
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	p, _ := credFilePath()
	// write with 0600 (owner-only)
	if err := os.WriteFile(p, b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func DeleteCredentials() error {
	p, err := credFilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// Masked shows only the last four characters of the token.
func (c *Credentials) Masked() string {
	if c == nil || c.AccessToken == "" {
		return ""
	}
	t := c.AccessToken
	if len(t) <= 4 {
		return strings.Repeat("*", len(t))
	}
	return strings.Repeat("*", len(t)-4) + t[len(t)-4:]
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}

// Package botcheck asks an external challenge service whether a submission
// came from a human.
package botcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// Disabled accepts every submission. Used when no secret is configured.
type Disabled struct{}

func (Disabled) Verify(context.Context, string, string) (bool, error) {
	return true, nil
}

// Siteverify speaks the Turnstile/reCAPTCHA siteverify protocol.
type Siteverify struct {
	url    string
	secret string
	client *http.Client
}

func NewSiteverify(endpoint, secret string, timeout time.Duration) *Siteverify {
	return &Siteverify{
		url:    endpoint,
		secret: secret,
		client: &http.Client{Timeout: timeout},
	}
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

func (s *Siteverify) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if token == "" {
		return false, nil
	}

	form := url.Values{}
	form.Set("secret", s.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("botcheck: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("botcheck: unexpected status %d", resp.StatusCode)
	}

	var out siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("botcheck: decode: %w", err)
	}
	return out.Success, nil
}

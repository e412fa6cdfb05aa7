// Package mail delivers two-factor codes through a transactional mail API.
package mail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// Sender delivers a verification code to a recipient address.
type Sender interface {
	SendCode(email, code string) error
}

// APIClient sends verification-code mail through a JSON mail API.
type APIClient struct {
	APIKey     string
	BaseURL    string
	From       string
	HTTPClient *http.Client
}

// NewAPIClient returns a client for the given API key, base URL and from-address.
func NewAPIClient(apiKey, baseURL, from string) *APIClient {
	return &APIClient{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		From:       from,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SendCode mails the verification code to the given address. Does not log the code.
func (c *APIClient) SendCode(email, code string) error {
	if c.APIKey == "" {
		return fmt.Errorf("mail: API key not configured")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("mail: base URL not configured")
	}
	body := map[string]interface{}{
		"from":    c.From,
		"to":      email,
		"subject": "Your verification code",
		"text":    fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code),
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}

package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const smsPortalBaseURL = "https://rest.smsportal.com"

// SMSService sends text messages through the SMSPortal REST API. The
// API issues short-lived bearer tokens against basic-auth client
// credentials; the token is cached and refreshed on expiry.
type SMSService struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
	enabled      bool

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewSMSService creates a new SMS service. Empty credentials yield a
// disabled service that logs instead of sending.
func NewSMSService(clientID, clientSecret string) *SMSService {
	if clientID == "" || clientSecret == "" {
		slog.Info("sms service disabled: SMSPORTAL credentials not configured")
		return &SMSService{enabled: false}
	}
	slog.Info("sms service enabled")
	return &SMSService{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		enabled:      true,
	}
}

// IsEnabled returns whether the SMS service is enabled
func (s *SMSService) IsEnabled() bool {
	return s.enabled
}

// Send delivers one message to one phone number.
func (s *SMSService) Send(ctx context.Context, phone, message string) error {
	if !s.enabled {
		slog.Info("sms skipped (service disabled)", "to", phone)
		return nil
	}
	if phone == "" {
		return fmt.Errorf("no phone number on record")
	}

	token, err := s.authToken(ctx)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"messages": []map[string]string{
			{"content": message, "destination": phone},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, smsPortalBaseURL+"/bulkmessages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms send failed with status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

func (s *SMSService) authToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.tokenExpiry) {
		return s.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, smsPortalBaseURL+"/authentication", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build auth request: %w", err)
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(s.clientID + ":" + s.clientSecret))
	req.Header.Set("Authorization", "Basic "+credentials)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to authenticate with sms portal: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sms portal auth failed with status %d", resp.StatusCode)
	}

	var result struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expiresInMinutes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode sms portal auth response: %w", err)
	}

	s.token = result.Token
	// Refresh a minute early to avoid racing the expiry.
	s.tokenExpiry = time.Now().Add(time.Duration(result.ExpiresIn-1) * time.Minute)
	return s.token, nil
}

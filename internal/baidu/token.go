package baidu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const DefaultTokenURL = "https://aip.baidubce.com/oauth/2.0/token"

// refreshMargin renews the token before the server-side expiry.
const refreshMargin = time.Minute

// APIError is an error payload returned by a Baidu endpoint.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("baidu api error %d: %s", e.Code, e.Message)
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// TokenSource fetches OAuth client_credentials tokens and caches them until
// shortly before expiry. It is safe for concurrent use.
type TokenSource struct {
	APIKey    string
	SecretKey string
	URL       string
	Client    *http.Client

	now func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewTokenSource(apiKey, secretKey string) *TokenSource {
	return &TokenSource{
		APIKey:    apiKey,
		SecretKey: secretKey,
		URL:       DefaultTokenURL,
		Client:    &http.Client{Timeout: 10 * time.Second},
		now:       time.Now,
	}
}

// Token returns a valid access token, fetching a new one if needed.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if s.token != "" && now.Before(s.expires) {
		return s.token, nil
	}

	start := time.Now()
	resp, err := s.fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("baidu token: %w", err)
	}

	s.token = resp.AccessToken
	ttl := time.Duration(resp.ExpiresIn) * time.Second
	if ttl > 2*refreshMargin {
		ttl -= refreshMargin
	}
	s.expires = now.Add(ttl)
	log.Printf("baidu-auth: token refreshed in %v, valid for %v", time.Since(start), ttl)
	return s.token, nil
}

// Invalidate drops the cached token, e.g. after the server rejected it.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.expires = time.Time{}
	s.mu.Unlock()
}

func (s *TokenSource) fetch(ctx context.Context) (*tokenResponse, error) {
	if s.APIKey == "" || s.SecretKey == "" {
		return nil, fmt.Errorf("api key and secret key required")
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {s.APIKey},
		"client_secret": {s.SecretKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := s.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", res.StatusCode, err)
	}
	if tr.Error != "" {
		return nil, &APIError{Code: res.StatusCode, Message: tr.Error + ": " + tr.ErrorDescription}
	}
	if res.StatusCode != http.StatusOK {
		return nil, &APIError{Code: res.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("response carried no access_token")
	}
	return &tr, nil
}

func (s *TokenSource) endpoint() string {
	if s.URL == "" {
		return DefaultTokenURL
	}
	return s.URL
}

func (s *TokenSource) client() *http.Client {
	if s.Client == nil {
		return http.DefaultClient
	}
	return s.Client
}

func (s *TokenSource) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

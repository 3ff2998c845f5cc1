package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domainErrors "pagebuilder-go-server/domain/errors"
)

// Authenticator 用凭据换取 token
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

const defaultAuthTimeout = 10 * time.Second

// HTTPAuthenticator 调用外部认证服务
// POST {email, password} -> {token}
type HTTPAuthenticator struct {
	url    string
	client *http.Client
}

func NewHTTPAuthenticator(url string, client *http.Client) *HTTPAuthenticator {
	if client == nil {
		client = &http.Client{Timeout: defaultAuthTimeout}
	}
	return &HTTPAuthenticator{url: url, client: client}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (a *HTTPAuthenticator) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return "", fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", domainErrors.ErrInvalidCredentials
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", domainErrors.ErrInvalidCredentials, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("%w: empty token", domainErrors.ErrInvalidToken)
	}
	return out.Token, nil
}

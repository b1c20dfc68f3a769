// Package google implements the Auth Gateway sign-in with Google OAuth
// authorization codes.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/heartmarshall/promptboard/internal/auth"
	"github.com/heartmarshall/promptboard/internal/domain"
)

const (
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Verifier exchanges Google OAuth authorization codes for account identity.
type Verifier struct {
	clientID     string
	clientSecret string
	redirectURI  string
	tokenURL     string
	userinfoURL  string
	httpClient   *http.Client
	log          *slog.Logger
}

// NewVerifier creates a Google OAuth verifier from the auth config values.
func NewVerifier(clientID, clientSecret, redirectURI string, logger *slog.Logger) *Verifier {
	return NewVerifierWithURLs(clientID, clientSecret, redirectURI, defaultTokenURL, defaultUserinfoURL, logger)
}

// NewVerifierWithURLs creates a verifier with custom endpoints (for testing).
func NewVerifierWithURLs(clientID, clientSecret, redirectURI, tokenURL, userinfoURL string, logger *slog.Logger) *Verifier {
	return &Verifier{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		tokenURL:     tokenURL,
		userinfoURL:  userinfoURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		log:          logger.With("adapter", "google_oauth"),
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type userinfoResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// VerifyCode exchanges an authorization code for the signed-in account.
// Rejected codes and unverified emails wrap domain.ErrUnauthorized; provider
// outages are returned as plain errors.
func (v *Verifier) VerifyCode(ctx context.Context, code string) (*auth.OAuthIdentity, error) {
	if code == "" {
		return nil, fmt.Errorf("oauth: empty code: %w", domain.ErrUnauthorized)
	}

	accessToken, err := v.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	info, err := v.fetchUserinfo(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if !info.VerifiedEmail {
		return nil, fmt.Errorf("oauth: email not verified: %w", domain.ErrUnauthorized)
	}

	v.log.DebugContext(ctx, "google oauth success", slog.String("subject", info.ID))

	return &auth.OAuthIdentity{
		Subject:     info.ID,
		Email:       info.Email,
		DisplayName: info.Name,
		PhotoURL:    info.Picture,
	}, nil
}

func (v *Verifier) exchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", v.clientID)
	form.Set("client_secret", v.clientSecret)
	form.Set("redirect_uri", v.redirectURI)
	encoded := form.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.tokenURL, strings.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("oauth: create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.doWithRetry(ctx, req)
	if err != nil {
		v.log.ErrorContext(ctx, "google oauth token exchange failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("oauth: google unavailable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("oauth: read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if resp.StatusCode == http.StatusBadRequest && json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			v.log.WarnContext(ctx, "google oauth code rejected", slog.String("error", errResp.Error))
			return "", fmt.Errorf("oauth: invalid or expired code: %w", domain.ErrUnauthorized)
		}
		v.log.ErrorContext(ctx, "google oauth token exchange failed", slog.Int("status", resp.StatusCode))
		return "", fmt.Errorf("oauth: google unavailable: status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil || tok.AccessToken == "" {
		return "", fmt.Errorf("oauth: invalid token response")
	}
	return tok.AccessToken, nil
}

func (v *Verifier) fetchUserinfo(ctx context.Context, accessToken string) (*userinfoResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("oauth: create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := v.doWithRetry(ctx, req)
	if err != nil {
		v.log.ErrorContext(ctx, "google oauth userinfo failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("oauth: fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.log.ErrorContext(ctx, "google oauth userinfo failed", slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("oauth: fetch user info: status %d", resp.StatusCode)
	}

	var info userinfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("oauth: invalid userinfo response: %w", err)
	}
	if info.ID == "" || info.Email == "" {
		return nil, fmt.Errorf("oauth: invalid userinfo response: missing id or email")
	}
	return &info, nil
}

// doWithRetry retries once, after 500ms, on network errors and 5xx responses.
func (v *Verifier) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := v.httpClient.Do(req)
	if err == nil && resp.StatusCode < 500 {
		return resp, nil
	}
	if resp != nil {
		resp.Body.Close()
	}

	select {
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	retry := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind request body: %w", err)
		}
		retry.Body = body
	}
	return v.httpClient.Do(retry)
}

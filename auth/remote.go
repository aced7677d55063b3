package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// userEndpoint is the identity provider's "resolve user from token" path.
const userEndpoint = "/auth/v1/user"

// maxProviderMessage caps the provider error text carried in a rejection, in runes.
const maxProviderMessage = 200

// providerUser is the subset of the provider's user object we consume.
type providerUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// providerError covers the error shapes the provider returns.
type providerError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e providerError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// RemoteVerifier delegates token validation to the identity provider.
type RemoteVerifier struct {
	baseURL    string
	anonKey    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewRemoteVerifier creates a verifier against the provider at baseURL.
// The shared httpClient is reused across calls; each call is additionally
// bounded by timeout.
func NewRemoteVerifier(baseURL, anonKey string, timeout time.Duration, httpClient *http.Client) *RemoteVerifier {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &RemoteVerifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		timeout:    timeout,
		httpClient: httpClient,
	}
}

// Verify asks the provider which user the token belongs to.
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if v.baseURL == "" {
		return Identity{}, newError(KindUpstreamUnavailable, ErrUpstreamUnavailable.Reason,
			errors.New("identity provider URL not configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+userEndpoint, nil)
	if err != nil {
		return Identity{}, newError(KindUpstreamUnavailable, ErrUpstreamUnavailable.Reason,
			fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if v.anonKey != "" {
		req.Header.Set("apikey", v.anonKey)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return Identity{}, newError(KindUpstreamUnavailable, ErrUpstreamUnavailable.Reason, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Identity{}, newError(KindUpstreamUnavailable, ErrUpstreamUnavailable.Reason,
			fmt.Errorf("failed to read provider response: %w", err))
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return Identity{}, newError(KindUpstreamUnavailable, ErrUpstreamUnavailable.Reason,
			fmt.Errorf("identity provider returned status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return Identity{}, newError(KindUnauthenticated, providerReason(body, token),
			fmt.Errorf("identity provider returned status %d", resp.StatusCode))
	}

	var user providerUser
	if err := json.Unmarshal(body, &user); err != nil {
		return Identity{}, newError(KindUpstreamUnavailable, ErrUpstreamUnavailable.Reason,
			fmt.Errorf("failed to decode provider user: %w", err))
	}
	if user.ID == "" {
		return Identity{}, newError(KindUnauthenticated, reasonMissingSubject, nil)
	}

	return Identity{
		Subject: user.ID,
		Email:   user.Email,
	}, nil
}

// providerReason extracts the provider's message with the token scrubbed out.
func providerReason(body []byte, token string) string {
	var perr providerError
	msg := ""
	if err := json.Unmarshal(body, &perr); err == nil {
		msg = perr.text()
	}
	if msg == "" {
		return "identity provider rejected the token"
	}
	if token != "" {
		msg = strings.ReplaceAll(msg, token, "[redacted]")
	}
	if r := []rune(msg); len(r) > maxProviderMessage {
		msg = string(r[:maxProviderMessage])
	}
	return "identity provider rejected the token: " + msg
}

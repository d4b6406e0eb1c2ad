package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goliatone/go-authgate"
)

// Client talks to the hosted credential service. It implements
// authgate.Provider.
type Client struct {
	config     Config
	httpClient *http.Client
}

var _ authgate.Provider = (*Client)(nil)

// New creates a hosted provider client.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		config:     cfg,
		httpClient: client,
	}
}

type providerUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	ConfirmedAt  *time.Time     `json:"email_confirmed_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u *providerUser) subject() *authgate.Subject {
	if u == nil {
		return nil
	}
	return &authgate.Subject{
		ID:            u.ID,
		Email:         u.Email,
		EmailVerified: u.ConfirmedAt != nil,
		CreatedAt:     u.CreatedAt,
		Metadata:      u.UserMetadata,
	}
}

type providerSession struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int           `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	User         *providerUser `json:"user"`
}

func (s *providerSession) session() *authgate.Session {
	if s == nil {
		return nil
	}

	expiresAt := time.Unix(s.ExpiresAt, 0)
	if s.ExpiresAt == 0 {
		expiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}

	return &authgate.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    expiresAt,
		Subject:      s.User.subject(),
	}
}

// SignUp implements authgate.Provider. The account starts unverified; the
// service emails the confirmation link.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*authgate.Subject, error) {
	payload := map[string]any{
		"email":    email,
		"password": password,
	}
	if len(metadata) > 0 {
		payload["data"] = metadata
	}

	body, err := c.post(ctx, "sign_up", c.config.SignUpURL, payload)
	if err != nil {
		return nil, err
	}

	var user providerUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, mapTransportError("sign_up", err)
	}

	return user.subject(), nil
}

// SignInWithPassword implements authgate.Provider.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*authgate.Session, error) {
	return c.tokenGrant(ctx, "sign_in", url.Values{"grant_type": {"password"}}, map[string]any{
		"email":    email,
		"password": password,
	})
}

// RefreshSession implements authgate.Provider. The service rotates the
// refresh token: the returned pair replaces the presented one.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*authgate.Session, error) {
	return c.tokenGrant(ctx, "refresh", url.Values{"grant_type": {"refresh_token"}}, map[string]any{
		"refresh_token": refreshToken,
	})
}

func (c *Client) tokenGrant(ctx context.Context, operation string, query url.Values, payload map[string]any) (*authgate.Session, error) {
	endpoint := c.config.TokenURL + "?" + query.Encode()

	body, err := c.post(ctx, operation, endpoint, payload)
	if err != nil {
		return nil, err
	}

	var session providerSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, mapTransportError(operation, err)
	}

	return session.session(), nil
}

// SubjectFromToken implements authgate.Provider.
func (c *Client) SubjectFromToken(ctx context.Context, accessToken string) (*authgate.Subject, error) {
	body, err := c.do(ctx, "user_info", http.MethodGet, c.config.UserURL, nil, accessToken)
	if err != nil {
		return nil, err
	}

	var user providerUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, mapTransportError("user_info", err)
	}

	return user.subject(), nil
}

// SignOut implements authgate.Provider. Revokes the session server side.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, "sign_out", http.MethodPost, c.config.LogoutURL, nil, accessToken)
	return err
}

// RequestPasswordReset implements authgate.Provider. The service owns rate
// limiting and the decision whether the address maps to an account.
func (c *Client) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	payload := map[string]any{
		"email": email,
	}
	if redirectTo != "" {
		payload["redirect_to"] = redirectTo
	}

	_, err := c.post(ctx, "recover", c.config.RecoverURL, payload)
	return err
}

// VerifyToken implements authgate.Provider. Exchanges a one-time emailed
// token for a session; the token is consumed whether or not the exchange
// succeeds downstream.
func (c *Client) VerifyToken(ctx context.Context, kind authgate.VerificationKind, token string) (*authgate.Session, error) {
	body, err := c.post(ctx, "verify", c.config.VerifyURL, map[string]any{
		"type":  string(kind),
		"token": token,
	})
	if err != nil {
		return nil, err
	}

	var session providerSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, mapTransportError("verify", err)
	}

	return session.session(), nil
}

// UpdatePassword implements authgate.Provider. Requires the short-lived
// session obtained from a recovery token exchange.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) error {
	payload := map[string]any{
		"password": password,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return mapTransportError("update_password", err)
	}

	_, err = c.do(ctx, "update_password", http.MethodPut, c.config.UserURL, body, accessToken)
	return err
}

func (c *Client) post(ctx context.Context, operation, endpoint string, payload map[string]any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, mapTransportError(operation, err)
	}
	return c.do(ctx, operation, http.MethodPost, endpoint, body, "")
}

func (c *Client) do(ctx context.Context, operation, method, endpoint string, body []byte, accessToken string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, mapTransportError(operation, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.config.APIKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, mapTransportError(operation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, mapTransportError(operation, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, mapAPIError(operation, resp.StatusCode, respBody)
	}

	return respBody, nil
}

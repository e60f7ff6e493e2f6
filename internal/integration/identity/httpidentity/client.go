package httpidentity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/scribe/internal/core/auth"
	"github.com/colonyops/scribe/internal/core/logging"
)

const DefaultTimeout = 15 * time.Second

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithAPIKey sends key as a bearer token on every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) { c.apiKey = key }
}

// Client implements auth.Provider against a remote identity service.
type Client struct {
	base   *url.URL
	http   *http.Client
	apiKey string
	log    zerolog.Logger
}

var _ auth.Provider = (*Client)(nil)

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse identity url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("identity url %q must be http or https", baseURL)
	}

	c := &Client{
		base: u,
		http: &http.Client{Timeout: DefaultTimeout},
		log:  logging.Component("httpidentity").With().Str("host", u.Host).Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Lookup(ctx context.Context, email string) (auth.Factor, error) {
	var resp lookupResponse
	if err := c.do(ctx, http.MethodPost, pathLookup, emailRequest{Email: email}, &resp); err != nil {
		return "", err
	}
	return resp.Factor, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (auth.Session, error) {
	var sess auth.Session
	err := c.do(ctx, http.MethodPost, pathSignIn, credentialsRequest{Email: email, Password: password}, &sess)
	return sess, err
}

func (c *Client) SignInOAuth(ctx context.Context, id auth.OAuthIdentity) (auth.Session, error) {
	var sess auth.Session
	err := c.do(ctx, http.MethodPost, pathOAuth, id, &sess)
	return sess, err
}

func (c *Client) SignUp(ctx context.Context, email, password string) error {
	return c.do(ctx, http.MethodPost, pathSignUp, credentialsRequest{Email: email, Password: password}, nil)
}

func (c *Client) SendCode(ctx context.Context, email string, purpose auth.Purpose) error {
	return c.do(ctx, http.MethodPost, pathCodes, codeRequest{Email: email, Purpose: purpose}, nil)
}

func (c *Client) VerifyCode(ctx context.Context, email, code string, purpose auth.Purpose) (auth.Session, error) {
	var sess auth.Session
	err := c.do(ctx, http.MethodPost, pathVerify, codeRequest{Email: email, Purpose: purpose, Code: code}, &sess)
	return sess, err
}

func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) (auth.Session, error) {
	var sess auth.Session
	err := c.do(ctx, http.MethodPost, pathReset, resetRequest{Email: email, Code: code, NewPassword: newPassword}, &sess)
	return sess, err
}

func (c *Client) SignOut(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, pathSessions+"/"+url.PathEscape(sessionID), nil, nil)
}

// Ping checks that the service answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", auth.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Ctx(ctx).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("identity request")

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload errorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &payload)

	sentinel := errorFor(resp.StatusCode, payload.Error)
	msg := payload.Message
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	if sentinel == nil {
		return fmt.Errorf("identity service: %s (status %d)", msg, resp.StatusCode)
	}
	return &StatusError{Status: resp.StatusCode, Message: msg, err: sentinel}
}

// StatusError is a non-2xx reply from the identity service.
type StatusError struct {
	Status  int
	Message string
	err     error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("identity service: %s (status %d)", e.Message, e.Status)
}

func (e *StatusError) Unwrap() error { return e.err }

// IsStatus reports whether err is a StatusError with the given status.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

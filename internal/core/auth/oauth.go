package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	callbackPath      = "/oauth/callback"
)

var ErrOAuthDenied = errors.New("authorization was denied")

// OAuthConfig configures an OAuth provider.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	Endpoint     oauth2.Endpoint
	UserInfoURL  string
	Scopes       []string
}

// GoogleOAuthConfig returns the Google endpoints and scopes.
func GoogleOAuthConfig(clientID, clientSecret string) OAuthConfig {
	return OAuthConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     endpoints.Google,
		UserInfoURL:  googleUserInfoURL,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

// OAuth runs the authorization code flow with PKCE against a loopback
// redirect, which is how a terminal client receives the callback.
type OAuth struct {
	name string
	cfg  OAuthConfig
	log  zerolog.Logger
}

// NewOAuth creates an OAuth flow for the named provider.
func NewOAuth(name string, cfg OAuthConfig, log zerolog.Logger) *OAuth {
	return &OAuth{
		name: name,
		cfg:  cfg,
		log:  log.With().Str("component", "oauth").Str("provider", name).Logger(),
	}
}

type callbackResult struct {
	code string
	err  error
}

// Login opens the consent page through open and waits for the redirect. The
// returned identity carries the email reported by the provider.
func (o *OAuth) Login(ctx context.Context, open func(url string) error) (OAuthIdentity, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return OAuthIdentity{}, fmt.Errorf("listen for callback: %w", err)
	}

	conf := o.config("http://" + ln.Addr().String() + callbackPath)
	state, err := randomState()
	if err != nil {
		_ = ln.Close()
		return OAuthIdentity{}, err
	}
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		// requests without our state did not come from this consent page
		if r.URL.Query().Get("state") != state {
			o.log.Warn().Str("remote", r.RemoteAddr).Msg("ignoring oauth callback with unknown state")
			http.Error(w, "Unknown sign-in request.", http.StatusBadRequest)
			return
		}
		res := parseCallback(r)
		if res.err != nil {
			http.Error(w, "Sign-in failed. You can close this window.", http.StatusBadRequest)
		} else {
			_, _ = fmt.Fprintln(w, "Signed in. You can close this window and return to the terminal.")
		}
		select {
		case results <- res:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	o.log.Debug().Str("redirect", conf.RedirectURL).Msg("starting oauth flow")
	if err := open(authURL); err != nil {
		return OAuthIdentity{}, fmt.Errorf("open browser: %w", err)
	}

	var res callbackResult
	select {
	case <-ctx.Done():
		return OAuthIdentity{}, ctx.Err()
	case res = <-results:
	}
	if res.err != nil {
		return OAuthIdentity{}, res.err
	}

	token, err := conf.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return OAuthIdentity{}, fmt.Errorf("exchange code: %w", err)
	}

	id, err := o.userInfo(ctx, conf, token)
	if err != nil {
		return OAuthIdentity{}, err
	}
	o.log.Info().Str("email", id.Email).Msg("oauth identity received")
	return id, nil
}

func (o *OAuth) config(redirect string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     o.cfg.ClientID,
		ClientSecret: o.cfg.ClientSecret,
		Endpoint:     o.cfg.Endpoint,
		RedirectURL:  redirect,
		Scopes:       o.cfg.Scopes,
	}
}

type userInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

func (o *OAuth) userInfo(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (OAuthIdentity, error) {
	info, err := fetchUserInfo(ctx, conf.Client(ctx, token), o.cfg.UserInfoURL)
	if err != nil {
		return OAuthIdentity{}, err
	}
	return OAuthIdentity{
		Provider:    o.name,
		Subject:     info.Sub,
		Email:       NormalizeEmail(info.Email),
		AccessToken: token.AccessToken,
	}, nil
}

// fetchUserInfo asks the provider who owns the token behind client. Only a
// verified email is accepted.
func fetchUserInfo(ctx context.Context, client *http.Client, endpoint string) (userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return userInfo{}, fmt.Errorf("build userinfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return userInfo{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return userInfo{}, fmt.Errorf("%w: access token rejected (status %d)", ErrOAuthDenied, resp.StatusCode)
	default:
		return userInfo{}, fmt.Errorf("fetch userinfo: unexpected status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return userInfo{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Sub == "" || info.Email == "" || !info.EmailVerified {
		return userInfo{}, fmt.Errorf("%w: provider did not return a verified email", ErrOAuthDenied)
	}
	return info, nil
}

// IdentityVerifier confirms an OAuthIdentity with the provider that issued its
// access token. Identity backends call it before trusting a client's claim.
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, id OAuthIdentity) (OAuthIdentity, error)
}

// UserInfoVerifier checks access tokens against each provider's OpenID
// userinfo endpoint.
type UserInfoVerifier struct {
	endpoints map[string]string
	client    *http.Client
}

var _ IdentityVerifier = (*UserInfoVerifier)(nil)

// NewUserInfoVerifier creates a verifier. endpoints maps provider names to
// userinfo URLs. A nil client uses http.DefaultClient.
func NewUserInfoVerifier(endpoints map[string]string, client *http.Client) *UserInfoVerifier {
	return &UserInfoVerifier{endpoints: endpoints, client: client}
}

// GoogleUserInfoEndpoints returns the endpoint table for Google sign-in.
func GoogleUserInfoEndpoints() map[string]string {
	return map[string]string{"google": googleUserInfoURL}
}

// VerifyIdentity fetches the token owner and requires it to match the claimed
// subject and email. Every mismatch is reported as ErrOAuthDenied.
func (v *UserInfoVerifier) VerifyIdentity(ctx context.Context, id OAuthIdentity) (OAuthIdentity, error) {
	endpoint, ok := v.endpoints[id.Provider]
	if !ok {
		return OAuthIdentity{}, fmt.Errorf("%w: unknown provider %q", ErrOAuthDenied, id.Provider)
	}
	if id.AccessToken == "" {
		return OAuthIdentity{}, fmt.Errorf("%w: missing access token", ErrOAuthDenied)
	}

	if v.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, v.client)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: id.AccessToken,
		TokenType:   "Bearer",
	}))

	info, err := fetchUserInfo(ctx, client, endpoint)
	if err != nil {
		return OAuthIdentity{}, err
	}

	email := NormalizeEmail(info.Email)
	if info.Sub != id.Subject || email != NormalizeEmail(id.Email) {
		return OAuthIdentity{}, fmt.Errorf("%w: identity does not match access token", ErrOAuthDenied)
	}
	return OAuthIdentity{
		Provider:    id.Provider,
		Subject:     info.Sub,
		Email:       email,
		AccessToken: id.AccessToken,
	}, nil
}

// parseCallback reads a redirect whose state has already been checked.
func parseCallback(r *http.Request) callbackResult {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		return callbackResult{err: fmt.Errorf("%w: %s", ErrOAuthDenied, e)}
	}
	code := q.Get("code")
	if code == "" {
		return callbackResult{err: errors.New("oauth callback missing code")}
	}
	return callbackResult{code: code}
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

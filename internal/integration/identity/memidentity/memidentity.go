// Package memidentity is an in-process identity provider for offline and
// development use. Verification codes are written to the log instead of being
// emailed.
package memidentity

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/scribe/internal/core/auth"
	"github.com/colonyops/scribe/internal/core/logging"
	"github.com/colonyops/scribe/internal/core/throttle"
)

const (
	DefaultCodeTTL      = 10 * time.Minute
	DefaultSessionTTL   = 7 * 24 * time.Hour
	DefaultCodeAttempts = 3
	issuer              = "scribe-dev"
)

type account struct {
	email    string
	hash     string
	verified bool
}

type pendingCode struct {
	code     string
	expires  time.Time
	attempts *throttle.Counter
}

type codeKey struct {
	email   string
	purpose auth.Purpose
}

// Option configures a Provider.
type Option func(*Provider)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithCodeGenerator replaces the random code generator.
func WithCodeGenerator(fn func() (string, error)) Option {
	return func(p *Provider) { p.newCode = fn }
}

// WithArgon2Params overrides password hashing parameters.
func WithArgon2Params(params Argon2Params) Option {
	return func(p *Provider) { p.argon = params }
}

// WithSigningKey sets the HMAC key used to sign session tokens.
func WithSigningKey(key []byte) Option {
	return func(p *Provider) { p.key = key }
}

// WithCodeTTL sets how long a verification code stays valid.
func WithCodeTTL(d time.Duration) Option {
	return func(p *Provider) { p.codeTTL = d }
}

// WithCodeAttempts sets how many wrong entries discard a pending code.
func WithCodeAttempts(n int) Option {
	return func(p *Provider) { p.codeAttempts = n }
}

// WithIdentityVerifier enables OAuth sign-in. Identities are confirmed with
// v before an account is created or signed in.
func WithIdentityVerifier(v auth.IdentityVerifier) Option {
	return func(p *Provider) { p.verifier = v }
}

// Provider implements auth.Provider in memory.
type Provider struct {
	mu       sync.Mutex
	accounts map[string]*account
	codes    map[codeKey]pendingCode
	sessions map[string]auth.Session

	now        func() time.Time
	newCode    func() (string, error)
	argon      Argon2Params
	key        []byte
	codeTTL      time.Duration
	codeAttempts int
	sessionTTL   time.Duration
	verifier     auth.IdentityVerifier
	log          zerolog.Logger
}

var _ auth.Provider = (*Provider)(nil)

// New creates an empty provider. Without WithSigningKey a random key is used,
// so tokens do not survive a restart.
func New(opts ...Option) (*Provider, error) {
	p := &Provider{
		accounts:   map[string]*account{},
		codes:      map[codeKey]pendingCode{},
		sessions:   map[string]auth.Session{},
		now:        time.Now,
		newCode:    randomCode,
		argon:      DefaultArgon2Params(),
		codeTTL:      DefaultCodeTTL,
		codeAttempts: DefaultCodeAttempts,
		sessionTTL:   DefaultSessionTTL,
		log:          logging.Component("memidentity"),
	}
	for _, opt := range opts {
		opt(p)
	}

	if len(p.key) == 0 {
		p.key = make([]byte, 32)
		if _, err := rand.Read(p.key); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
	}
	return p, nil
}

func (p *Provider) Lookup(_ context.Context, email string) (auth.Factor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.accounts[auth.NormalizeEmail(email)]
	if !ok || !acc.verified {
		return "", auth.ErrAccountNotFound
	}
	if acc.hash == "" {
		return auth.FactorEmailCode, nil
	}
	return auth.FactorPassword, nil
}

func (p *Provider) SignIn(_ context.Context, email, password string) (auth.Session, error) {
	email = auth.NormalizeEmail(email)

	p.mu.Lock()
	acc, ok := p.accounts[email]
	var hash string
	verified := false
	if ok {
		hash, verified = acc.hash, acc.verified
	}
	p.mu.Unlock()

	if !verified {
		return auth.Session{}, auth.ErrAccountNotFound
	}
	if hash == "" || !verifyPassword(password, hash) {
		return auth.Session{}, auth.ErrInvalidCredentials
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.issueLocked(email)
}

// SignInOAuth signs in the owner of id.AccessToken. Without an identity
// verifier every OAuth sign-in is refused.
func (p *Provider) SignInOAuth(ctx context.Context, id auth.OAuthIdentity) (auth.Session, error) {
	if p.verifier == nil {
		return auth.Session{}, fmt.Errorf("%w: oauth sign-in is not enabled", auth.ErrOAuthDenied)
	}
	verified, err := p.verifier.VerifyIdentity(ctx, id)
	if err != nil {
		p.log.Warn().Err(err).Str("provider", id.Provider).Msg("oauth identity rejected")
		return auth.Session{}, err
	}
	email := auth.NormalizeEmail(verified.Email)
	if email == "" {
		return auth.Session{}, auth.ErrInvalidCredentials
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.accounts[email]
	switch {
	case !ok:
		acc = &account{email: email}
		p.accounts[email] = acc
		p.log.Info().Str("email", email).Str("provider", verified.Provider).Msg("account created from oauth")
	case !acc.verified:
		// the pending password was never confirmed by the mailbox owner
		acc.hash = ""
		delete(p.codes, codeKey{email, auth.PurposeSignUp})
		p.log.Info().Str("email", email).Str("provider", verified.Provider).Msg("unverified sign-up claimed by oauth")
	}
	acc.verified = true
	return p.issueLocked(email)
}

func (p *Provider) SignUp(_ context.Context, email, password string) error {
	email = auth.NormalizeEmail(email)
	hash, err := hashPassword(p.argon, password)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if acc, ok := p.accounts[email]; ok && acc.verified {
		return auth.ErrAccountExists
	}
	// an unverified account is replaced so an abandoned sign-up can restart
	p.accounts[email] = &account{email: email, hash: hash}
	return nil
}

func (p *Provider) SendCode(_ context.Context, email string, purpose auth.Purpose) error {
	email = auth.NormalizeEmail(email)

	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.accounts[email]
	switch {
	case !ok:
		return auth.ErrAccountNotFound
	case purpose == auth.PurposeSignUp && acc.verified:
		return auth.ErrAccountExists
	case purpose != auth.PurposeSignUp && !acc.verified:
		return auth.ErrAccountNotFound
	}

	code, err := p.newCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	p.codes[codeKey{email, purpose}] = pendingCode{
		code:     code,
		expires:  p.now().Add(p.codeTTL),
		attempts: throttle.NewCounter(p.codeAttempts),
	}

	p.log.Info().
		Str("email", email).
		Str("purpose", string(purpose)).
		Str("code", code).
		Msg("verification code issued")
	return nil
}

func (p *Provider) VerifyCode(_ context.Context, email, code string, purpose auth.Purpose) (auth.Session, error) {
	email = auth.NormalizeEmail(email)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.consumeLocked(email, code, purpose); err != nil {
		return auth.Session{}, err
	}
	if purpose == auth.PurposeSignUp {
		p.accounts[email].verified = true
	}
	return p.issueLocked(email)
}

func (p *Provider) ResetPassword(_ context.Context, email, code, newPassword string) (auth.Session, error) {
	email = auth.NormalizeEmail(email)
	hash, err := hashPassword(p.argon, newPassword)
	if err != nil {
		return auth.Session{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.consumeLocked(email, code, auth.PurposePasswordReset); err != nil {
		return auth.Session{}, err
	}
	p.accounts[email].hash = hash
	p.log.Info().Str("email", email).Msg("password reset")
	return p.issueLocked(email)
}

// SignOut revokes a session. Unknown sessions are ignored.
func (p *Provider) SignOut(_ context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, sessionID)
	return nil
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Authenticate resolves a session token to its live session.
func (p *Provider) Authenticate(token string) (auth.Session, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return p.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return auth.Session{}, fmt.Errorf("%w: %w", auth.ErrInvalidCredentials, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.sessions[claims.ID]
	if !ok {
		return auth.Session{}, auth.ErrInvalidCredentials
	}
	return sess, nil
}

func (p *Provider) consumeLocked(email, code string, purpose auth.Purpose) error {
	if _, ok := p.accounts[email]; !ok {
		return auth.ErrAccountNotFound
	}

	key := codeKey{email, purpose}
	pending, ok := p.codes[key]
	if !ok {
		return auth.ErrInvalidCode
	}
	if !p.now().Before(pending.expires) {
		delete(p.codes, key)
		return auth.ErrInvalidCode
	}
	if subtle.ConstantTimeCompare([]byte(pending.code), []byte(code)) != 1 {
		if pending.attempts.Fail() == 0 {
			delete(p.codes, key)
			p.log.Warn().Str("email", email).Str("purpose", string(purpose)).Msg("verification code discarded after failed attempts")
			return auth.ErrCodeExhausted
		}
		return auth.ErrInvalidCode
	}
	delete(p.codes, key)
	return nil
}

func (p *Provider) issueLocked(email string) (auth.Session, error) {
	now := p.now()
	sess := auth.Session{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(p.sessionTTL),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Issuer:    issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
		Email: email,
	})
	signed, err := token.SignedString(p.key)
	if err != nil {
		return auth.Session{}, fmt.Errorf("sign session token: %w", err)
	}
	sess.Token = signed

	p.sessions[sess.ID] = sess
	return sess, nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

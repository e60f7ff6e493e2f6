package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/scribe/internal/core/throttle"
)

// Policies holds the throttle parameters for each call site.
type Policies struct {
	SignUpResend        throttle.Policy `yaml:"sign_up_resend"`
	SignInCodeResend    throttle.Policy `yaml:"sign_in_code_resend"`
	PasswordResetResend throttle.Policy `yaml:"password_reset_resend"`
	CodeAttempts        int             `yaml:"code_attempts"`
}

// DefaultPolicies returns the built-in limits.
func DefaultPolicies() Policies {
	return Policies{
		SignUpResend:        throttle.Policy{MaxAttempts: 3, Cooldown: 30 * time.Second, Lockout: 30 * time.Minute},
		SignInCodeResend:    throttle.Policy{MaxAttempts: 3, Cooldown: 30 * time.Second, Lockout: 30 * time.Minute},
		PasswordResetResend: throttle.Policy{MaxAttempts: 2, Cooldown: 30 * time.Second, Lockout: time.Hour},
		CodeAttempts:        3,
	}
}

// Service is the entry point screens use for identity operations. It tracks
// the active session.
type Service struct {
	provider  Provider
	policies  Policies
	throttles []throttle.Option
	log       zerolog.Logger

	mu      sync.Mutex
	session *Session
}

// NewService creates a service. The throttle options are applied to every
// throttle the service creates.
func NewService(p Provider, policies Policies, log zerolog.Logger, opts ...throttle.Option) *Service {
	return &Service{
		provider:  p,
		policies:  policies,
		throttles: opts,
		log:       log.With().Str("component", "auth").Logger(),
	}
}

// Lookup returns how email signs in.
func (s *Service) Lookup(ctx context.Context, email string) (Factor, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return "", err
	}
	f, err := s.provider.Lookup(ctx, email)
	if err != nil {
		return "", fmt.Errorf("lookup account: %w", err)
	}
	return f, nil
}

// SignIn authenticates with a password and activates the session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = NormalizeEmail(email)
	if err := ValidateSignIn(email, password); err != nil {
		return Session{}, err
	}

	sess, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, fmt.Errorf("sign in: %w", err)
	}
	s.Activate(sess)
	return sess, nil
}

// SignInOAuth activates a session for an identity asserted by an OAuth
// provider.
func (s *Service) SignInOAuth(ctx context.Context, id OAuthIdentity) (Session, error) {
	sess, err := s.provider.SignInOAuth(ctx, id)
	if err != nil {
		return Session{}, fmt.Errorf("sign in with %s: %w", id.Provider, err)
	}
	s.Activate(sess)
	return sess, nil
}

// SignUp registers the account and sends the first verification code. The
// returned flow completes the sign-up.
func (s *Service) SignUp(ctx context.Context, email, password string) (*VerificationFlow, error) {
	email = NormalizeEmail(email)
	if err := ValidateSignUp(email, password); err != nil {
		return nil, err
	}

	if err := s.provider.SignUp(ctx, email, password); err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	flow := s.NewVerificationFlow(PurposeSignUp)
	if err := flow.Start(ctx, email); err != nil {
		return nil, err
	}
	return flow, nil
}

// StartCodeSignIn sends a sign-in code to email.
func (s *Service) StartCodeSignIn(ctx context.Context, email string) (*VerificationFlow, error) {
	flow := s.NewVerificationFlow(PurposeSignIn)
	if err := flow.Start(ctx, email); err != nil {
		return nil, err
	}
	return flow, nil
}

// NewVerificationFlow creates an idle verification flow for purpose.
func (s *Service) NewVerificationFlow(purpose Purpose) *VerificationFlow {
	policy := s.policies.SignUpResend
	if purpose == PurposeSignIn {
		policy = s.policies.SignInCodeResend
	}
	flow := NewVerificationFlow(
		s.provider,
		purpose,
		throttle.New(policy, s.throttles...),
		throttle.NewCounter(s.policies.CodeAttempts),
		s.log,
	)
	flow.onVerified = s.Activate
	return flow
}

// NewResetFlow creates a password reset flow.
func (s *Service) NewResetFlow() *ResetFlow {
	return NewResetFlow(
		s.provider,
		throttle.New(s.policies.PasswordResetResend, s.throttles...),
		throttle.NewCounter(s.policies.CodeAttempts),
		s.log,
	)
}

// Activate records sess as the current session.
func (s *Service) Activate(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &sess
	s.log.Info().Str("session_id", sess.ID).Str("email", sess.Email).Msg("session active")
}

// Session returns the current session.
func (s *Service) Session() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

// SignOut ends the current session. The local session is cleared even when
// the remote call fails.
func (s *Service) SignOut(ctx context.Context) error {
	s.mu.Lock()
	sess := s.session
	s.session = nil
	s.mu.Unlock()

	if sess == nil {
		return nil
	}
	if err := s.provider.SignOut(ctx, sess.ID); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

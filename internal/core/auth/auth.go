// Package auth defines the identity operations the client needs from the
// remote identity service and the multi-step flows built on them.
package auth

import (
	"context"
	"time"
)

// Purpose identifies what a one-time code is issued for.
type Purpose string

const (
	PurposeSignUp        Purpose = "sign_up"
	PurposeSignIn        Purpose = "sign_in"
	PurposePasswordReset Purpose = "password_reset"
)

// Factor is the first factor an account signs in with.
type Factor string

const (
	FactorPassword  Factor = "password"
	FactorEmailCode Factor = "email_code"
)

// Session is an authenticated session issued by the identity service.
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// OAuthIdentity is the identity asserted by an external OAuth provider.
type OAuthIdentity struct {
	Provider    string `json:"provider"`
	Subject     string `json:"subject"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
}

// Provider is the remote identity service.
type Provider interface {
	// Lookup returns the first factor configured for email.
	Lookup(ctx context.Context, email string) (Factor, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignInOAuth(ctx context.Context, id OAuthIdentity) (Session, error)
	// SignUp registers an unverified account. A PurposeSignUp code must be
	// verified before a session is issued.
	SignUp(ctx context.Context, email, password string) error
	SendCode(ctx context.Context, email string, purpose Purpose) error
	VerifyCode(ctx context.Context, email, code string, purpose Purpose) (Session, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) (Session, error)
	SignOut(ctx context.Context, sessionID string) error
}

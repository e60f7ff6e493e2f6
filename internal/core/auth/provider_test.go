package auth

import (
	"context"
	"sync"
	"time"
)

// fakeProvider accepts a single valid code and records calls.
type fakeProvider struct {
	mu sync.Mutex

	validCode string
	factor    Factor
	sendErr   error
	signInErr error
	verifyErr error

	sent       []Purpose
	verified   int
	signedOut  []string
	lastReset  string
	registered map[string]string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		validCode:  "123456",
		factor:     FactorPassword,
		registered: map[string]string{},
	}
}

func (p *fakeProvider) Lookup(_ context.Context, email string) (Factor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.registered[email]; !ok {
		return "", ErrAccountNotFound
	}
	return p.factor, nil
}

func (p *fakeProvider) SignIn(_ context.Context, email, password string) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.signInErr != nil {
		return Session{}, p.signInErr
	}
	pw, ok := p.registered[email]
	if !ok {
		return Session{}, ErrAccountNotFound
	}
	if pw != password {
		return Session{}, ErrInvalidCredentials
	}
	return Session{ID: "sess-signin", Email: email, CreatedAt: time.Now()}, nil
}

func (p *fakeProvider) SignInOAuth(_ context.Context, id OAuthIdentity) (Session, error) {
	return Session{ID: "sess-oauth", Email: id.Email}, nil
}

func (p *fakeProvider) SignUp(_ context.Context, email, password string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.registered[email]; ok {
		return ErrAccountExists
	}
	p.registered[email] = password
	return nil
}

func (p *fakeProvider) SendCode(_ context.Context, _ string, purpose Purpose) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return p.sendErr
	}
	p.sent = append(p.sent, purpose)
	return nil
}

func (p *fakeProvider) VerifyCode(_ context.Context, email, code string, _ Purpose) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verified++
	if p.verifyErr != nil {
		return Session{}, p.verifyErr
	}
	if code != p.validCode {
		return Session{}, ErrInvalidCode
	}
	return Session{ID: "sess-verified", Email: email}, nil
}

func (p *fakeProvider) ResetPassword(_ context.Context, email, code, newPassword string) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verified++
	if code != p.validCode {
		return Session{}, ErrInvalidCode
	}
	p.registered[email] = newPassword
	p.lastReset = email
	return Session{ID: "sess-reset", Email: email}, nil
}

func (p *fakeProvider) SignOut(_ context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signedOut = append(p.signedOut, sessionID)
	return nil
}

func (p *fakeProvider) sentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func (p *fakeProvider) verifyCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.verified
}

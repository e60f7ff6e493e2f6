package tui

import (
	"context"
	"path/filepath"

	tea "charm.land/bubbletea/v2"

	"github.com/colonyops/scribe/internal/core/auth"
	"github.com/colonyops/scribe/internal/core/script"
)

// Commands wrapping service calls. Each runs off the update loop and reports
// back with a result message.

func lookupAccount(e *env, email string) tea.Cmd {
	return func() tea.Msg {
		f, err := e.auth.Lookup(e.ctx, email)
		return lookupMsg{factor: f, err: err}
	}
}

func signInPassword(e *env, email, password string) tea.Cmd {
	return func() tea.Msg {
		sess, err := e.auth.SignIn(e.ctx, email, password)
		return sessionMsg{session: sess, err: err}
	}
}

// loginOAuth waits on the browser until ctx ends.
func loginOAuth(ctx context.Context, e *env) tea.Cmd {
	return func() tea.Msg {
		id, err := e.oauth.Login(ctx, e.openURL)
		return oauthMsg{identity: id, err: err}
	}
}

func signInOAuth(e *env, id auth.OAuthIdentity) tea.Cmd {
	return func() tea.Msg {
		sess, err := e.auth.SignInOAuth(e.ctx, id)
		return sessionMsg{session: sess, err: err}
	}
}

func startCodeSignIn(e *env, email string) tea.Cmd {
	return func() tea.Msg {
		flow, err := e.auth.StartCodeSignIn(e.ctx, email)
		return flowMsg{flow: flow, err: err}
	}
}

func signUp(e *env, email, password string) tea.Cmd {
	return func() tea.Msg {
		flow, err := e.auth.SignUp(e.ctx, email, password)
		return flowMsg{flow: flow, err: err}
	}
}

func verifyCode(e *env, flow *auth.VerificationFlow, code string) tea.Cmd {
	return func() tea.Msg {
		sess, err := flow.Verify(e.ctx, code)
		return sessionMsg{session: sess, err: err}
	}
}

func resendCode(e *env, flow *auth.VerificationFlow) tea.Cmd {
	return func() tea.Msg {
		left, err := flow.Resend(e.ctx)
		return resendMsg{left: left, err: err}
	}
}

func requestReset(e *env, flow *auth.ResetFlow, email string) tea.Cmd {
	return func() tea.Msg {
		return resetRequestedMsg{err: flow.Request(e.ctx, email)}
	}
}

func resendReset(e *env, flow *auth.ResetFlow) tea.Cmd {
	return func() tea.Msg {
		left, err := flow.Resend(e.ctx)
		return resendMsg{left: left, err: err}
	}
}

func completeReset(e *env, flow *auth.ResetFlow, code, password string) tea.Cmd {
	return func() tea.Msg {
		return resetCompleteMsg{err: flow.Complete(e.ctx, code, password)}
	}
}

func signOut(e *env) tea.Cmd {
	return func() tea.Msg {
		return signedOutMsg{err: e.auth.SignOut(e.ctx)}
	}
}

// generateScript runs under ctx so the caller can stop it.
func generateScript(ctx context.Context, e *env, topic string, opts script.Options) tea.Cmd {
	return func() tea.Msg {
		sc, err := e.scripts.Generate(ctx, topic, opts)
		return generatedMsg{script: sc, err: err}
	}
}

func regenerateScript(ctx context.Context, e *env, prev script.Script) tea.Cmd {
	return func() tea.Msg {
		sc, err := e.scripts.Regenerate(ctx, prev)
		return generatedMsg{script: sc, err: err}
	}
}

func loadHistory(e *env) tea.Cmd {
	return func() tea.Msg {
		scripts, err := e.scripts.History(e.ctx, e.cfg.History.PageSize)
		return historyMsg{scripts: scripts, err: err}
	}
}

func deleteScript(e *env, id string) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{id: id, err: e.scripts.Delete(e.ctx, id)}
	}
}

func copyScript(e *env, sc script.Script) tea.Cmd {
	text := sc.Markdown()
	return func() tea.Msg {
		return copiedMsg{err: e.clipboard(text)}
	}
}

func exportScript(e *env, sc script.Script) tea.Cmd {
	path := filepath.Join(e.cfg.ExportDir(), script.FileName(sc))
	return func() tea.Msg {
		written, err := script.Export(path, sc)
		return exportedMsg{path: written, err: err}
	}
}

// signedIn announces the session and opens the generator.
func signedIn(e *env, sess auth.Session) tea.Cmd {
	e.toasts.Success("Signed in as " + sess.Email)
	return navigate(newGeneratorScreen(e))
}

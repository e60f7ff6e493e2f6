package httpidentity

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/colonyops/scribe/internal/core/auth"
	"github.com/colonyops/scribe/internal/core/logging"
)

const maxBodyBytes = 1 << 20

type handler struct {
	provider auth.Provider
	log      zerolog.Logger
	apiKey   string
}

// HandlerOption configures the handler returned by NewHandler.
type HandlerOption func(*handler)

// RequireAPIKey rejects /v1 requests that do not carry key as a bearer token.
func RequireAPIKey(key string) HandlerOption {
	return func(h *handler) { h.apiKey = key }
}

// NewHandler serves p over the identity JSON API.
func NewHandler(p auth.Provider, log zerolog.Logger, opts ...HandlerOption) http.Handler {
	h := &handler{provider: p, log: log}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(h.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/v1", func(r chi.Router) {
		if h.apiKey != "" {
			r.Use(h.requireKey)
		}
		r.Post("/lookup", h.lookup)
		r.Post("/sign_in", h.signIn)
		r.Post("/oauth", h.signInOAuth)
		r.Post("/sign_up", h.signUp)
		r.Post("/codes", h.sendCode)
		r.Post("/codes/verify", h.verifyCode)
		r.Post("/password_reset", h.resetPassword)
		r.Delete("/sessions/{id}", h.signOut)
	})

	return r
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		r = r.WithContext(ctx)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		h.log.Info().
			Ctx(ctx).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (h *handler) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.apiKey)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: "missing or invalid api key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) lookup(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !h.decode(w, r, &req) {
		return
	}
	factor, err := h.provider.Lookup(r.Context(), req.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lookupResponse{Factor: factor})
}

func (h *handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.session(w, r)(h.provider.SignIn(r.Context(), req.Email, req.Password))
}

func (h *handler) signInOAuth(w http.ResponseWriter, r *http.Request) {
	var req auth.OAuthIdentity
	if !h.decode(w, r, &req) {
		return
	}
	h.session(w, r)(h.provider.SignInOAuth(r.Context(), req))
}

func (h *handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := auth.ValidateSignUp(req.Email, req.Password); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if err := h.provider.SignUp(r.Context(), req.Email, req.Password); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) sendCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.provider.SendCode(r.Context(), req.Email, req.Purpose); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) verifyCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.session(w, r)(h.provider.VerifyCode(r.Context(), req.Email, req.Code, req.Purpose))
}

func (h *handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := auth.ValidateNewPassword(req.NewPassword); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	h.session(w, r)(h.provider.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword))
}

func (h *handler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.provider.SignOut(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) session(w http.ResponseWriter, r *http.Request) func(auth.Session, error) {
	return func(sess auth.Session, err error) {
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: "malformed request body"})
		return false
	}
	return true
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error().Ctx(r.Context()).Err(err).Str("path", r.URL.Path).Msg("provider failure")
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/authgate/authgate/internal/shared/cookie"
)

type (
	Router struct {
		service servicer
	}
)

func NewRouter(service servicer) chi.Router {
	router := &Router{service: service}
	return router.Routes()
}

func (r *Router) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/signup", r.Signup)
	router.Post("/login", r.Login)
	router.Post("/logout", r.Logout)
	router.Group(func(protected chi.Router) {
		protected.Use(RequireSession(r.service))
		protected.Get("/me", r.Me)
	})
	return router
}

// Signup creates a new user. It returns 201 with the public view; the user
// logs in separately, no cookie is issued here.
func (r *Router) Signup(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)

	var in SignupIn
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		writeError(w, &ValidationError{Field: "body", Message: "invalid request body"})
		return
	}

	user, err := r.service.Signup(ctx, in)
	if err != nil {
		logger.Warn().Err(err).Str("username", in.Username).Msg("Signup failed")
		writeError(w, err)
		return
	}

	logger.Debug().Str("username", user.Username).Str("user_id", user.ID).Msg("Signup successful")
	writeJSON(w, http.StatusCreated, UserResponse{User: *user})
}

// Login verifies credentials and sets the session cookie.
func (r *Router) Login(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)

	var in LoginIn
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		writeError(w, &ValidationError{Field: "body", Message: "invalid request body"})
		return
	}

	logger.Debug().Str("username", in.Username).Msg("Login attempt")

	user, token, err := r.service.Login(ctx, in)
	if err != nil {
		logger.Warn().Err(err).Str("username", in.Username).Msg("Login failed")
		writeError(w, err)
		return
	}

	if err := cookie.SetToken(w, token, r.service.CookieSecret(), r.service.SessionTTL()); err != nil {
		logger.Error().Err(err).Str("username", in.Username).Msg("Login failed: could not set cookie")
		writeError(w, err)
		return
	}

	logger.Debug().Str("username", user.Username).Str("user_id", user.ID).Msg("Login successful")
	writeJSON(w, http.StatusOK, UserResponse{User: *user})
}

// Logout revokes the session and clears the cookie. Calling it without a
// session, or twice, still returns 200.
func (r *Router) Logout(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)

	token, err := cookie.GetToken(req, r.service.CookieSecret())
	if err == nil {
		if err := r.service.Logout(ctx, token); err != nil {
			logger.Error().Err(err).Msg("Logout failed")
			writeError(w, err)
			return
		}
	}

	cookie.Clear(w)
	w.WriteHeader(http.StatusOK)
}

// Me returns the current user resolved by RequireSession.
func (r *Router) Me(w http.ResponseWriter, req *http.Request) {
	user := UserFromContext(req.Context())
	if user == nil {
		writeError(w, ErrSessionInvalid)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: *user})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the error taxonomy onto HTTP statuses. Anything outside
// the taxonomy is a storage or crypto failure that must not leak detail to
// the client.
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *ValidationError
		conflictErr   *ConflictError
		authErr       *AuthenticationError
	)
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: validationErr.Message, Field: validationErr.Field})
	case errors.As(err, &conflictErr):
		writeJSON(w, http.StatusConflict, ErrorResponse{Message: conflictErr.Message, Field: conflictErr.Field})
	case errors.As(err, &authErr):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Message: authErr.Message})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "internal server error"})
	}
}

package http

import (
	"encoding/json"
	"net/http"
	"time"

	"bookfinder/internal/authsession"
	"bookfinder/internal/entity"
	"bookfinder/internal/httpx"
	"bookfinder/internal/platform/crypto"
)

// sessionTokenHeader carries the opaque session token for logout and
// session checks; the short-lived JWT in Authorization is derived from it
// at login time.
const sessionTokenHeader = "X-Session-Token"

const accessTokenTTL = 15 * time.Minute

type AuthHandler struct {
	service *authsession.Service
	secret  string
}

func NewAuthHandler(service *authsession.Service, secret string) *AuthHandler {
	return &AuthHandler{service: service, secret: secret}
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Username string `json:"username" validate:"omitempty,min=2,max=40"`
}

type sessionResponse struct {
	User         entity.User `json:"user"`
	AccessToken  string      `json:"access_token"`
	SessionToken string      `json:"session_token"`
	ExpiresIn    int         `json:"expires_in"`
}

func (h *AuthHandler) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var input credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return input, false
	}
	if details := ValidateStruct(input); len(details) > 0 {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return input, false
	}
	return input, true
}

func (h *AuthHandler) respondWithSession(w http.ResponseWriter, user entity.User, sessionToken string, created bool) {
	accessToken, _, err := crypto.GenerateToken(h.secret, user.ID, accessTokenTTL)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	resp := sessionResponse{
		User:         user,
		AccessToken:  accessToken,
		SessionToken: sessionToken,
		ExpiresIn:    int(accessTokenTTL.Seconds()),
	}
	if created {
		httpx.JSONSuccessCreated(w, resp)
		return
	}
	httpx.JSONSuccess(w, resp, nil)
}

// Register serves POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	user, token, err := h.service.Register(r.Context(), input.Email, input.Password, input.Username, r.UserAgent())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondWithSession(w, user, token, true)
}

// Login serves POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	user, token, err := h.service.Login(r.Context(), input.Email, input.Password, r.UserAgent())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondWithSession(w, user, token, false)
}

// Logout serves POST /auth/logout, closing the session named by the
// X-Session-Token header.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(sessionTokenHeader)
	if token == "" {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Missing "+sessionTokenHeader+" header", nil)
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSONSuccess(w, nil, map[string]string{"message": "Logged out successfully"})
}

// Session serves GET /auth/session: it resolves the session token to its
// user, or reports an anonymous session. Absence is a normal answer, not an
// error, so the endpoint is safe to poll.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	user, ok, err := h.service.Check(r.Context(), r.Header.Get(sessionTokenHeader))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !ok {
		httpx.JSONSuccess(w, map[string]interface{}{"authenticated": false}, nil)
		return
	}

	accessToken, _, err := crypto.GenerateToken(h.secret, user.ID, accessTokenTTL)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, map[string]interface{}{
		"authenticated": true,
		"user":          user,
		"access_token":  accessToken,
	}, nil)
}

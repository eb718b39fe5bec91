package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strconv"

	"pricelist/internal/auth"
	"pricelist/internal/ratelimit"
)

type authHandler struct {
	Service *auth.Service
	Logger  *slog.Logger
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLogin(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid login request")
		return
	}
	token, err := h.Service.Login(r.Context(), req.Username, req.Password, clientIP(r))
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// decodeLogin accepts both a JSON body and an OAuth2 password-style form.
func decodeLogin(r *http.Request) (loginRequest, error) {
	var req loginRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, err
		}
	}
	if req.Username == "" || req.Password == "" {
		return req, errors.New("username and password are required")
	}
	return req, nil
}

func (h *authHandler) register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	u, err := h.Service.Register(r.Context(), in, clientIP(r))
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *authHandler) me(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *authHandler) writeAuthError(w http.ResponseWriter, err error) {
	var tooMany *auth.TooManyAttemptsError
	switch {
	case errors.As(err, &tooMany):
		secs := ratelimit.RetryAfterSeconds(tooMany.RetryAfter)
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"detail":      "too many attempts, try again later",
			"retry_after": secs,
		})
	case errors.Is(err, auth.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "incorrect username or password")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, http.StatusForbidden, "invalid invite code")
	case errors.Is(err, auth.ErrConflict):
		writeError(w, http.StatusConflict, "username or email already registered")
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input")
	default:
		h.Logger.Error("auth request", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// clientIP is the host part of the connection's remote address. Forwarding
// headers are ignored since any client can set them.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

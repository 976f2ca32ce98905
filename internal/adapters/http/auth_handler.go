package http

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthHandler issues operator tokens for the local API.
type AuthHandler struct {
	jwtSecret []byte
	ttl       time.Duration
	username  string
	password  string
	logger    *slog.Logger
}

// NewAuthHandler creates a new AuthHandler instance. Logins are refused while
// no operator password is configured.
func NewAuthHandler(logger *slog.Logger, jwtSecret string, ttl time.Duration, username, password string) *AuthHandler {
	return &AuthHandler{
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		username:  username,
		password:  password,
		logger:    logger,
	}
}

// LoginRequest - structure for login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse - structure for response with token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest, h.logger)
		return
	}

	if h.password == "" || !h.matches(req.Username, req.Password) {
		h.logger.Warn("operator login rejected", "username", req.Username)
		writeJSONError(w, "Invalid credentials", http.StatusUnauthorized, h.logger)
		return
	}

	now := time.Now()
	expires := now.Add(h.ttl)
	claims := jwt.MapClaims{
		"sub":   req.Username,
		"roles": []string{"operator"},
		"exp":   expires.Unix(),
		"iat":   now.Unix(),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
	if err != nil {
		h.logger.Error("failed to sign token", "error", err)
		writeJSONError(w, "Failed to generate token", http.StatusInternalServerError, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: tokenString, ExpiresAt: expires.UTC()}, h.logger)
}

func (h *AuthHandler) matches(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(h.password)) == 1
	return userOK && passOK
}

package adaptor

import (
	"errors"
	"io"
	"net"
	"net/http"

	"pizza-delivery/internal/dto/request"
	"pizza-delivery/internal/usecase"
	"pizza-delivery/pkg/utils"

	"go.uber.org/zap"
)

type AuthHandler struct {
	service usecase.AuthService
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		log:     log.With(zap.String("handler", "auth")),
	}
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req request.SignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.Signup(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "signup")
		return
	}

	utils.ResponseCreated(w, "Signup successful", user)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	meta := usecase.ClientMeta{
		UserAgent: r.UserAgent(),
		IPAddress: clientIP(r),
	}

	resp, err := h.service.Login(r.Context(), &req, meta)
	if err != nil {
		writeServiceError(w, h.log, err, "login")
		return
	}

	utils.ResponseSuccess(w, "Login successful", resp)
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req request.RefreshRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.Refresh(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "refresh")
		return
	}

	utils.ResponseSuccess(w, "Token refreshed", resp)
}

// Logout handles POST /auth/logout. The body is optional.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := utils.GetIdentityFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.LogoutRequest
	if err := utils.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.service.Logout(r.Context(), identity, &req); err != nil {
		writeServiceError(w, h.log, err, "logout")
		return
	}

	utils.ResponseSuccess(w, "Logout successful", nil)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

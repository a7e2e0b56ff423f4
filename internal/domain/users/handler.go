package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-adoption/internal/middleware"
	"pet-adoption/internal/ports/auth"
	"pet-adoption/internal/ports/notify"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /auth. limit envuelve los endpoints sensibles a fuerza bruta (puede ser nil).
func RegisterRoutes(r chi.Router, svc *Service, limit func(http.Handler) http.Handler) {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/auth", func(ar chi.Router) {
		ar.Group(func(pub chi.Router) {
			pub.Use(limit)

			pub.Post("/register", registerHandler(svc))
			pub.Post("/login", loginHandler(svc))
			pub.Post("/forgot-password", forgotPasswordHandler(svc))
			pub.Post("/reset-password/{token}", resetPasswordHandler(svc))
		})

		ar.Group(func(priv chi.Router) {
			priv.Use(middleware.RequireAuth)

			priv.Get("/me", meHandler(svc))
			priv.Post("/logout", logoutHandler())
		})
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Password string `json:"password"`
}

// userResponse nunca expone hash ni token de reseteo.
type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func registerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		sess, err := svc.Register(r.Context(), RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "User registered successfully",
			"user":    toUserResponse(sess.User),
			"token":   sess.Token,
		})
	}
}

func loginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		sess, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Login successful",
			"user":    toUserResponse(sess.User),
			"token":   sess.Token,
		})
	}
}

func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		u, err := svc.GetByID(r.Context(), claims.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(u)})
	}
}

// Logout es stateless: el cliente descarta el token.
func logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Logout successful"})
	}
}

func forgotPasswordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forgotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		if _, err := svc.ForgotPassword(r.Context(), req.Email); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "If an account exists with this email, a password reset link has been sent.",
		})
	}
}

func resetPasswordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		if err := svc.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Password has been reset successfully. You can now login with your new password.",
		})
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, inputMessage(err))
	case errors.Is(err, ErrEmailTaken):
		writeError(w, http.StatusConflict, "An account with this email already exists. Please login instead.")
	case errors.Is(err, ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, ErrInvalidResetToken):
		writeError(w, http.StatusBadRequest, "Invalid or expired reset token. Please request a new password reset.")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, notify.ErrDeliveryFailed):
		writeError(w, http.StatusInternalServerError, "Failed to process password reset request")
	default:
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

// inputMessage quita el prefijo del sentinel: "invalid input: x" => "X".
func inputMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), ErrInvalidInput.Error()+": ")
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

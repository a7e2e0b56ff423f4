package applications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-adoption/internal/middleware"
	"pet-adoption/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/applications", func(ar chi.Router) {
		ar.Use(middleware.RequireAuth)

		ar.Get("/my", listMyApplicationsHandler(svc))
		ar.Post("/", submitApplicationHandler(svc))
		ar.Delete("/{applicationID}", deleteApplicationHandler(svc))

		// Admin
		ar.Group(func(adm chi.Router) {
			adm.Use(middleware.RequireRole(auth.RoleAdmin))

			adm.Get("/", listAllApplicationsHandler(svc))
			adm.Get("/pet/{petID}", listPetApplicationsHandler(svc))
			adm.Patch("/{applicationID}/status", reviewApplicationHandler(svc))
		})
	})
}

type submitRequest struct {
	PetID   string `json:"petId"`
	Message string `json:"message"`
}

type reviewRequest struct {
	Status Status `json:"status"`
}

type applicationResponse struct {
	ID             string    `json:"id"`
	PetID          string    `json:"petId"`
	PetName        string    `json:"petName"`
	UserID         string    `json:"userId"`
	UserName       string    `json:"userName"`
	UserEmail      string    `json:"userEmail"`
	Message        string    `json:"message"`
	Status         Status    `json:"status"`
	ReviewedBy     string    `json:"reviewedBy,omitempty"`
	ReviewedByName string    `json:"reviewedByName,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func listAllApplicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListAll(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"applications": toResponses(items)})
	}
}

func listMyApplicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		items, err := svc.ListByUser(r.Context(), claims.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"applications": toResponses(items)})
	}
}

func listPetApplicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID := chi.URLParam(r, "petID")
		if _, err := uuid.Parse(petID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid pet ID format")
			return
		}

		items, err := svc.ListByPet(r.Context(), petID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"applications": toResponses(items)})
	}
}

func submitApplicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		req.PetID = strings.TrimSpace(req.PetID)
		if req.PetID != "" {
			if _, err := uuid.Parse(req.PetID); err != nil {
				writeError(w, http.StatusBadRequest, "invalid pet ID format")
				return
			}
		}

		a, err := svc.Submit(r.Context(), claims.UserID, req.PetID, req.Message)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"message":     "Application submitted successfully",
			"application": toResponse(a),
		})
	}
}

func reviewApplicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		id, ok := applicationIDParam(w, r)
		if !ok {
			return
		}

		var req reviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Status != StatusApproved && req.Status != StatusRejected {
			writeError(w, http.StatusBadRequest, "valid status is required (Approved or Rejected)")
			return
		}

		a, err := svc.Review(r.Context(), id, claims.UserID, req.Status)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message":     "Application status updated successfully",
			"application": toResponse(a),
		})
	}
}

func deleteApplicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		id, ok := applicationIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), id, claims); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Application deleted successfully"})
	}
}

func applicationIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "applicationID")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid application ID format")
		return "", false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Pet ID and message are required")
	case errors.Is(err, ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "valid status is required (Approved or Rejected)")
	case errors.Is(err, ErrPetNotFound):
		writeError(w, http.StatusNotFound, "Pet not found")
	case errors.Is(err, ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, ErrApplicationNotFound):
		writeError(w, http.StatusNotFound, "Application not found")
	case errors.Is(err, ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "Not authorized to delete this application")
	case errors.Is(err, ErrPetAdopted),
		errors.Is(err, ErrAlreadyAdopted),
		errors.Is(err, ErrDuplicateRejected),
		errors.Is(err, ErrAlreadyApproved),
		errors.Is(err, ErrAlreadyPending),
		errors.Is(err, ErrDecisionFinal):
		writeError(w, http.StatusConflict, capitalize(err.Error()))
	default:
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func toResponses(items []Application) []applicationResponse {
	out := make([]applicationResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toResponse(a))
	}
	return out
}

func toResponse(a Application) applicationResponse {
	return applicationResponse{
		ID:             a.ID,
		PetID:          a.PetID,
		PetName:        a.PetName,
		UserID:         a.UserID,
		UserName:       a.UserName,
		UserEmail:      a.UserEmail,
		Message:        a.Message,
		Status:         a.Status,
		ReviewedBy:     a.ReviewedBy,
		ReviewedByName: a.ReviewedByName,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
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

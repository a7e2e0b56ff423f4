package pets

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-adoption/internal/middleware"
	"pet-adoption/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		// Catálogo público
		pr.Get("/", listPetsHandler(svc))
		pr.Get("/{petID}", getPetHandler(svc))

		// Admin
		pr.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireAuth)
			ar.Use(middleware.RequireRole(auth.RoleAdmin))

			ar.Post("/", createPetHandler(svc))
			ar.Put("/{petID}", updatePetHandler(svc))
			ar.Delete("/{petID}", deletePetHandler(svc))
		})
	})
}

type createPetRequest struct {
	Name        string   `json:"name"`
	Species     string   `json:"species"`
	Breed       string   `json:"breed"`
	Age         *float64 `json:"age"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
}

type updatePetRequest struct {
	Name        *string  `json:"name"`
	Species     *string  `json:"species"`
	Breed       *string  `json:"breed"`
	Age         *float64 `json:"age"`
	Description *string  `json:"description"`
	Image       *string  `json:"image"`

	// Solo para rechazarlo explícitamente.
	Status *string `json:"status"`
}

type petResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Species     string    `json:"species"`
	Breed       string    `json:"breed"`
	Age         float64   `json:"age"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		items, err := svc.List(r.Context(), ListFilter{
			Species: strings.TrimSpace(q.Get("species")),
			Breed:   strings.TrimSpace(q.Get("breed")),
			Status:  Status(strings.TrimSpace(q.Get("status"))),
			Query:   strings.TrimSpace(q.Get("q")),
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		writeJSON(w, http.StatusOK, map[string]any{"pets": out})
	}
}

func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := petIDParam(w, r)
		if !ok {
			return
		}

		p, err := svc.Get(r.Context(), petID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pet": toPetResponse(p)})
	}
}

func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		p, err := svc.Create(r.Context(), CreateInput{
			Name:        req.Name,
			Species:     req.Species,
			Breed:       req.Breed,
			Age:         req.Age,
			Description: req.Description,
			Image:       req.Image,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "Pet created successfully",
			"pet":     toPetResponse(p),
		})
	}
}

func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := petIDParam(w, r)
		if !ok {
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updatePetRequest
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Status != nil {
			writeError(w, http.StatusBadRequest, "pet status is derived from its applications and cannot be set directly")
			return
		}

		p, err := svc.Update(r.Context(), petID, UpdateInput{
			Name:        req.Name,
			Species:     req.Species,
			Breed:       req.Breed,
			Age:         req.Age,
			Description: req.Description,
			Image:       req.Image,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Pet updated successfully",
			"pet":     toPetResponse(p),
		})
	}
}

func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := petIDParam(w, r)
		if !ok {
			return
		}

		p, purged, err := svc.Delete(r.Context(), petID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		msg := fmt.Sprintf("Pet %q deleted successfully", p.Name)
		if purged > 0 {
			msg += fmt.Sprintf(" along with %d related application(s)", purged)
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": msg})
	}
}

func petIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	petID := chi.URLParam(r, "petID")
	if _, err := uuid.Parse(petID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid pet ID format")
		return "", false
	}
	return petID, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, inputMessage(err))
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "Pet not found")
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

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:          p.ID,
		Name:        p.Name,
		Species:     p.Species,
		Breed:       p.Breed,
		Age:         p.Age,
		Description: p.Description,
		Image:       p.Image,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// writeJSON se repite en cada módulo; no hay paquete compartido de helpers HTTP.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

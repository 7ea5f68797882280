package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dkurilov/persona-service/internal/persona"
	"github.com/dkurilov/persona-service/internal/repository"
	"github.com/dkurilov/persona-service/internal/service"
	"github.com/dkurilov/persona-service/internal/simulator"
	"github.com/gorilla/mux"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	user, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Classify runs a classification for the user and returns the new assignment.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorizedUserID(w, r)
	if !ok {
		return
	}

	assignment, err := h.svc.ClassifyUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

// GetPersona returns the user's current persona assignment.
func (h *Handler) GetPersona(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorizedUserID(w, r)
	if !ok {
		return
	}

	assignment, err := h.svc.CurrentPersona(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

// GetTimeline returns the month-by-month persona history.
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorizedUserID(w, r)
	if !ok {
		return
	}

	months := 0
	if raw := r.URL.Query().Get("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "months must be a positive integer")
			return
		}
		months = parsed
	}

	entries, summary, err := h.svc.Timeline(r.Context(), userID, months)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"timeline": entries,
		"summary":  summary,
	})
}

// GetDebtPlan returns the avalanche/snowball payoff comparison.
func (h *Handler) GetDebtPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorizedUserID(w, r)
	if !ok {
		return
	}

	surplus := 0.0
	if raw := r.URL.Query().Get("surplus"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "surplus must be a non-negative number")
			return
		}
		surplus = parsed
	}

	comparison, err := h.svc.DebtPlan(r.Context(), userID, surplus)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comparison)
}

// GetRecommendations returns the ordered recommendation list.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorizedUserID(w, r)
	if !ok {
		return
	}

	items, err := h.svc.Recommendations(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"recommendations": items})
}

// authorizedUserID parses the path user id and checks it against the
// authenticated subject.
func (h *Handler) authorizedUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}

	subject, ok := r.Context().Value("userID").(string)
	if !ok || subject == "" {
		writeError(w, http.StatusUnauthorized, "missing authentication")
		return 0, false
	}
	if subject != strconv.FormatInt(userID, 10) {
		writeError(w, http.StatusForbidden, "token does not match requested user")
		return 0, false
	}
	return userID, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, persona.ErrUnclassifiable):
		writeError(w, http.StatusUnprocessableEntity, "no persona rule-set matched")
	case errors.Is(err, service.ErrNoAssignment):
		writeError(w, http.StatusNotFound, "user has no persona assignment")
	case errors.Is(err, service.ErrNoDebtAccounts):
		writeError(w, http.StatusNotFound, "user has no open debt accounts")
	case errors.Is(err, simulator.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, simulator.ErrSimulationDivergent):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

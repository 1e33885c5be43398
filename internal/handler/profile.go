package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rslater/leadscout/internal/model"
	"github.com/rslater/leadscout/internal/provision"
	"github.com/rslater/leadscout/internal/store"
)

type ProfileHandler struct {
	provisioner *provision.Service
	profiles    *store.ProfileStore
	logger      *slog.Logger
}

func NewProfileHandler(p *provision.Service, ps *store.ProfileStore, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{provisioner: p, profiles: ps, logger: logger}
}

// Get returns the company profile, or an empty one if the user has not
// filled it in yet.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := h.user(w, r)
	if user == nil {
		return
	}

	profile, err := h.profiles.GetByUserID(user.ID)
	if err != nil {
		h.logger.Error("get profile", "user_id", user.ID, "error", err)
		http.Error(w, "something went wrong, please retry", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		profile = &model.CompanyProfile{UserID: user.ID}
	}
	writeJSON(w, http.StatusOK, profile)
}

type profileRequest struct {
	CompanyName string `json:"company_name"`
	Industry    string `json:"industry"`
	Website     string `json:"website"`
	Description string `json:"description"`
}

// Put creates or replaces the company profile.
func (h *ProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	user := h.user(w, r)
	if user == nil {
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	if req.CompanyName == "" {
		http.Error(w, "company name is required", http.StatusBadRequest)
		return
	}

	profile, err := h.profiles.Upsert(user.ID, req.CompanyName, req.Industry, req.Website, req.Description)
	if err != nil {
		h.logger.Error("upsert profile", "user_id", user.ID, "error", err)
		http.Error(w, "something went wrong, please retry", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) user(w http.ResponseWriter, r *http.Request) *model.User {
	id := IdentityFromContext(r.Context())
	if id == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil
	}
	user, err := h.provisioner.Ensure(r.Context(), id)
	if err != nil {
		h.logger.Error("provision user", "clerk_id", id.Subject, "error", err)
		http.Error(w, "something went wrong, please retry", http.StatusInternalServerError)
		return nil
	}
	return user
}

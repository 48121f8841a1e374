package provisioning

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router mounts the provisioning HTTP surface:
//
//	POST /provision     - consume an invitation and create a tenant (public, token-gated)
//	POST /invitations   - issue a new invitation (mount behind admin auth)
//	GET  /invitations   - list pending invitations (mount behind admin auth)
func Router(svc *Service, log *slog.Logger) chi.Router {
	if log == nil {
		log = slog.Default()
	}
	h := &handler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Post("/provision", h.provision)
	r.Post("/invitations", h.createInvitation)
	r.Get("/invitations", h.listInvitations)
	return r
}

type handler struct {
	svc *Service
	log *slog.Logger
}

type inviteRequest struct {
	Email string `json:"email"`
	Label string `json:"label"`
}

func (h *handler) provision(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}

	res, err := h.svc.Provision(r.Context(), req)
	if err != nil {
		h.writeProvisionError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func (h *handler) createInvitation(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	inv, err := h.svc.Invite(r.Context(), req.Email, req.Label)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to issue invitation", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to issue invitation")
		return
	}

	writeJSON(w, http.StatusCreated, inv)
}

func (h *handler) listInvitations(w http.ResponseWriter, r *http.Request) {
	invs, err := h.svc.PendingInvitations(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to list invitations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to list invitations")
		return
	}

	writeJSON(w, http.StatusOK, invs)
}

// writeProvisionError maps the typed provisioning failures onto HTTP status
// codes with a machine-readable code so callers can decide between retrying
// with a different label, retrying after backoff, or giving up.
func (h *handler) writeProvisionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidToken):
		writeError(w, http.StatusForbidden, "invalid_token", "invitation token is invalid, expired, or already used")
	case errors.Is(err, ErrInvalidName):
		writeError(w, http.StatusUnprocessableEntity, "invalid_name", "organization label yields no valid database name")
	case errors.Is(err, ErrNameConflict):
		writeError(w, http.StatusConflict, "name_conflict", "organization name is already taken; adjust the label and retry")
	case errors.Is(err, ErrProvisioningFailed):
		h.log.ErrorContext(r.Context(), "tenant provisioning failed", "error", err)
		writeError(w, http.StatusBadGateway, "provisioning_failed", "tenant provisioning failed; retry later")
	default:
		h.log.ErrorContext(r.Context(), "unexpected provisioning error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

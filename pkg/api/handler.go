package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/auth"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/guardian"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/identity"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/models"
	"github.com/amansahu205/ETH-GLOBAL-NYC-2025/pkg/revoke"
)

// MetricsRecorder is an interface for recording action metrics
type MetricsRecorder interface {
	RecordAction(action, result string)
}

// Handler exposes the recovery core over HTTP.
type Handler struct {
	controller      *guardian.Controller
	revoker         *revoke.Revoker
	wallet          guardian.SignerTarget
	stepupSecret    string
	metricsRecorder MetricsRecorder
}

// NewHandler creates a new API handler.
func NewHandler(controller *guardian.Controller, revoker *revoke.Revoker, wallet guardian.SignerTarget) *Handler {
	return &Handler{
		controller: controller,
		revoker:    revoker,
		wallet:     wallet,
	}
}

// SetStepupSecret configures the shared secret the step-up check compares
// against. Empty means the check is a stub that always passes.
func (h *Handler) SetStepupSecret(secret string) {
	h.stepupSecret = secret
}

// SetMetricsRecorder sets the metrics recorder for the handler
func (h *Handler) SetMetricsRecorder(recorder MetricsRecorder) {
	h.metricsRecorder = recorder
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Guardian registry routes
	r.HandleFunc("/guardians", h.SetGuardian).Methods("POST")
	r.HandleFunc("/guardians", h.ListGuardians).Methods("GET")
	r.HandleFunc("/signer", h.GetSigner).Methods("GET")

	// Emergency action routes
	r.HandleFunc("/actions/rotate", h.RotateSigner).Methods("POST")
	r.HandleFunc("/actions/revoke", h.RevokeAllowances).Methods("POST")
	r.HandleFunc("/actions/revoke-operator", h.RevokeOperatorApprovals).Methods("POST")

	// Other routes
	r.HandleFunc("/identity/stepup", h.Stepup).Methods("POST")
	r.HandleFunc("/health", h.Health).Methods("GET")
}

func (h *Handler) recordAction(action string, err error) {
	if h.metricsRecorder == nil {
		return
	}
	if err != nil {
		h.metricsRecorder.RecordAction(action, "failure")
		return
	}
	h.metricsRecorder.RecordAction(action, "success")
}

// statusFor maps core errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidSigner), errors.Is(err, models.ErrLengthMismatch):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrExternalCallFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]interface{}{
		"error": err.Error(),
	})
}

func callerOrFail(w http.ResponseWriter, r *http.Request) (models.Address, bool) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusForbidden, models.ErrUnauthorized)
		return "", false
	}
	return caller, true
}

// SetGuardian upserts one guardian registry entry. Owner only, and no
// event is published for the change.
func (h *Handler) SetGuardian(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}

	var req models.GuardianRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	addr, err := models.ParseAddress(req.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.controller.SetGuardian(r.Context(), caller, addr, req.Active); err != nil {
		log.Printf("Failed to set guardian %s: %v", addr, err)
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address": addr,
		"active":  req.Active,
	})
}

// ListGuardians returns the full guardian registry.
func (h *Handler) ListGuardians(w http.ResponseWriter, r *http.Request) {
	guardians, err := h.controller.Guardians(r.Context())
	if err != nil {
		log.Printf("Failed to list guardians: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if guardians == nil {
		guardians = []models.Guardian{}
	}
	writeJSON(w, http.StatusOK, guardians)
}

// GetSigner returns the current wallet signer.
func (h *Handler) GetSigner(w http.ResponseWriter, r *http.Request) {
	signer, err := h.wallet.CurrentSigner(r.Context())
	if err != nil {
		log.Printf("Failed to read signer: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"signer": signer,
	})
}

// RotateSigner replaces the wallet signer on behalf of the caller.
func (h *Handler) RotateSigner(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}

	var req models.RotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// A malformed address is an invalid signer, same as the zero address.
	newSigner, err := models.ParseAddress(req.NewSigner)
	if err != nil {
		h.recordAction("rotate", models.ErrInvalidSigner)
		writeError(w, http.StatusBadRequest, models.ErrInvalidSigner)
		return
	}

	event, err := h.controller.RotateSigner(r.Context(), caller, newSigner)
	h.recordAction("rotate", err)
	if err != nil {
		log.Printf("Signer rotation by %s failed: %v", caller, err)
		writeError(w, statusFor(err), err)
		return
	}

	log.Printf("Signer rotated to %s by %s", event.NewSigner, event.Caller)
	writeJSON(w, http.StatusOK, event)
}

// RevokeAllowances clears a batch of fungible allowances atomically.
func (h *Handler) RevokeAllowances(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, caller, "revoke") {
		return
	}

	var req models.RevokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Tokens) != len(req.Spenders) {
		h.recordAction("revoke", models.ErrLengthMismatch)
		writeError(w, http.StatusBadRequest, models.ErrLengthMismatch)
		return
	}

	tokens, err := parseAddresses(req.Tokens)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	spenders, err := parseAddresses(req.Spenders)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err = h.revoker.RevokeAllowances(r.Context(), tokens, spenders)
	h.recordAction("revoke", err)
	if err != nil {
		log.Printf("Allowance revocation by %s failed: %v", caller, err)
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"revoked": len(tokens),
	})
}

// RevokeOperatorApprovals clears blanket operator approvals atomically.
func (h *Handler) RevokeOperatorApprovals(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, caller, "revoke_operator") {
		return
	}

	var req models.RevokeOperatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	operator, err := models.ParseAddress(req.Operator)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	erc721s, err := parseAddresses(req.ERC721s)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	erc1155s, err := parseAddresses(req.ERC1155s)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err = h.revoker.RevokeOperatorApprovals(r.Context(), operator, erc721s, erc1155s)
	h.recordAction("revoke_operator", err)
	if err != nil {
		log.Printf("Operator revocation by %s failed: %v", caller, err)
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"operator": operator,
		"revoked":  len(erc721s) + len(erc1155s),
	})
}

// Stepup performs the step-up identity check.
func (h *Handler) Stepup(w http.ResponseWriter, r *http.Request) {
	var req models.StepupRequest
	if r.Body != nil {
		// Body is optional for the stub flow.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if h.stepupSecret != "" && !auth.SecureCompare(req.OTP, h.stepupSecret) {
		writeError(w, http.StatusForbidden, models.ErrUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok": true,
	})
}

// Health handles health checks
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// authorize enforces the owner-or-active-guardian predicate, read fresh
// on every call.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, caller models.Address, action string) bool {
	authorized, err := h.controller.IsAuthorized(r.Context(), caller)
	if err != nil {
		log.Printf("Failed to check authorization for %s: %v", caller, err)
		writeError(w, http.StatusInternalServerError, err)
		return false
	}
	if !authorized {
		h.recordAction(action, models.ErrUnauthorized)
		writeError(w, http.StatusForbidden, models.ErrUnauthorized)
		return false
	}
	return true
}

func parseAddresses(raw []string) ([]models.Address, error) {
	addrs := make([]models.Address, 0, len(raw))
	for _, s := range raw {
		addr, err := models.ParseAddress(s)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

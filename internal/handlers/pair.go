package handlers

import (
	"net/http"

	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// PairHandler handles partner linking HTTP requests
type PairHandler struct {
	callerResolver
	pairService *services.PairService
}

// NewPairHandler creates a new pair handler
func NewPairHandler(pairService *services.PairService, resolver *identity.Resolver) *PairHandler {
	return &PairHandler{
		callerResolver: callerResolver{resolver: resolver},
		pairService:    pairService,
	}
}

// CreatePair handles POST /api/v1/pairs
func (h *PairHandler) CreatePair(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req services.CreatePairRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	partner, err := h.pairService.CreatePair(r.Context(), caller, req.PartnerCode)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	log.Info().
		Str("user_id", caller.SelfID()).
		Str("partner_id", partner.ID).
		Msg("Pair created")

	respondJSON(w, http.StatusCreated, partner)
}

// DeletePair handles DELETE /api/v1/pairs
func (h *PairHandler) DeletePair(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.pairService.DeletePair(r.Context(), caller); err != nil {
		respondAppError(w, r, err)
		return
	}

	log.Info().
		Str("user_id", caller.SelfID()).
		Str("partner_id", caller.PartnerID()).
		Msg("Pair deleted")

	w.WriteHeader(http.StatusNoContent)
}

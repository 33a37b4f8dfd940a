package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/xavierca1/leadfeed/internal/infra/http/middleware"
	"github.com/xavierca1/leadfeed/internal/usecase"
)

// ConversationSyncer is the slice of the sync use case the handler needs.
type ConversationSyncer interface {
	Execute(ctx context.Context, leadID string) (*usecase.SyncConversationsOutput, error)
}

type SyncHandler struct {
	Syncer ConversationSyncer
}

func NewSyncHandler(syncer ConversationSyncer) *SyncHandler {
	return &SyncHandler{Syncer: syncer}
}

// Handle serves POST /leads/sync?lead_id=. Vendor-side problems (missing
// credentials, unresolvable identity) come back as 200 no-ops with an
// explanation, never as 5xx.
func (h *SyncHandler) Handle(w http.ResponseWriter, r *http.Request) {
	leadID := r.URL.Query().Get("lead_id")
	if leadID == "" {
		respondError(w, http.StatusBadRequest, "Missing lead_id")
		return
	}

	out, err := h.Syncer.Execute(r.Context(), leadID)
	if err != nil {
		if usecase.IsNotFoundError(err) {
			respondError(w, http.StatusNotFound, "Lead not found")
			return
		}
		log.Printf("[sync] Sync failed for lead %s: %v", leadID, err)
		respondError(w, http.StatusInternalServerError, "Sync failed")
		return
	}

	middleware.RecordMessagesSynced(out.Synced)
	respondJSON(w, http.StatusOK, out)
}

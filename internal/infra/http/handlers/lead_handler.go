package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/xavierca1/leadfeed/internal/entity"
)

type LeadHandler struct {
	Leads entity.LeadRepositoryInterface
}

func NewLeadHandler(leads entity.LeadRepositoryInterface) *LeadHandler {
	return &LeadHandler{Leads: leads}
}

// HandleList serves GET /leads?stage=. The lead_feed filter includes expired
// snoozes and opportunistically persists their promotion first; the snoozed
// filter excludes them.
func (h *LeadHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	var stage *entity.LeadStage
	if s := r.URL.Query().Get("stage"); s != "" {
		parsed := entity.LeadStage(s)
		if !parsed.Valid() {
			respondError(w, http.StatusBadRequest, "Invalid stage: "+s)
			return
		}
		stage = &parsed
	}

	if stage != nil && *stage == entity.StageLeadFeed {
		promoted, err := h.Leads.PromoteExpired(r.Context(), now)
		if err != nil {
			log.Printf("[leads] Expired snooze promotion failed: %v", err)
		} else if promoted > 0 {
			log.Printf("[leads] Promoted %d expired snoozes back to the feed", promoted)
		}
	}

	leads, err := h.Leads.List(r.Context(), stage, now)
	if err != nil {
		log.Printf("[leads] List failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch leads")
		return
	}
	if leads == nil {
		leads = []*entity.Lead{}
	}
	respondJSON(w, http.StatusOK, leads)
}

type patchLeadRequest struct {
	ID string `json:"id"`
	entity.LeadUpdate
}

// HandlePatch serves PATCH /leads. Setting any stage other than snoozed
// clears snoozed_until in the same write.
func (h *LeadHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	var req patchLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ID == "" {
		respondError(w, http.StatusBadRequest, "Missing lead id")
		return
	}

	if req.Stage != nil {
		if !req.Stage.Valid() {
			respondError(w, http.StatusBadRequest, "Invalid stage: "+string(*req.Stage))
			return
		}
		if *req.Stage == entity.StageSnoozed {
			if req.SnoozedUntil == nil || !req.SnoozedUntil.After(time.Now()) {
				respondError(w, http.StatusBadRequest, "Snoozing requires a future snoozed_until")
				return
			}
		} else {
			req.SnoozedUntil = nil
			req.ClearSnooze = true
		}
	}

	lead, err := h.Leads.Update(r.Context(), req.ID, req.LeadUpdate)
	if err != nil {
		log.Printf("[leads] Update failed for %s: %v", req.ID, err)
		respondError(w, http.StatusInternalServerError, "Failed to update lead")
		return
	}
	if lead == nil {
		respondError(w, http.StatusNotFound, "Lead not found")
		return
	}
	respondJSON(w, http.StatusOK, lead)
}

// HandleCounts serves GET /leads/counts with the same expired-snooze
// reclassification as the list.
func (h *LeadHandler) HandleCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Leads.CountByStage(r.Context(), time.Now())
	if err != nil {
		log.Printf("[leads] Counts failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch counts")
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/xavierca1/leadfeed/internal/entity"
)

type MessageHandler struct {
	Messages entity.MessageRepositoryInterface
	Leads    entity.LeadRepositoryInterface
}

func NewMessageHandler(messages entity.MessageRepositoryInterface, leads entity.LeadRepositoryInterface) *MessageHandler {
	return &MessageHandler{Messages: messages, Leads: leads}
}

// HandleList serves GET /messages?lead_id=, ordered by event timestamp.
func (h *MessageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	leadID := r.URL.Query().Get("lead_id")
	if leadID == "" {
		respondError(w, http.StatusBadRequest, "Missing lead_id parameter")
		return
	}

	msgs, err := h.Messages.ListByLead(r.Context(), leadID)
	if err != nil {
		log.Printf("[messages] List failed for lead %s: %v", leadID, err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}
	if msgs == nil {
		msgs = []*entity.Message{}
	}
	respondJSON(w, http.StatusOK, msgs)
}

type createMessageRequest struct {
	LeadID    string `json:"lead_id"`
	Content   string `json:"content"`
	Channel   string `json:"channel"`
	Direction string `json:"direction"`
	IsNote    bool   `json:"is_note"`
}

// HandleCreate serves POST /messages (user-composed notes and annotations)
// and bumps the lead's last_activity.
func (h *MessageHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.LeadID == "" || req.Content == "" {
		respondError(w, http.StatusBadRequest, "Missing required fields: lead_id, content")
		return
	}

	channel := entity.MessageChannel(req.Channel)
	if !channel.Valid() {
		channel = entity.ChannelLinkedIn
	}
	direction := entity.MessageDirection(req.Direction)
	if direction != entity.DirectionInbound {
		direction = entity.DirectionOutbound
	}

	msg := entity.NewMessage(req.LeadID, channel, direction, req.Content)
	msg.IsNote = req.IsNote

	if err := h.Messages.Create(r.Context(), msg); err != nil {
		log.Printf("[messages] Create failed for lead %s: %v", req.LeadID, err)
		respondError(w, http.StatusInternalServerError, "Failed to create message")
		return
	}

	if err := h.Leads.TouchActivity(r.Context(), req.LeadID, time.Now()); err != nil {
		log.Printf("[messages] Activity bump failed for lead %s: %v", req.LeadID, err)
	}

	respondJSON(w, http.StatusOK, msg)
}

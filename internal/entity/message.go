package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type MessageChannel string

const (
	ChannelLinkedIn MessageChannel = "linkedin"
	ChannelEmail    MessageChannel = "email"
	ChannelPhone    MessageChannel = "phone"
	ChannelText     MessageChannel = "text"
)

func (c MessageChannel) Valid() bool {
	switch c {
	case ChannelLinkedIn, ChannelEmail, ChannelPhone, ChannelText:
		return true
	}
	return false
}

type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

// Message is one conversation turn (or internal note) belonging to a lead.
// Timestamp is when the underlying event happened; CreatedAt is storage time.
// ExternalID is the vendor-assigned dedup key (gs_li_<uuid> / gs_em_<uuid>),
// nil for notes and user-composed messages.
type Message struct {
	ID         string           `json:"id"`
	LeadID     string           `json:"lead_id"`
	Channel    MessageChannel   `json:"channel"`
	Direction  MessageDirection `json:"direction"`
	Content    string           `json:"content"`
	IsNote     bool             `json:"is_note"`
	Timestamp  time.Time        `json:"timestamp"`
	CreatedAt  time.Time        `json:"created_at"`
	ExternalID *string          `json:"external_id"`
}

func NewMessage(leadID string, channel MessageChannel, direction MessageDirection, content string) *Message {
	now := time.Now()
	return &Message{
		ID:        uuid.New().String(),
		LeadID:    leadID,
		Channel:   channel,
		Direction: direction,
		Content:   content,
		Timestamp: now,
		CreatedAt: now,
	}
}

type MessageRepositoryInterface interface {
	ListByLead(ctx context.Context, leadID string) ([]*Message, error)
	Create(ctx context.Context, msg *Message) error
	// InsertBatch inserts as one statement; rows whose (lead_id, external_id)
	// already exist are skipped. Returns the number actually inserted.
	InsertBatch(ctx context.Context, msgs []*Message) (int64, error)
	// FindSyncedByLead returns the lead's messages carrying a non-null external_id.
	FindSyncedByLead(ctx context.Context, leadID string) ([]*Message, error)
	UpdateContent(ctx context.Context, id, content string) error
}

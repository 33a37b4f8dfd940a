package usecase

import (
	"context"
	"encoding/json"
	"log"
	"time"
	"unicode/utf8"

	"github.com/xavierca1/leadfeed/internal/entity"
	"github.com/xavierca1/leadfeed/internal/infra/queue"
)

const (
	webhookSource = "getsales_webhook"

	// Raw payload notes are capped so a pathological payload cannot bloat
	// the conversation view.
	rawNoteLimit = 3000
)

type IngestWebhookInput struct {
	RawPayload map[string]any
}

type IngestWebhookOutput struct {
	Success bool   `json:"success"`
	Action  string `json:"action"` // "created" | "updated"
	LeadID  string `json:"lead_id"`
}

// IngestWebhookUseCase normalizes an inbound GetSales.io webhook, matches it
// to an existing lead (LinkedIn URL first, then email) or creates one, and
// appends any conversation items the payload carried. A payload is never
// rejected for its shape.
type IngestWebhookUseCase struct {
	Leads    entity.LeadRepositoryInterface
	Messages entity.MessageRepositoryInterface
	Producer queue.SyncJobProducerInterface // optional
	Mailer   EmailService                   // optional
	AlertTo  string
}

func NewIngestWebhookUseCase(
	leads entity.LeadRepositoryInterface,
	messages entity.MessageRepositoryInterface,
	producer queue.SyncJobProducerInterface,
	mailer EmailService,
	alertTo string,
) *IngestWebhookUseCase {
	return &IngestWebhookUseCase{
		Leads:    leads,
		Messages: messages,
		Producer: producer,
		Mailer:   mailer,
		AlertTo:  alertTo,
	}
}

func (uc *IngestWebhookUseCase) Execute(ctx context.Context, input IngestWebhookInput) (*IngestWebhookOutput, error) {
	norm := NormalizePayload(input.RawPayload)
	now := time.Now()

	lead := uc.matchLead(ctx, norm)

	var action string
	if lead != nil {
		action = "updated"
		if err := uc.applyMatchedUpdate(ctx, lead, norm, now); err != nil {
			return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to update lead: " + err.Error()}
		}
	} else {
		action = "created"
		lead = uc.buildLead(norm)
		if err := uc.Leads.Create(ctx, lead); err != nil {
			return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to create lead: " + err.Error()}
		}
		log.Printf("[webhook] Created lead %s (%s %s)", lead.ID, lead.FirstName, lead.LastName)
	}

	uc.appendMessages(ctx, lead.ID, norm, now)
	uc.storeRawNote(ctx, lead.ID, input.RawPayload, now)

	// Side effects: conversation sync via the queue when we know the vendor
	// identity, operator alert mail on creation. Both are best-effort.
	uuid := norm.GetSalesUUID
	if uuid == "" && lead.GetSalesUUID != nil {
		uuid = *lead.GetSalesUUID
	}
	if uc.Producer != nil && uuid != "" {
		if err := uc.Producer.PublishSyncJob(ctx, queue.SyncJobPayload{
			LeadID: lead.ID,
			Origin: "WEBHOOK_GETSALES",
		}); err != nil {
			log.Printf("[webhook] Sync job publish failed for lead %s: %v", lead.ID, err)
		}
	}
	if action == "created" && uc.Mailer != nil && uc.AlertTo != "" {
		leadName := lead.FirstName + " " + lead.LastName
		company := norm.Company
		campaign := norm.CampaignName
		go func() {
			if err := uc.Mailer.SendLeadAlert(uc.AlertTo, leadName, company, campaign); err != nil {
				log.Printf("[webhook] Lead alert mail failed: %v", err)
			}
		}()
	}

	return &IngestWebhookOutput{Success: true, Action: action, LeadID: lead.ID}, nil
}

// matchLead resolves the normalized payload to an existing lead: exact match
// on linkedin_url first, then on email. Lookup failures are logged and
// treated as no-match so ingest always proceeds.
func (uc *IngestWebhookUseCase) matchLead(ctx context.Context, norm NormalizedLead) *entity.Lead {
	if norm.LinkedInURL != "" {
		lead, err := uc.Leads.FindByLinkedInURL(ctx, norm.LinkedInURL)
		if err != nil {
			log.Printf("[webhook] LinkedIn URL lookup failed: %v", err)
		} else if lead != nil {
			return lead
		}
	}
	if norm.Email != "" {
		lead, err := uc.Leads.FindByEmail(ctx, norm.Email)
		if err != nil {
			log.Printf("[webhook] Email lookup failed: %v", err)
		} else if lead != nil {
			return lead
		}
	}
	return nil
}

// applyMatchedUpdate merges the payload into an existing lead. Identity
// fields are additive-only; title/company always refresh; an inbound signal
// wakes a snoozed lead.
func (uc *IngestWebhookUseCase) applyMatchedUpdate(ctx context.Context, lead *entity.Lead, norm NormalizedLead, now time.Time) error {
	update := entity.LeadUpdate{LastActivity: &now}

	if norm.Email != "" && lead.Email == nil {
		update.Email = &norm.Email
	}
	if norm.Phone != "" && lead.Phone == nil {
		update.Phone = &norm.Phone
	}
	if norm.CompanyWebsite != "" && lead.CompanyWebsite == nil {
		update.CompanyWebsite = &norm.CompanyWebsite
	}
	if norm.Title != "" {
		update.Title = &norm.Title
	}
	if norm.Company != "" {
		update.Company = &norm.Company
	}
	if norm.GetSalesUUID != "" && lead.GetSalesUUID == nil {
		update.GetSalesUUID = &norm.GetSalesUUID
	}

	if lead.Stage == entity.StageSnoozed {
		stage := entity.StageLeadFeed
		update.Stage = &stage
		update.ClearSnooze = true
	}

	updated, err := uc.Leads.Update(ctx, lead.ID, update)
	if err != nil {
		return err
	}
	*lead = *updated
	log.Printf("[webhook] Updated lead %s", lead.ID)
	return nil
}

func (uc *IngestWebhookUseCase) buildLead(norm NormalizedLead) *entity.Lead {
	lead := entity.NewLead(norm.FirstName, norm.LastName)
	lead.Email = nilIfEmpty(norm.Email)
	lead.Phone = nilIfEmpty(norm.Phone)
	lead.Title = nilIfEmpty(norm.Title)
	lead.Company = nilIfEmpty(norm.Company)
	lead.LinkedInURL = nilIfEmpty(norm.LinkedInURL)
	lead.CompanyWebsite = nilIfEmpty(norm.CompanyWebsite)
	lead.CampaignName = nilIfEmpty(norm.CampaignName)
	lead.GetSalesUUID = nilIfEmpty(norm.GetSalesUUID)
	source := webhookSource
	lead.Source = &source
	return lead
}

// appendMessages stores the payload's conversation items. Failures are
// logged, never fatal: losing a message beats rejecting the event.
func (uc *IngestWebhookUseCase) appendMessages(ctx context.Context, leadID string, norm NormalizedLead, now time.Time) {
	channel := entity.MessageChannel(norm.Channel)
	if !channel.Valid() {
		channel = entity.ChannelLinkedIn
	}

	for _, m := range norm.Messages {
		msg := entity.NewMessage(leadID, channel, webhookDirection(m.Direction), m.Content)
		msg.Timestamp = parseVendorTime(m.Timestamp, now)
		if err := uc.Messages.Create(ctx, msg); err != nil {
			log.Printf("[webhook] Message insert failed for lead %s: %v", leadID, err)
		}
	}
}

// storeRawNote keeps a debug copy of the raw payload as an internal note.
func (uc *IngestWebhookUseCase) storeRawNote(ctx context.Context, leadID string, raw map[string]any, now time.Time) {
	pretty, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		pretty = []byte("(unserializable payload)")
	}
	content := truncateUTF8("[Raw webhook payload]\n"+string(pretty), rawNoteLimit)

	note := entity.NewMessage(leadID, entity.ChannelLinkedIn, entity.DirectionOutbound, content)
	note.IsNote = true
	note.Timestamp = now
	if err := uc.Messages.Create(ctx, note); err != nil {
		log.Printf("[webhook] Raw note insert failed for lead %s: %v", leadID, err)
	}
}

func webhookDirection(s string) entity.MessageDirection {
	switch s {
	case string(entity.DirectionInbound), "inbox":
		return entity.DirectionInbound
	default:
		return entity.DirectionOutbound
	}
}

// truncateUTF8 caps s at limit bytes without splitting a rune.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

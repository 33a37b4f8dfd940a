package usecase

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/xavierca1/leadfeed/internal/entity"
	"github.com/xavierca1/leadfeed/internal/infra/integration/getsales"
)

type SyncConversationsOutput struct {
	Synced   int    `json:"synced"`
	Updated  int    `json:"updated"`
	LinkedIn int    `json:"linkedin"`
	Emails   int    `json:"emails"`
	Message  string `json:"message,omitempty"`
}

// SyncConversationsUseCase pulls the authoritative conversation history for
// one lead from GetSales.io and reconciles it into storage. Vendor failures
// degrade (empty channel, descriptive no-op) instead of erroring.
type SyncConversationsUseCase struct {
	Leads    entity.LeadRepositoryInterface
	Messages entity.MessageRepositoryInterface
	Gateway  GetSalesGateway
}

func NewSyncConversationsUseCase(
	leads entity.LeadRepositoryInterface,
	messages entity.MessageRepositoryInterface,
	gateway GetSalesGateway,
) *SyncConversationsUseCase {
	return &SyncConversationsUseCase{Leads: leads, Messages: messages, Gateway: gateway}
}

// Run satisfies the queue worker's SyncRunner contract.
func (uc *SyncConversationsUseCase) Run(ctx context.Context, leadID string) error {
	_, err := uc.Execute(ctx, leadID)
	return err
}

func (uc *SyncConversationsUseCase) Execute(ctx context.Context, leadID string) (*SyncConversationsOutput, error) {
	lead, err := uc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load lead: " + err.Error()}
	}
	if lead == nil {
		return nil, &NotFoundError{Resource: "lead", ID: leadID}
	}

	if !uc.Gateway.Configured() {
		return &SyncConversationsOutput{Message: "GETSALES_API_KEY not configured"}, nil
	}

	contactUUID, out := uc.resolveIdentity(ctx, lead)
	if out != nil {
		return out, nil
	}

	stored, err := uc.Messages.FindSyncedByLead(ctx, leadID)
	if err != nil {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load stored messages: " + err.Error()}
	}

	linkedin, emails := uc.fetchChannels(ctx, contactUUID)
	log.Printf("[sync] Lead %s %s: %d LinkedIn msgs, %d emails", lead.FirstName, lead.LastName, len(linkedin), len(emails))

	now := time.Now()
	result := ReconcileMessages(leadID, linkedin, emails, stored, now)

	synced := 0
	if len(result.Inserts) > 0 {
		inserted, err := uc.Messages.InsertBatch(ctx, result.Inserts)
		if err != nil {
			return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to insert messages: " + err.Error()}
		}
		synced = int(inserted)

		// Advance last_activity to the newest inserted message. A failure
		// here is logged but never rolls back the insert.
		latest := result.Inserts[0].Timestamp
		for _, m := range result.Inserts[1:] {
			if m.Timestamp.After(latest) {
				latest = m.Timestamp
			}
		}
		if err := uc.Leads.TouchActivity(ctx, leadID, latest); err != nil {
			log.Printf("[sync] Activity update failed for lead %s: %v", leadID, err)
		}
	}

	updated := 0
	for _, u := range result.Updates {
		if err := uc.Messages.UpdateContent(ctx, u.MessageID, u.Content); err != nil {
			log.Printf("[sync] Content backfill failed for message %s: %v", u.MessageID, err)
			continue
		}
		updated++
	}

	log.Printf("[sync] Synced %d new, backfilled %d for lead %s", synced, updated, leadID)

	return &SyncConversationsOutput{
		Synced:   synced,
		Updated:  updated,
		LinkedIn: len(linkedin),
		Emails:   len(emails),
	}, nil
}

// resolveIdentity returns the lead's GetSales contact UUID, looking it up by
// LinkedIn URL then email and persisting the discovery. The second return is
// non-nil when the sync should no-op with an explanation.
func (uc *SyncConversationsUseCase) resolveIdentity(ctx context.Context, lead *entity.Lead) (string, *SyncConversationsOutput) {
	if lead.GetSalesUUID != nil && *lead.GetSalesUUID != "" {
		return *lead.GetSalesUUID, nil
	}

	linkedinURL := ""
	if lead.LinkedInURL != nil {
		linkedinURL = *lead.LinkedInURL
	}
	email := ""
	if lead.Email != nil {
		email = *lead.Email
	}
	if linkedinURL == "" && email == "" {
		return "", &SyncConversationsOutput{
			Message: "No LinkedIn URL or email to resolve a GetSales.io contact with",
		}
	}

	contactUUID := uc.Gateway.LookupContact(ctx, linkedinURL, email)
	if contactUUID == "" {
		return "", &SyncConversationsOutput{
			Message: "No GetSales.io contact found for this lead; conversations will sync once the vendor knows it",
		}
	}

	if err := uc.Leads.SetGetSalesUUID(ctx, lead.ID, contactUUID); err != nil {
		log.Printf("[sync] Failed to persist GetSales UUID for lead %s: %v", lead.ID, err)
	}
	return contactUUID, nil
}

// fetchChannels pulls both channels concurrently. Each degrades to an empty
// list on error so one slow or broken channel never blocks the other.
func (uc *SyncConversationsUseCase) fetchChannels(ctx context.Context, contactUUID string) ([]getsales.LinkedInMessage, []getsales.Email) {
	var (
		wg       sync.WaitGroup
		linkedin []getsales.LinkedInMessage
		emails   []getsales.Email
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		msgs, err := uc.Gateway.FetchLinkedInMessages(ctx, contactUUID)
		if err != nil {
			log.Printf("[sync] LinkedIn fetch failed: %v", err)
			return
		}
		linkedin = msgs
	}()
	go func() {
		defer wg.Done()
		list, err := uc.Gateway.FetchEmails(ctx, contactUUID)
		if err != nil {
			log.Printf("[sync] Email fetch failed: %v", err)
			return
		}
		emails = list
	}()
	wg.Wait()

	return linkedin, emails
}

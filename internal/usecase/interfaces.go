package usecase

import (
	"context"

	"github.com/xavierca1/leadfeed/internal/infra/integration/getsales"
)

// GetSalesGateway is the vendor-side surface the sync orchestrator needs.
type GetSalesGateway interface {
	Configured() bool
	LookupContact(ctx context.Context, linkedinURL, email string) string
	FetchLinkedInMessages(ctx context.Context, leadUUID string) ([]getsales.LinkedInMessage, error)
	FetchEmails(ctx context.Context, leadUUID string) ([]getsales.Email, error)
}

// EmailService sends operator notifications, never messages to leads.
type EmailService interface {
	SendLeadAlert(to, leadName, company, campaign string) error
}

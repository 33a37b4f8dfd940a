package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type LeadStage string

const (
	StageLeadFeed      LeadStage = "lead_feed"
	StageSnoozed       LeadStage = "snoozed"
	StageMeetingBooked LeadStage = "meeting_booked"
	StageClosedWon     LeadStage = "closed_won"
	StageClosedLost    LeadStage = "closed_lost"
)

func (s LeadStage) Valid() bool {
	switch s {
	case StageLeadFeed, StageSnoozed, StageMeetingBooked, StageClosedWon, StageClosedLost:
		return true
	}
	return false
}

type Lead struct {
	ID             string     `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          *string    `json:"email"`
	Phone          *string    `json:"phone"`
	Title          *string    `json:"title"`
	Company        *string    `json:"company"`
	LinkedInURL    *string    `json:"linkedin_url"`
	CompanyWebsite *string    `json:"company_website"`
	Stage          LeadStage  `json:"stage"`
	SnoozedUntil   *time.Time `json:"snoozed_until"`
	Source         *string    `json:"source"`
	CampaignName   *string    `json:"campaign_name"`

	// GetSales.io contact identity, resolved lazily (webhook or sync lookup)
	GetSalesUUID *string `json:"getsales_uuid"`

	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Factory. Name fields fall back to placeholders so a lead is always
// creatable, even from a maximally sparse webhook payload.
func NewLead(firstName, lastName string) *Lead {
	if firstName == "" {
		firstName = "Unknown"
	}
	if lastName == "" {
		lastName = "Contact"
	}
	now := time.Now()
	return &Lead{
		ID:           uuid.New().String(),
		FirstName:    firstName,
		LastName:     lastName,
		Stage:        StageLeadFeed,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastActivity: now,
	}
}

// EffectiveStage reclassifies an expired snooze as lead_feed without
// touching stored state. Every read path (lists, counts) applies this rule.
func (l *Lead) EffectiveStage(now time.Time) LeadStage {
	if l.SnoozeExpired(now) {
		return StageLeadFeed
	}
	return l.Stage
}

func (l *Lead) SnoozeExpired(now time.Time) bool {
	return l.Stage == StageSnoozed && l.SnoozedUntil != nil && !l.SnoozedUntil.After(now)
}

// LeadUpdate carries a partial update; nil fields are left untouched.
type LeadUpdate struct {
	FirstName      *string    `json:"first_name"`
	LastName       *string    `json:"last_name"`
	Email          *string    `json:"email"`
	Phone          *string    `json:"phone"`
	Title          *string    `json:"title"`
	Company        *string    `json:"company"`
	LinkedInURL    *string    `json:"linkedin_url"`
	CompanyWebsite *string    `json:"company_website"`
	Stage          *LeadStage `json:"stage"`
	SnoozedUntil   *time.Time `json:"snoozed_until"`
	CampaignName   *string    `json:"campaign_name"`
	GetSalesUUID   *string    `json:"getsales_uuid"`
	LastActivity   *time.Time `json:"-"`

	// ClearSnooze forces snoozed_until = NULL even when SnoozedUntil is nil.
	// Set whenever the stage moves anywhere other than snoozed.
	ClearSnooze bool `json:"-"`
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	FindByLinkedInURL(ctx context.Context, url string) (*Lead, error)
	FindByEmail(ctx context.Context, email string) (*Lead, error)
	List(ctx context.Context, stage *LeadStage, now time.Time) ([]*Lead, error)
	CountByStage(ctx context.Context, now time.Time) (map[LeadStage]int, error)
	Update(ctx context.Context, id string, update LeadUpdate) (*Lead, error)
	PromoteExpired(ctx context.Context, now time.Time) (int64, error)
	TouchActivity(ctx context.Context, id string, activity time.Time) error
	SetGetSalesUUID(ctx context.Context, id, uuid string) error
}

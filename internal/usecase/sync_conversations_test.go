package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/leadfeed/internal/entity"
	"github.com/xavierca1/leadfeed/internal/infra/integration/getsales"
)

func syncedLead(id string) *entity.Lead {
	lead := entity.NewLead("Jane", "Doe")
	lead.ID = id
	url := "https://linkedin.com/in/janedoe"
	lead.LinkedInURL = &url
	uuid := "gs-uuid-1"
	lead.GetSalesUUID = &uuid
	return lead
}

func TestSyncConversationsNotFound(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	msgRepo := new(MockMessageRepository)
	gateway := new(MockGetSalesGateway)
	uc := NewSyncConversationsUseCase(leadRepo, msgRepo, gateway)

	leadRepo.On("FindByID", mock.Anything, "missing").Return(nil, nil)

	out, err := uc.Execute(context.Background(), "missing")
	assert.Nil(t, out)
	assert.True(t, IsNotFoundError(err))
}

func TestSyncConversationsUnconfigured(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	msgRepo := new(MockMessageRepository)
	gateway := new(MockGetSalesGateway)
	uc := NewSyncConversationsUseCase(leadRepo, msgRepo, gateway)

	leadRepo.On("FindByID", mock.Anything, "lead-1").Return(syncedLead("lead-1"), nil)
	gateway.On("Configured").Return(false)

	out, err := uc.Execute(context.Background(), "lead-1")
	assert.NoError(t, err)
	assert.Equal(t, 0, out.Synced)
	assert.Contains(t, out.Message, "GETSALES_API_KEY")
	gateway.AssertNotCalled(t, "FetchLinkedInMessages", mock.Anything, mock.Anything)
}

func TestSyncConversationsIdentity(t *testing.T) {
	t.Run("No identity fields no-ops", func(t *testing.T) {
		leadRepo := new(MockLeadRepository)
		msgRepo := new(MockMessageRepository)
		gateway := new(MockGetSalesGateway)
		uc := NewSyncConversationsUseCase(leadRepo, msgRepo, gateway)

		bare := entity.NewLead("Jane", "Doe")
		bare.ID = "lead-1"
		leadRepo.On("FindByID", mock.Anything, "lead-1").Return(bare, nil)
		gateway.On("Configured").Return(true)

		out, err := uc.Execute(context.Background(), "lead-1")
		assert.NoError(t, err)
		assert.NotEmpty(t, out.Message)
		gateway.AssertNotCalled(t, "LookupContact", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown contact no-ops", func(t *testing.T) {
		leadRepo := new(MockLeadRepository)
		msgRepo := new(MockMessageRepository)
		gateway := new(MockGetSalesGateway)
		uc := NewSyncConversationsUseCase(leadRepo, msgRepo, gateway)

		lead := syncedLead("lead-1")
		lead.GetSalesUUID = nil
		leadRepo.On("FindByID", mock.Anything, "lead-1").Return(lead, nil)
		gateway.On("Configured").Return(true)
		gateway.On("LookupContact", mock.Anything, *lead.LinkedInURL, "").Return("")

		out, err := uc.Execute(context.Background(), "lead-1")
		assert.NoError(t, err)
		assert.Contains(t, out.Message, "No GetSales.io contact")
	})

	t.Run("Discovered contact UUID is persisted", func(t *testing.T) {
		leadRepo := new(MockLeadRepository)
		msgRepo := new(MockMessageRepository)
		gateway := new(MockGetSalesGateway)
		uc := NewSyncConversationsUseCase(leadRepo, msgRepo, gateway)

		lead := syncedLead("lead-1")
		lead.GetSalesUUID = nil
		leadRepo.On("FindByID", mock.Anything, "lead-1").Return(lead, nil)
		gateway.On("Configured").Return(true)
		gateway.On("LookupContact", mock.Anything, *lead.LinkedInURL, "").Return("gs-uuid-9")
		leadRepo.On("SetGetSalesUUID", mock.Anything, "lead-1", "gs-uuid-9").Return(nil)
		msgRepo.On("FindSyncedByLead", mock.Anything, "lead-1").Return([]*entity.Message{}, nil)
		gateway.On("FetchLinkedInMessages", mock.Anything, "gs-uuid-9").Return([]getsales.LinkedInMessage{}, nil)
		gateway.On("FetchEmails", mock.Anything, "gs-uuid-9").Return([]getsales.Email{}, nil)

		out, err := uc.Execute(context.Background(), "lead-1")
		assert.NoError(t, err)
		assert.Equal(t, 0, out.Synced)
		leadRepo.AssertCalled(t, "SetGetSalesUUID", mock.Anything, "lead-1", "gs-uuid-9")
	})
}

func TestSyncConversationsFetchDegrades(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	msgRepo := new(MockMessageRepository)
	gateway := new(MockGetSalesGateway)
	uc := NewSyncConversationsUseCase(leadRepo, msgRepo, gateway)

	leadRepo.On("FindByID", mock.Anything, "lead-1").Return(syncedLead("lead-1"), nil)
	gateway.On("Configured").Return(true)
	msgRepo.On("FindSyncedByLead", mock.Anything, "lead-1").Return([]*entity.Message{}, nil)
	gateway.On("FetchLinkedInMessages", mock.Anything, "gs-uuid-1").Return(nil, errors.New("timeout"))
	gateway.On("FetchEmails", mock.Anything, "gs-uuid-1").Return([]getsales.Email{
		{UUID: "e1", Subject: "Hi", Body: "hello there", Type: "inbox"},
	}, nil)
	msgRepo.On("InsertBatch", mock.Anything, mock.AnythingOfType("[]*entity.Message")).Return(int64(1), nil)
	leadRepo.On("TouchActivity", mock.Anything, "lead-1", mock.AnythingOfType("time.Time")).Return(nil)

	out, err := uc.Execute(context.Background(), "lead-1")
	assert.NoError(t, err)
	assert.Equal(t, 1, out.Synced)
	assert.Equal(t, 0, out.LinkedIn)
	assert.Equal(t, 1, out.Emails)
}

func TestSyncConversationsInsertAndBackfill(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	msgRepo := new(MockMessageRepository)
	gateway := new(MockGetSalesGateway)
	uc := NewSyncConversationsUseCase(leadRepo, msgRepo, gateway)

	leadRepo.On("FindByID", mock.Anything, "lead-1").Return(syncedLead("lead-1"), nil)
	gateway.On("Configured").Return(true)

	storedID := "gs_em_e1"
	msgRepo.On("FindSyncedByLead", mock.Anything, "lead-1").Return([]*entity.Message{
		{ID: "m1", LeadID: "lead-1", Channel: entity.ChannelEmail, Direction: entity.DirectionInbound, Content: "**Hi**", ExternalID: &storedID},
	}, nil)
	gateway.On("FetchLinkedInMessages", mock.Anything, "gs-uuid-1").Return([]getsales.LinkedInMessage{
		{UUID: "li1", Text: "new linkedin msg", Type: "inbox", SentAt: "2026-08-25T12:00:00Z"},
	}, nil)
	gateway.On("FetchEmails", mock.Anything, "gs-uuid-1").Return([]getsales.Email{
		{UUID: "e1", Subject: "Hi", Body: "now with a body", Type: "inbox"},
	}, nil)

	msgRepo.On("InsertBatch", mock.Anything, mock.MatchedBy(func(msgs []*entity.Message) bool {
		return len(msgs) == 1 && *msgs[0].ExternalID == "gs_li_li1"
	})).Return(int64(1), nil)
	msgRepo.On("UpdateContent", mock.Anything, "m1", "**Hi**\n\nnow with a body").Return(nil)
	leadRepo.On("TouchActivity", mock.Anything, "lead-1",
		time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)).Return(nil)

	out, err := uc.Execute(context.Background(), "lead-1")
	assert.NoError(t, err)
	assert.Equal(t, 1, out.Synced)
	assert.Equal(t, 1, out.Updated)
	msgRepo.AssertExpectations(t)
	leadRepo.AssertExpectations(t)
}

func TestSyncConversationsActivityFailureTolerated(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	msgRepo := new(MockMessageRepository)
	gateway := new(MockGetSalesGateway)
	uc := NewSyncConversationsUseCase(leadRepo, msgRepo, gateway)

	leadRepo.On("FindByID", mock.Anything, "lead-1").Return(syncedLead("lead-1"), nil)
	gateway.On("Configured").Return(true)
	msgRepo.On("FindSyncedByLead", mock.Anything, "lead-1").Return([]*entity.Message{}, nil)
	gateway.On("FetchLinkedInMessages", mock.Anything, "gs-uuid-1").Return([]getsales.LinkedInMessage{
		{UUID: "li1", Text: "hello", Type: "inbox"},
	}, nil)
	gateway.On("FetchEmails", mock.Anything, "gs-uuid-1").Return([]getsales.Email{}, nil)
	msgRepo.On("InsertBatch", mock.Anything, mock.AnythingOfType("[]*entity.Message")).Return(int64(1), nil)
	leadRepo.On("TouchActivity", mock.Anything, "lead-1", mock.AnythingOfType("time.Time")).
		Return(errors.New("deadlock"))

	out, err := uc.Execute(context.Background(), "lead-1")
	assert.NoError(t, err)
	assert.Equal(t, 1, out.Synced)
}

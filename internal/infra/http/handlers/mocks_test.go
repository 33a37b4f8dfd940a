package handlers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/leadfeed/internal/entity"
	"github.com/xavierca1/leadfeed/internal/usecase"
)

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) FindByLinkedInURL(ctx context.Context, url string) (*entity.Lead, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) FindByEmail(ctx context.Context, email string) (*entity.Lead, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) List(ctx context.Context, stage *entity.LeadStage, now time.Time) ([]*entity.Lead, error) {
	args := m.Called(ctx, stage, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) CountByStage(ctx context.Context, now time.Time) (map[entity.LeadStage]int, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[entity.LeadStage]int), args.Error(1)
}

func (m *MockLeadRepository) Update(ctx context.Context, id string, update entity.LeadUpdate) (*entity.Lead, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) PromoteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLeadRepository) TouchActivity(ctx context.Context, id string, activity time.Time) error {
	args := m.Called(ctx, id, activity)
	return args.Error(0)
}

func (m *MockLeadRepository) SetGetSalesUUID(ctx context.Context, id, uuid string) error {
	args := m.Called(ctx, id, uuid)
	return args.Error(0)
}

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) ListByLead(ctx context.Context, leadID string) ([]*entity.Message, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Message), args.Error(1)
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *entity.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) InsertBatch(ctx context.Context, msgs []*entity.Message) (int64, error) {
	args := m.Called(ctx, msgs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageRepository) FindSyncedByLead(ctx context.Context, leadID string) ([]*entity.Message, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Message), args.Error(1)
}

func (m *MockMessageRepository) UpdateContent(ctx context.Context, id, content string) error {
	args := m.Called(ctx, id, content)
	return args.Error(0)
}

type MockWebhookIngester struct {
	mock.Mock
}

func (m *MockWebhookIngester) Execute(ctx context.Context, input usecase.IngestWebhookInput) (*usecase.IngestWebhookOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.IngestWebhookOutput), args.Error(1)
}

type MockConversationSyncer struct {
	mock.Mock
}

func (m *MockConversationSyncer) Execute(ctx context.Context, leadID string) (*usecase.SyncConversationsOutput, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.SyncConversationsOutput), args.Error(1)
}

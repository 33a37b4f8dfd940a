package usecase

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/leadfeed/internal/entity"
	"github.com/xavierca1/leadfeed/internal/infra/integration/getsales"
)

// External ids are derived from vendor uuids so repeated syncs dedupe
// against storage: gs_li_<uuid> for LinkedIn, gs_em_<uuid> for email.
const (
	linkedInIDPrefix = "gs_li_"
	emailIDPrefix    = "gs_em_"
)

func LinkedInExternalID(vendorUUID string) string {
	return linkedInIDPrefix + vendorUUID
}

func EmailExternalID(vendorUUID string) string {
	return emailIDPrefix + vendorUUID
}

// ContentUpdate is an in-place body backfill for an already-stored email.
type ContentUpdate struct {
	MessageID string
	Content   string
}

// ReconcileResult partitions freshly fetched vendor items against storage.
type ReconcileResult struct {
	Inserts   []*entity.Message
	Updates   []ContentUpdate
	Unchanged int
}

// ReconcileMessages diffs fetched LinkedIn messages and emails against the
// lead's stored externally-sourced messages. Idempotent: re-running over
// already-reconciled storage yields zero inserts and zero updates.
func ReconcileMessages(
	leadID string,
	linkedin []getsales.LinkedInMessage,
	emails []getsales.Email,
	stored []*entity.Message,
	now time.Time,
) *ReconcileResult {
	existing := make(map[string]*entity.Message, len(stored))
	for _, m := range stored {
		if m.ExternalID != nil {
			existing[*m.ExternalID] = m
		}
	}

	result := &ReconcileResult{}

	for _, msg := range linkedin {
		externalID := LinkedInExternalID(msg.UUID)
		if _, ok := existing[externalID]; ok {
			result.Unchanged++
			continue
		}
		if strings.TrimSpace(msg.Text) == "" {
			continue
		}
		result.Inserts = append(result.Inserts, &entity.Message{
			ID:         uuid.New().String(),
			LeadID:     leadID,
			Channel:    entity.ChannelLinkedIn,
			Direction:  vendorDirection(msg.Type),
			Content:    msg.Text,
			IsNote:     false,
			Timestamp:  parseVendorTime(msg.SentAt, now),
			CreatedAt:  now,
			ExternalID: &externalID,
		})
	}

	for i := range emails {
		email := &emails[i]
		externalID := EmailExternalID(email.UUID)
		body := SanitizeEmailBody(email.Body)

		if storedMsg, ok := existing[externalID]; ok {
			// Backfill pass: an earlier sync may have stored the subject
			// alone because the list endpoint omitted the body.
			if body != "" && IsSubjectOnly(storedMsg.Content) {
				content := ComposeEmailContent(email.Subject, body)
				if content != storedMsg.Content {
					result.Updates = append(result.Updates, ContentUpdate{
						MessageID: storedMsg.ID,
						Content:   content,
					})
					continue
				}
			}
			result.Unchanged++
			continue
		}

		content := ComposeEmailContent(email.Subject, body)
		if strings.TrimSpace(content) == "" {
			continue
		}
		result.Inserts = append(result.Inserts, &entity.Message{
			ID:         uuid.New().String(),
			LeadID:     leadID,
			Channel:    entity.ChannelEmail,
			Direction:  vendorDirection(email.Type),
			Content:    content,
			IsNote:     false,
			Timestamp:  parseVendorTime(email.SentAt, now),
			CreatedAt:  now,
			ExternalID: &externalID,
		})
	}

	return result
}

// ComposeEmailContent renders an email as a markdown-bold subject line
// followed by the body, or the body alone when there is no subject.
func ComposeEmailContent(subject, body string) string {
	if subject != "" {
		return "**" + subject + "**\n\n" + body
	}
	return body
}

// IsSubjectOnly detects a stored email whose content is just the composed
// subject line, meaning a prior sync failed to retrieve the body: at most
// one non-blank line, or exactly two lines with a bold-subject first line.
func IsSubjectOnly(content string) bool {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	nonBlank := 0
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			nonBlank++
		}
	}
	if nonBlank <= 1 {
		return true
	}
	return len(lines) == 2 && strings.HasPrefix(lines[0], "**")
}

func vendorDirection(vendorType string) entity.MessageDirection {
	if vendorType == "inbox" {
		return entity.DirectionInbound
	}
	return entity.DirectionOutbound
}

func parseVendorTime(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return fallback
}

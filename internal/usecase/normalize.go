package usecase

import (
	"strconv"
	"strings"

	"github.com/xavierca1/leadfeed/internal/entity"
)

// NormalizedMessage is one conversation item extracted from a webhook payload.
type NormalizedMessage struct {
	Direction string
	Content   string
	Timestamp string
}

// NormalizedLead is the canonical shape every webhook payload is reduced to.
// Empty string means the field was absent from the payload.
type NormalizedLead struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Title          string
	Company        string
	LinkedInURL    string
	CompanyWebsite string
	CampaignName   string
	Channel        string
	GetSalesUUID   string
	Messages       []NormalizedMessage
}

// Wrapper keys probed one level deep when a field is not found at the top level.
var wrapperKeys = []string{"contact", "data", "lead", "person", "prospect", "payload", "body", "record"}

// deepGet probes the given keys at the top level of the payload, then inside
// each known wrapper object. First non-empty hit wins. Empty strings count
// as absent, the same as null or a missing key.
func deepGet(obj map[string]any, keys ...string) string {
	if obj == nil {
		return ""
	}
	for _, k := range keys {
		if s := stringify(obj[k]); s != "" {
			return s
		}
	}
	for _, w := range wrapperKeys {
		inner, ok := obj[w].(map[string]any)
		if !ok {
			continue
		}
		for _, k := range keys {
			if s := stringify(inner[k]); s != "" {
				return s
			}
		}
	}
	return ""
}

// stringify converts a JSON scalar to its string form. Objects, arrays and
// nulls are treated as absent.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

// NormalizePayload maps an arbitrary GetSales.io webhook body into the
// canonical lead shape. It never fails: unrecognized or malformed structures
// yield absent fields, not errors.
func NormalizePayload(raw map[string]any) NormalizedLead {
	out := NormalizedLead{}
	if raw == nil {
		raw = map[string]any{}
	}

	out.FirstName = deepGet(raw, "first_name", "firstName", "First Name", "fname", "first")
	out.LastName = deepGet(raw, "last_name", "lastName", "Last Name", "lname", "last")

	// Fall back to splitting a combined full-name field on whitespace. A
	// blank (whitespace-only) value counts as absent.
	if out.FirstName == "" && out.LastName == "" {
		fullName := strings.TrimSpace(deepGet(raw, "name", "fullName", "full_name", "Full Name", "contact_name", "display_name"))
		if fullName != "" {
			parts := strings.Fields(fullName)
			out.FirstName = parts[0]
			if len(parts) > 1 {
				out.LastName = strings.Join(parts[1:], " ")
			} else {
				out.LastName = "Unknown"
			}
		}
	}

	// Company info may live in an "account" sub-object (GetSales.io pattern);
	// consulted only after direct keys fail.
	account, _ := raw["account"].(map[string]any)

	out.Email = deepGet(raw, "email", "Email", "email_address", "emailAddress", "work_email")
	out.Phone = deepGet(raw, "phone", "Phone", "phone_number", "phoneNumber", "mobile", "work_phone")
	out.Title = deepGet(raw, "title", "Title", "job_title", "jobTitle", "position",
		"Position", "role", "headline", "Headline")
	out.LinkedInURL = deepGet(raw, "linkedin_url", "linkedinUrl", "linkedin", "LinkedIn",
		"linkedin_profile", "linkedInUrl", "profile_url", "profileUrl", "ln_url", "social_url")

	out.Company = deepGet(raw, "company", "Company", "company_name", "companyName", "organization")
	if out.Company == "" && account != nil {
		out.Company = stringify(account["name"])
	}

	out.CompanyWebsite = deepGet(raw, "company_website", "companyWebsite", "website", "Website", "company_url", "domain")
	if out.CompanyWebsite == "" && account != nil {
		out.CompanyWebsite = stringify(account["website"])
		if out.CompanyWebsite == "" {
			out.CompanyWebsite = stringify(account["domain"])
		}
	}

	out.CampaignName = deepGet(raw, "campaign_name", "campaignName", "campaign", "Campaign", "campaign_id",
		"pipeline_stage_name")
	if out.CampaignName == "" && account != nil {
		out.CampaignName = stringify(account["pipeline_stage_name"])
	}

	out.Channel = deepGet(raw, "channel", "Channel", "source_channel")
	if out.Channel == "" {
		out.Channel = string(entity.ChannelLinkedIn)
	}

	out.GetSalesUUID = deepGet(raw, "uuid", "lead_uuid", "contact_uuid", "getsales_uuid")

	out.Messages = normalizeMessages(raw)
	return out
}

func normalizeMessages(raw map[string]any) []NormalizedMessage {
	var items []any
	for _, k := range []string{"messages", "conversation", "message_history"} {
		if arr, ok := raw[k].([]any); ok && len(arr) > 0 {
			items = arr
			break
		}
	}

	if items != nil {
		var msgs []NormalizedMessage
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			content := stringify(m["content"])
			if content == "" {
				content = stringify(m["text"])
			}
			if content == "" {
				content = stringify(m["body"])
			}
			if content == "" {
				content = stringify(m["message"])
			}
			if strings.TrimSpace(content) == "" {
				continue
			}

			direction := stringify(m["direction"])
			if direction == "" {
				direction = stringify(m["type"])
			}
			if direction == "" {
				if isReply, _ := m["is_reply"].(bool); isReply {
					direction = string(entity.DirectionInbound)
				} else {
					direction = string(entity.DirectionOutbound)
				}
			}

			timestamp := stringify(m["timestamp"])
			if timestamp == "" {
				timestamp = stringify(m["date"])
			}
			if timestamp == "" {
				timestamp = stringify(m["sent_at"])
			}
			if timestamp == "" {
				timestamp = stringify(m["created_at"])
			}

			msgs = append(msgs, NormalizedMessage{Direction: direction, Content: content, Timestamp: timestamp})
		}
		return msgs
	}

	// Single "latest message" style field: synthesize one inbound item.
	for _, k := range []string{"message", "last_message", "conversation_text"} {
		if content := stringify(raw[k]); content != "" {
			return []NormalizedMessage{{Direction: string(entity.DirectionInbound), Content: content}}
		}
	}

	return nil
}

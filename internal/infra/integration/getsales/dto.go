package getsales

// LinkedInMessage is one LinkedIn conversation item from
// GET /flows/api/linkedin-messages. Type is the vendor's inbox/outbox flag.
type LinkedInMessage struct {
	UUID     string `json:"uuid"`
	Text     string `json:"text"`
	Type     string `json:"type"` // "outbox" | "inbox"
	SentAt   string `json:"sent_at"`
	ReadAt   string `json:"read_at"`
	Status   string `json:"status"`
	LeadUUID string `json:"lead_uuid"`
}

// Email is one email from GET /emails/api/emails. The list endpoint is
// inconsistent about where the body lives, so every alternative field the
// API has been seen using is mapped.
type Email struct {
	UUID     string `json:"uuid"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Type     string `json:"type"` // "outbox" | "inbox"
	SentAt   string `json:"sent_at"`
	Status   string `json:"status"`
	LeadUUID string `json:"lead_uuid"`

	// Alternative body fields observed in API responses
	Text     string `json:"text"`
	Content  string `json:"content"`
	HTMLBody string `json:"html_body"`
	BodyHTML string `json:"body_html"`
	BodyText string `json:"body_text"`
	Message  string `json:"message"`
}

// ResolvedBody returns the first non-empty body candidate.
func (e *Email) ResolvedBody() string {
	for _, b := range []string{e.Body, e.Text, e.Content, e.HTMLBody, e.BodyHTML, e.BodyText, e.Message} {
		if b != "" {
			return b
		}
	}
	return ""
}

type lookupResponse struct {
	UUID string `json:"uuid"`
}

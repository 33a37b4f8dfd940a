package getsales

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"

	"github.com/xavierca1/leadfeed/internal/infra/http/middleware"
)

const DefaultBaseURL = "https://amazing.getsales.io"

var linkedinSlugRe = regexp.MustCompile(`linkedin\.com/in/([^/?]+)`)

type Client struct {
	apiKey  string
	baseURL string
}

func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{apiKey: apiKey, baseURL: baseURL}
}

// Configured reports whether an API key is present. Callers degrade to
// descriptive no-ops when it is not.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// LookupContact resolves a GetSales.io contact UUID by LinkedIn URL first,
// then by email, then by a LinkedIn-slug search as a last resort. Returns
// empty string when nothing matches; individual attempt failures are logged
// and never fatal.
func (c *Client) LookupContact(ctx context.Context, linkedinURL, email string) string {
	if !c.Configured() {
		return ""
	}

	if linkedinURL != "" {
		uuid, err := c.lookupOne(ctx, map[string]string{"linkedin_url": linkedinURL})
		if err != nil {
			log.Printf("[getsales] LinkedIn lookup failed: %v", err)
			middleware.RecordIntegrationError("getsales")
		} else if uuid != "" {
			return uuid
		}
	}

	if email != "" {
		uuid, err := c.lookupOne(ctx, map[string]string{"email": email})
		if err != nil {
			log.Printf("[getsales] Email lookup failed: %v", err)
		} else if uuid != "" {
			return uuid
		}
	}

	if linkedinURL != "" {
		uuid, err := c.searchBySlug(ctx, linkedinURL)
		if err != nil {
			log.Printf("[getsales] Search lookup failed: %v", err)
		} else if uuid != "" {
			return uuid
		}
	}

	return ""
}

func (c *Client) lookupOne(ctx context.Context, filter map[string]string) (string, error) {
	body, _ := json.Marshal(filter)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/leads/api/leads/lookup-one", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.addAuthHeaders(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lookup-one returned %d", resp.StatusCode)
	}

	var result lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.UUID, nil
}

func (c *Client) searchBySlug(ctx context.Context, linkedinURL string) (string, error) {
	match := linkedinSlugRe.FindStringSubmatch(linkedinURL)
	if match == nil {
		return "", nil
	}

	body, _ := json.Marshal(map[string]any{"filter": map[string]string{"linkedin": match[1]}})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/leads/api/leads/search", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.addAuthHeaders(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search returned %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	// Search responses come either wrapped in {"data": [...]} or bare.
	var wrapped struct {
		Data []lookupResponse `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Data) > 0 {
		return wrapped.Data[0].UUID, nil
	}
	var bare []lookupResponse
	if err := json.Unmarshal(raw, &bare); err == nil && len(bare) > 0 {
		return bare[0].UUID, nil
	}
	return "", nil
}

// FetchLinkedInMessages returns the contact's LinkedIn conversation,
// oldest first. Errors degrade to an empty list at the caller.
func (c *Client) FetchLinkedInMessages(ctx context.Context, leadUUID string) ([]LinkedInMessage, error) {
	q := url.Values{}
	q.Set("filter[lead_uuid]", leadUUID)
	q.Set("order-type", "asc")
	q.Set("order-field", "sent_at")
	q.Set("limit", "100")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/flows/api/linkedin-messages?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.addAuthHeaders(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		middleware.RecordIntegrationError("getsales")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		middleware.RecordIntegrationError("getsales")
		return nil, fmt.Errorf("linkedin messages fetch returned %d: %s", resp.StatusCode, string(raw))
	}

	var result struct {
		Data []LinkedInMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// FetchEmails returns the contact's emails, oldest first. When the list
// endpoint omits bodies, each email is refetched individually for its full
// content.
func (c *Client) FetchEmails(ctx context.Context, leadUUID string) ([]Email, error) {
	q := url.Values{}
	q.Set("filter[lead_uuid]", leadUUID)
	q.Set("order-type", "asc")
	q.Set("limit", "100")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/emails/api/emails?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.addAuthHeaders(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		middleware.RecordIntegrationError("getsales")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		middleware.RecordIntegrationError("getsales")
		return nil, fmt.Errorf("email fetch returned %d: %s", resp.StatusCode, string(raw))
	}

	var result struct {
		Data []Email `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	emails := result.Data

	for i := range emails {
		emails[i].Body = emails[i].ResolvedBody()
	}

	// List endpoint sometimes strips bodies entirely; fall back to the
	// detail endpoint per email.
	if len(emails) > 0 && emails[0].Body == "" {
		log.Printf("[getsales] Email list missing bodies, fetching %d individual emails", len(emails))
		for i := range emails {
			detail, err := c.fetchEmailDetail(ctx, emails[i].UUID)
			if err != nil {
				log.Printf("[getsales] Email detail fetch failed for %s: %v", emails[i].UUID, err)
				continue
			}
			if body := detail.ResolvedBody(); body != "" {
				emails[i].Body = body
			}
		}
	}

	return emails, nil
}

func (c *Client) fetchEmailDetail(ctx context.Context, emailUUID string) (*Email, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/emails/api/emails/"+emailUUID, nil)
	if err != nil {
		return nil, err
	}
	c.addAuthHeaders(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("email detail fetch returned %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Data *Email `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Data != nil && wrapped.Data.UUID != "" {
		return wrapped.Data, nil
	}
	var bare Email
	if err := json.Unmarshal(raw, &bare); err != nil {
		return nil, err
	}
	return &bare, nil
}

func (c *Client) addAuthHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

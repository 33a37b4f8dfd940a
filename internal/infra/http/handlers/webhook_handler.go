package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/xavierca1/leadfeed/internal/infra/http/middleware"
	"github.com/xavierca1/leadfeed/internal/usecase"
)

// WebhookIngester is the slice of the ingest use case the handler needs.
type WebhookIngester interface {
	Execute(ctx context.Context, input usecase.IngestWebhookInput) (*usecase.IngestWebhookOutput, error)
}

// WebhookHandler receives GetSales.io events. The contract is permissive:
// any content type, any payload shape, and an API-key mismatch is logged and
// counted but the event still processes, so a key rotation never drops real
// vendor events.
type WebhookHandler struct {
	Ingester    WebhookIngester
	ExpectedKey string
}

func NewWebhookHandler(ingester WebhookIngester, expectedKey string) *WebhookHandler {
	return &WebhookHandler{Ingester: ingester, ExpectedKey: expectedKey}
}

// HandleVerify answers GET probes some webhook configurators send first.
func (h *WebhookHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Webhook is active. Send POST with lead data.",
	})
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	apiKey := r.URL.Query().Get("key")
	if apiKey == "" {
		apiKey = r.Header.Get("x-api-key")
	}
	if h.ExpectedKey != "" && apiKey != h.ExpectedKey {
		log.Printf("[webhook] Auth mismatch, proceeding anyway")
		middleware.RecordWebhookAuthMismatch()
	}

	raw := parseWebhookBody(r)

	out, err := h.Ingester.Execute(r.Context(), usecase.IngestWebhookInput{RawPayload: raw})
	if err != nil {
		log.Printf("[webhook] Ingest failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	middleware.RecordWebhookEvent(out.Action)
	respondJSON(w, http.StatusOK, out)
}

// parseWebhookBody extracts a key-value tree from the request regardless of
// content type: JSON, form-encoded (with JSON-in-field detection), or raw
// text that turns out to be either. Anything unparseable becomes an empty
// tree; normalization handles the rest.
func parseWebhookBody(r *http.Request) map[string]any {
	contentType := r.Header.Get("Content-Type")

	if strings.Contains(contentType, "application/json") {
		var raw any
		if err := json.NewDecoder(r.Body).Decode(&raw); err == nil {
			if m, ok := raw.(map[string]any); ok {
				return m
			}
		}
		return map[string]any{}
	}

	if strings.Contains(contentType, "application/x-www-form-urlencoded") ||
		strings.Contains(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			r.ParseForm()
		}
		return formToTree(r.Form)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return map[string]any{}
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err == nil {
		if m, ok := raw.(map[string]any); ok {
			return m
		}
		return map[string]any{}
	}

	if params, err := url.ParseQuery(string(body)); err == nil {
		return formToTree(params)
	}
	return map[string]any{}
}

// formToTree maps form fields into the tree, parsing JSON-valued fields so
// nested payloads smuggled through form encoding still normalize.
func formToTree(values url.Values) map[string]any {
	obj := make(map[string]any, len(values))
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		v := vals[0]
		var parsed any
		if err := json.Unmarshal([]byte(v), &parsed); err == nil {
			switch parsed.(type) {
			case map[string]any, []any, float64, bool:
				obj[key] = parsed
				continue
			}
		}
		obj[key] = v
	}
	return obj
}

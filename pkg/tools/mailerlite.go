package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"marketbot/pkg/config"
)

// MailerLiteBaseURL is the MailerLite API endpoint. Tests substitute an
// httptest URL.
const MailerLiteBaseURL = "https://connect.mailerlite.com/api"

// MailerLiteClient is a thin wrapper over the MailerLite campaign API.
type MailerLiteClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	now        func() time.Time
}

// NewMailerLiteClient creates a client against the production endpoint.
func NewMailerLiteClient(apiKey string, client *http.Client) *MailerLiteClient {
	return NewMailerLiteClientWithBaseURL(apiKey, MailerLiteBaseURL, client)
}

// NewMailerLiteClientWithBaseURL creates a client with a custom endpoint.
func NewMailerLiteClientWithBaseURL(apiKey, baseURL string, client *http.Client) *MailerLiteClient {
	if client == nil {
		client = &http.Client{}
	}
	return &MailerLiteClient{apiKey: apiKey, baseURL: baseURL, httpClient: client, now: time.Now}
}

// CreateCampaign creates a regular email campaign. groupID may be empty to
// target all subscribers.
func (c *MailerLiteClient) CreateCampaign(ctx context.Context, subject, content, groupID string) error {
	campaign := map[string]any{
		"name": fmt.Sprintf("Auto Campaign - %s", c.now().UTC().Format("2006-01-02 15:04")),
		"type": "regular",
		"emails": []map[string]any{{
			"subject":   subject,
			"from_name": "Marketing Bot",
			"content":   content,
		}},
	}
	if groupID != "" {
		campaign["groups"] = []string{groupID}
	}

	payload, err := json.Marshal(campaign)
	if err != nil {
		return fmt.Errorf("failed to encode campaign: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/campaigns", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create campaign request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mailerlite request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort close

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mailerlite API returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// SendCampaignTool creates an email campaign via MailerLite. The call
// mutates third-party state and is never retried internally.
type SendCampaignTool struct {
	client *MailerLiteClient
}

// NewSendCampaignTool creates a campaign tool. A nil client produces an
// explicit not-configured error at call time.
func NewSendCampaignTool(client *MailerLiteClient) *SendCampaignTool {
	return &SendCampaignTool{client: client}
}

func createSendCampaignTool(ctx AgentContext) (Tool, error) {
	var client *MailerLiteClient
	if key := ctx.Config.Tools.MailerLiteAPIKey; key != "" {
		client = NewMailerLiteClient(key, ctx.httpClient())
	}
	return NewSendCampaignTool(client), nil
}

func (t *SendCampaignTool) Name() string { return ToolSendCampaign }

func (t *SendCampaignTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolSendCampaign,
		Description: "Create an email campaign via MailerLite. If group_id is " +
			"omitted the campaign targets all subscribers. If MailerLite is not " +
			"configured, save the email locally instead.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"subject": {
					Type:        "string",
					Description: "Email subject line",
				},
				"content": {
					Type:        "string",
					Description: "Full email body (HTML or markdown)",
				},
				"group_id": {
					Type:        "string",
					Description: "Optional subscriber group to target",
				},
			},
			Required: []string{"subject", "content"},
		},
	}
}

// Exec creates the campaign.
func (t *SendCampaignTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	subject, ok := args["subject"].(string)
	if !ok || subject == "" {
		return nil, fmt.Errorf("subject is required and must be a string")
	}
	content, ok := args["content"].(string)
	if !ok || content == "" {
		return nil, fmt.Errorf("content is required and must be a string")
	}
	groupID, _ := args["group_id"].(string)

	if t.client == nil {
		return errorResult("mailerlite not configured: set " + config.EnvMailerLiteAPIKey +
			" or use save_email instead")
	}

	if err := t.client.CreateCampaign(ctx, subject, content, groupID); err != nil {
		return errorResult(err.Error())
	}

	return jsonResult(map[string]any{
		"success": true,
		"subject": subject,
		"status":  "campaign created",
	})
}

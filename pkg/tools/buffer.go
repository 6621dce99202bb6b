package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"marketbot/pkg/config"
)

// BufferBaseURL is the Buffer API endpoint. Tests substitute an httptest URL.
const BufferBaseURL = "https://api.bufferapp.com/1"

// BufferClient is a thin wrapper over the Buffer scheduling API.
type BufferClient struct {
	httpClient  *http.Client
	accessToken string
	baseURL     string
}

// NewBufferClient creates a Buffer client against the production endpoint.
func NewBufferClient(accessToken string, client *http.Client) *BufferClient {
	return NewBufferClientWithBaseURL(accessToken, BufferBaseURL, client)
}

// NewBufferClientWithBaseURL creates a Buffer client with a custom endpoint.
func NewBufferClientWithBaseURL(accessToken, baseURL string, client *http.Client) *BufferClient {
	if client == nil {
		client = &http.Client{}
	}
	return &BufferClient{accessToken: accessToken, baseURL: baseURL, httpClient: client}
}

// BufferProfile is one connected social account.
type BufferProfile struct {
	ID      string `json:"id"`
	Service string `json:"service"`
}

// Profiles lists the connected social accounts.
func (c *BufferClient) Profiles(ctx context.Context) ([]BufferProfile, error) {
	endpoint := fmt.Sprintf("%s/profiles.json?access_token=%s", c.baseURL, url.QueryEscape(c.accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create profiles request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("buffer profiles request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort close

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("buffer API returned %d", resp.StatusCode)
	}

	var profiles []BufferProfile
	if err := json.NewDecoder(resp.Body).Decode(&profiles); err != nil {
		return nil, fmt.Errorf("failed to decode buffer profiles: %w", err)
	}
	return profiles, nil
}

type bufferUpdateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Updates []struct {
		ID string `json:"id"`
	} `json:"updates"`
}

// QueueUpdate queues a post on the given profile. The post joins the Buffer
// queue rather than publishing immediately.
func (c *BufferClient) QueueUpdate(ctx context.Context, profileID, text string) (string, error) {
	form := url.Values{}
	form.Set("access_token", c.accessToken)
	form.Add("profile_ids[]", profileID)
	form.Set("text", text)
	form.Set("now", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/updates/create.json", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("buffer update request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort close

	var parsed bufferUpdateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode buffer response: %w", err)
	}
	if !parsed.Success {
		msg := parsed.Message
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return "", fmt.Errorf("buffer rejected update: %s", msg)
	}

	if len(parsed.Updates) > 0 {
		return parsed.Updates[0].ID, nil
	}
	return "", nil
}

// SchedulePostTool queues a social media post via Buffer. The call mutates
// third-party state and is never retried internally.
type SchedulePostTool struct {
	client *BufferClient
}

// NewSchedulePostTool creates a schedule tool. A nil client produces an
// explicit not-configured error at call time.
func NewSchedulePostTool(client *BufferClient) *SchedulePostTool {
	return &SchedulePostTool{client: client}
}

func createSchedulePostTool(ctx AgentContext) (Tool, error) {
	var client *BufferClient
	if token := ctx.Config.Tools.BufferAccessToken; token != "" {
		client = NewBufferClient(token, ctx.httpClient())
	}
	return NewSchedulePostTool(client), nil
}

func (t *SchedulePostTool) Name() string { return ToolSchedulePost }

func (t *SchedulePostTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolSchedulePost,
		Description: "Schedule a social media post via Buffer. The post joins " +
			"the queue for the next optimal slot. If Buffer is not configured, " +
			"save the post locally instead.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"text": {
					Type:        "string",
					Description: "Post content, ready to publish",
				},
				"platform": {
					Type:        "string",
					Description: "Target platform",
					Enum:        []string{"twitter", "instagram", "linkedin", "facebook"},
				},
			},
			Required: []string{"text"},
		},
	}
}

// Exec resolves the profile for the platform and queues the post.
func (t *SchedulePostTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	text, ok := args["text"].(string)
	if !ok || text == "" {
		return nil, fmt.Errorf("text is required and must be a string")
	}
	platform, _ := args["platform"].(string)
	if platform == "" {
		platform = "twitter"
	}

	if t.client == nil {
		return errorResult("buffer not configured: set " + config.EnvBufferAccessToken +
			" or use save_post instead")
	}

	profiles, err := t.client.Profiles(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("buffer profiles lookup failed: %v", err))
	}

	var target *BufferProfile
	available := make([]string, 0, len(profiles))
	for i := range profiles {
		available = append(available, profiles[i].Service)
		if strings.Contains(strings.ToLower(profiles[i].Service), strings.ToLower(platform)) {
			target = &profiles[i]
			break
		}
	}
	if target == nil {
		return errorResult(fmt.Sprintf("no %s profile found in Buffer; available: %v", platform, available))
	}

	updateID, err := t.client.QueueUpdate(ctx, target.ID, text)
	if err != nil {
		return errorResult(err.Error())
	}

	return jsonResult(map[string]any{
		"success":   true,
		"platform":  platform,
		"update_id": updateID,
		"status":    "queued",
	})
}

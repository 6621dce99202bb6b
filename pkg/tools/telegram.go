package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"marketbot/pkg/config"
)

// TelegramBaseURL is the Telegram Bot API endpoint. Tests substitute an
// httptest URL.
const TelegramBaseURL = "https://api.telegram.org"

// TelegramClient sends messages through a Telegram bot.
type TelegramClient struct {
	httpClient *http.Client
	botToken   string
	chatID     string
	baseURL    string
}

// NewTelegramClient creates a client against the production endpoint.
func NewTelegramClient(botToken, chatID string, client *http.Client) *TelegramClient {
	return NewTelegramClientWithBaseURL(botToken, chatID, TelegramBaseURL, client)
}

// NewTelegramClientWithBaseURL creates a client with a custom endpoint.
func NewTelegramClientWithBaseURL(botToken, chatID, baseURL string, client *http.Client) *TelegramClient {
	if client == nil {
		client = &http.Client{}
	}
	return &TelegramClient{botToken: botToken, chatID: chatID, baseURL: baseURL, httpClient: client}
}

// SendMessage delivers a Markdown-formatted message to the configured chat.
func (c *TelegramClient) SendMessage(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]any{
		"chat_id":    c.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return fmt.Errorf("failed to encode telegram message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort close

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram API returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// NotifyOwnerTool sends a short status notification to the operator's
// Telegram chat. Used by the analytics crew to surface daily summaries.
type NotifyOwnerTool struct {
	client *TelegramClient
}

// NewNotifyOwnerTool creates a notification tool. A nil client produces an
// explicit not-configured error at call time.
func NewNotifyOwnerTool(client *TelegramClient) *NotifyOwnerTool {
	return &NotifyOwnerTool{client: client}
}

func createNotifyOwnerTool(ctx AgentContext) (Tool, error) {
	var client *TelegramClient
	if ctx.Config.Tools.TelegramBotToken != "" && ctx.Config.Tools.TelegramChatID != "" {
		client = NewTelegramClient(ctx.Config.Tools.TelegramBotToken,
			ctx.Config.Tools.TelegramChatID, ctx.httpClient())
	}
	return NewNotifyOwnerTool(client), nil
}

func (t *NotifyOwnerTool) Name() string { return ToolNotifyOwner }

func (t *NotifyOwnerTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolNotifyOwner,
		Description: "Send a notification to the owner via Telegram. Use for " +
			"daily summaries and important alerts. Keep messages short.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"message": {
					Type:        "string",
					Description: "Notification text (Markdown supported)",
				},
			},
			Required: []string{"message"},
		},
	}
}

// Exec sends the notification.
func (t *NotifyOwnerTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	message, ok := args["message"].(string)
	if !ok || message == "" {
		return nil, fmt.Errorf("message is required and must be a string")
	}

	if t.client == nil {
		return errorResult("telegram not configured: set " + config.EnvTelegramBotToken +
			" and " + config.EnvTelegramChatID)
	}

	if err := t.client.SendMessage(ctx, message); err != nil {
		return errorResult(err.Error())
	}

	return jsonResult(map[string]any{
		"success": true,
		"status":  "notification sent",
	})
}

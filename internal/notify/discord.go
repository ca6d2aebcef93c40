package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/quantrail/quantrail/pkg/errors"
)

// Embed colors per severity, matching the usual Discord alert palette.
var severityColors = map[Severity]int{
	SeverityInfo:     0x3498db,
	SeverityWarning:  0xf1c40f,
	SeverityError:    0xe74c3c,
	SeverityCritical: 0x992d22,
}

const defaultWebhookTimeout = 10 * time.Second

// DiscordNotifier delivers events to a Discord webhook as embeds.
type DiscordNotifier struct {
	webhookURL string
	title      string
	client     *http.Client
}

// NewDiscordNotifier creates a notifier for the given webhook URL.
func NewDiscordNotifier(webhookURL string, title string) (*DiscordNotifier, error) {
	if webhookURL == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "discord webhook URL is empty")
	}

	if title == "" {
		title = "Trading Runtime Alert"
	}

	return &DiscordNotifier{
		webhookURL: webhookURL,
		title:      title,
		client:     &http.Client{Timeout: defaultWebhookTimeout},
	}, nil
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// Notify implements Notifier.
func (n *DiscordNotifier) Notify(ctx context.Context, event Event) error {
	fields := []discordField{
		{Name: "Severity", Value: string(event.Severity), Inline: true},
	}

	for key, value := range event.Context {
		fields = append(fields, discordField{Name: key, Value: value, Inline: true})
	}

	payload := discordPayload{
		Embeds: []discordEmbed{
			{
				Title:       n.title,
				Description: event.Message,
				Color:       severityColors[event.Severity],
				Fields:      fields,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataParseFailed, "failed to encode discord payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectionFailed, "failed to build webhook request", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectionFailed, "failed to deliver webhook", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return errors.New(errors.ErrCodeConnectionFailed, fmt.Sprintf("webhook returned status %d", resp.StatusCode))
	}

	return nil
}

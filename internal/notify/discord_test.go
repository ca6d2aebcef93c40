package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiscordNotifierRequiresURL(t *testing.T) {
	_, err := NewDiscordNotifier("", "")
	assert.Error(t, err)
}

func TestDiscordNotifierDeliversEmbed(t *testing.T) {
	var received discordPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n, err := NewDiscordNotifier(server.URL, "test alerts")
	require.NoError(t, err)

	err = n.Notify(context.Background(), Event{
		Severity: SeverityCritical,
		Message:  "order blocked by safety gate",
		Context:  map[string]string{"symbol": "AAPL"},
		Time:     time.Now(),
	})
	require.NoError(t, err)

	require.Len(t, received.Embeds, 1)
	embed := received.Embeds[0]
	assert.Equal(t, "test alerts", embed.Title)
	assert.Equal(t, "order blocked by safety gate", embed.Description)
	assert.Equal(t, 0x992d22, embed.Color)

	fieldNames := make(map[string]string)
	for _, f := range embed.Fields {
		fieldNames[f.Name] = f.Value
	}

	assert.Equal(t, "critical", fieldNames["Severity"])
	assert.Equal(t, "AAPL", fieldNames["symbol"])
}

func TestDiscordNotifierSeverityColors(t *testing.T) {
	tests := []struct {
		severity Severity
		color    int
	}{
		{SeverityInfo, 0x3498db},
		{SeverityWarning, 0xf1c40f},
		{SeverityError, 0xe74c3c},
		{SeverityCritical, 0x992d22},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			assert.Equal(t, tt.color, severityColors[tt.severity])
		})
	}
}

func TestDiscordNotifierErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	n, err := NewDiscordNotifier(server.URL, "")
	require.NoError(t, err)

	err = n.Notify(context.Background(), Event{Severity: SeverityInfo, Message: "hello"})
	assert.Error(t, err)
}

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gradewatch/services/watchdog"

	"github.com/stretchr/testify/require"
)

type fakeOrion struct{}

func (fakeOrion) GetOrionLogin(ctx context.Context, studentNumber string) (string, error) {
	return "novakj03", nil
}

func TestDiscordNotify(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := json.NewDecoder(r.Body).Decode(&received)
		require.NoError(t, err)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier := NewDiscord(DiscordOptions{
		WebhookUrl: server.URL,
		Orion:      fakeOrion{},
	})

	event := watchdog.ChangeEvent{
		StudentID:   "A21B0000P",
		Field:       "result",
		Previous:    "Nezadáno",
		HasPrevious: true,
		New:         "80/100",
		DetectedAt:  time.Now(),
	}
	target := watchdog.WatchTarget{
		StudentID:     "A21B0000P",
		DiscordUserID: "123456789",
	}

	err := notifier.Notify(context.Background(), event, target)
	require.NoError(t, err)

	require.Equal(t, "<@123456789>", received.Content)
	require.Equal(t, "KIV-PC Bot", received.Username)
	require.Len(t, received.Embeds, 1)

	embed := received.Embeds[0]
	require.Equal(t, "ZMĚNA HODNOCENÍ", embed.Title)

	values := map[string]string{}
	for _, f := range embed.Fields {
		values[f.Name] = f.Value
	}
	require.Equal(t, "A21B0000P", values["O. ČÍSLO"])
	require.Equal(t, "novakj03", values["ORION"])
	require.Equal(t, "result", values["POLE"])
	require.Equal(t, "Nezadáno", values["PŮVODNÍ HODNOTA"])
	require.Equal(t, "80/100", values["NOVÁ HODNOTA"])
}

func TestDiscordNotifyFirstObservation(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier := NewDiscord(DiscordOptions{WebhookUrl: server.URL})

	err := notifier.Notify(context.Background(), watchdog.ChangeEvent{
		StudentID: "A21B0000P",
		Field:     "result",
		New:       "Nezadáno",
	}, watchdog.WatchTarget{StudentID: "A21B0000P"})
	require.NoError(t, err)

	// no recipient id, no ping
	require.Equal(t, "", received.Content)

	values := map[string]string{}
	for _, f := range received.Embeds[0].Fields {
		values[f.Name] = f.Value
	}
	require.Equal(t, "první záznam", values["PŮVODNÍ HODNOTA"])
	// the orion lookup is optional
	require.Equal(t, "NEZNÁMÉ", values["ORION"])
}

func TestDiscordNotifyRejectedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	notifier := NewDiscord(DiscordOptions{WebhookUrl: server.URL})

	err := notifier.Notify(context.Background(), watchdog.ChangeEvent{
		StudentID: "A21B0000P",
		Field:     "result",
		New:       "80/100",
	}, watchdog.WatchTarget{StudentID: "A21B0000P"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

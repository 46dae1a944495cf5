package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/good-yellow-bee/skywatch/internal/models"
)

func TestWebhookSend(t *testing.T) {
	var gotBody []byte
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n, err := NewWebhookNotifier(WebhookConfig{
		URL:     srv.URL,
		Headers: map[string]string{"Authorization": "Bearer token"},
	})
	if err != nil {
		t.Fatalf("new webhook notifier: %v", err)
	}

	alert := testAlert(models.SeverityCritical)
	if err := n.Send(context.Background(), alert); err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotAuth != "Bearer token" {
		t.Fatalf("auth header = %q", gotAuth)
	}

	var payload webhookPayload
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Event != "alert.created" || payload.Alert.ID != alert.ID {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestWebhookSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	n, _ := NewWebhookNotifier(WebhookConfig{URL: srv.URL})
	if err := n.Send(context.Background(), testAlert(models.SeverityLow)); err == nil {
		t.Fatal("expected error on 403")
	}
}

func TestWebhookConfigValidate(t *testing.T) {
	if _, err := NewWebhookNotifier(WebhookConfig{}); err == nil {
		t.Fatal("empty URL should fail validation")
	}
	if _, err := NewWebhookNotifier(WebhookConfig{URL: "ftp://example.com"}); err == nil {
		t.Fatal("non-http URL should fail validation")
	}
}

func TestSlackConfigValidate(t *testing.T) {
	if _, err := NewSlackNotifier(SlackConfig{}); err == nil {
		t.Fatal("empty webhook URL should fail validation")
	}
	if _, err := NewSlackNotifier(SlackConfig{WebhookURL: "http://hooks.slack.com/x"}); err == nil {
		t.Fatal("non-HTTPS webhook URL should fail validation")
	}
}

func TestSlackPayloadFields(t *testing.T) {
	n := &SlackNotifier{config: SlackConfig{WebhookURL: "https://hooks.slack.com/x"}}

	alert := testAlert(models.SeverityCritical)
	alert.AircraftHex = "abc123"
	alert.Position = &models.Position{Lat: 43.1, Lon: -79.2, Altitude: 30000}
	alert.Metadata = map[string]string{"squawk": "7700"}

	msg := n.buildPayload(alert)
	if len(msg.Blocks) != 5 {
		t.Fatalf("blocks = %d, want 5", len(msg.Blocks))
	}
	if msg.Blocks[0].Type != "header" {
		t.Fatalf("first block = %s, want header", msg.Blocks[0].Type)
	}
}

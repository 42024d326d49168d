package notifications

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smasher/internal/config"
)

type capturedRequest struct {
	header http.Header
	body   string
}

func captureServer(t *testing.T, requests *[]capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*requests = append(*requests, capturedRequest{header: r.Header.Clone(), body: string(body)})
	}))
}

func TestNoopWhenUnconfigured(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	cfg.Notifications.OpsWebhookURL = ""

	service := NewService(&cfg)
	ctx := context.Background()
	if err := service.NotifyDatasetReady(ctx, "ds-1", "", 10); err != nil {
		t.Fatalf("NotifyDatasetReady: %v", err)
	}
	if err := service.NotifyDatasetFailed(ctx, "ds-1", "reason"); err != nil {
		t.Fatalf("NotifyDatasetFailed: %v", err)
	}
	if err := service.AlertOperations(ctx, "ds-1", "user@example.org", "reason"); err != nil {
		t.Fatalf("AlertOperations: %v", err)
	}
	if err := service.TestNotification(ctx); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
}

func TestNotifyDatasetReady(t *testing.T) {
	var requests []capturedRequest
	server := captureServer(t, &requests)
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := NewService(&cfg).NotifyDatasetReady(context.Background(), "ds-1", "https://download.example.org/ds-1.zip", 1234)
	if err != nil {
		t.Fatalf("NotifyDatasetReady: %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("got %d requests, want 1", len(requests))
	}

	got := requests[0]
	if got.header.Get("Title") != "Smasher - Dataset Ready" {
		t.Fatalf("title = %q", got.header.Get("Title"))
	}
	if got.header.Get("Priority") != "high" {
		t.Fatalf("priority = %q", got.header.Get("Priority"))
	}
	// Large counts render with separators for readability.
	if !strings.Contains(got.body, "1,234 samples") {
		t.Fatalf("body = %q", got.body)
	}
	if !strings.Contains(got.body, "https://download.example.org/ds-1.zip") {
		t.Fatalf("body missing result URL: %q", got.body)
	}
}

func TestNotifyDatasetReadyFallsBackToDatasetURL(t *testing.T) {
	var requests []capturedRequest
	server := captureServer(t, &requests)
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.DatasetURLBase = "https://datasets.smasher.example.com/dataset"

	if err := NewService(&cfg).NotifyDatasetReady(context.Background(), "ds-1", "", 2); err != nil {
		t.Fatalf("NotifyDatasetReady: %v", err)
	}
	if !strings.Contains(requests[0].body, "https://datasets.smasher.example.com/dataset/ds-1") {
		t.Fatalf("body = %q", requests[0].body)
	}
}

func TestNotifyDatasetFailed(t *testing.T) {
	var requests []capturedRequest
	server := captureServer(t, &requests)
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := NewService(&cfg).NotifyDatasetFailed(context.Background(), "ds-1", "Failure reason: normalization failed")
	if err != nil {
		t.Fatalf("NotifyDatasetFailed: %v", err)
	}

	got := requests[0]
	if got.header.Get("Title") != "Smasher - Dataset Failed" {
		t.Fatalf("title = %q", got.header.Get("Title"))
	}
	if !strings.Contains(got.body, "Failure reason: normalization failed") {
		t.Fatalf("body = %q", got.body)
	}
}

func TestAlertOperationsPayload(t *testing.T) {
	var requests []capturedRequest
	server := captureServer(t, &requests)
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.OpsWebhookURL = server.URL

	err := NewService(&cfg).AlertOperations(context.Background(), "ds-1", "user@example.org", "merge collapsed")
	if err != nil {
		t.Fatalf("AlertOperations: %v", err)
	}

	got := requests[0]
	if got.header.Get("Content-Type") != "application/json" {
		t.Fatalf("content type = %q", got.header.Get("Content-Type"))
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(got.body), &payload); err != nil {
		t.Fatalf("body is not JSON: %v\n%s", err, got.body)
	}
	if payload["title"] != "Dataset failed processing" {
		t.Fatalf("title = %v", payload["title"])
	}
	attachments, ok := payload["attachments"].([]any)
	if !ok || len(attachments) != 1 {
		t.Fatalf("attachments = %v", payload["attachments"])
	}
	attachment := attachments[0].(map[string]any)
	if attachment["text"] != "merge collapsed" || attachment["author_name"] != "user@example.org" {
		t.Fatalf("attachment = %v", attachment)
	}
}

func TestSendReportsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected 429 error, got %v", err)
	}
}

package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"smasher/internal/config"
)

const userAgent = "smasher/0.1.0"

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyDatasetReady(ctx context.Context, datasetID, resultURL string, sampleCount int) error
	NotifyDatasetFailed(ctx context.Context, datasetID, reason string) error
	AlertOperations(ctx context.Context, datasetID, requester, reason string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service from configuration. When
// neither an ntfy topic nor an operations webhook is configured, a noop
// implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	webhook := strings.TrimSpace(cfg.Notifications.OpsWebhookURL)
	if topic == "" && webhook == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &httpService{
		topic:          topic,
		opsWebhook:     webhook,
		datasetURLBase: cfg.Notifications.DatasetURLBase,
		client:         &http.Client{Timeout: timeout},
		printer:        message.NewPrinter(language.English),
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type httpService struct {
	topic          string
	opsWebhook     string
	datasetURLBase string
	client         *http.Client
	printer        *message.Printer
}

func (s *httpService) datasetURL(datasetID string) string {
	return s.datasetURLBase + "/" + strings.TrimSpace(datasetID)
}

func (s *httpService) NotifyDatasetReady(ctx context.Context, datasetID, resultURL string, sampleCount int) error {
	resultURL = strings.TrimSpace(resultURL)
	if resultURL == "" {
		resultURL = s.datasetURL(datasetID)
	}
	text := s.printer.Sprintf("Your dataset of %d samples is ready to download:\n%s", sampleCount, resultURL)
	data := payload{
		title:    "Smasher - Dataset Ready",
		message:  text,
		tags:     []string{"smasher", "dataset", "completed"},
		priority: "high",
	}
	return s.send(ctx, data)
}

func (s *httpService) NotifyDatasetFailed(ctx context.Context, datasetID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown failure"
	}
	text := fmt.Sprintf("We were unable to process your dataset.\nError: %s\nDataset: %s", reason, s.datasetURL(datasetID))
	data := payload{
		title:    "Smasher - Dataset Failed",
		message:  text,
		tags:     []string{"smasher", "dataset", "failed"},
		priority: "high",
	}
	return s.send(ctx, data)
}

// AlertOperations posts a failure summary to the operations webhook.
func (s *httpService) AlertOperations(ctx context.Context, datasetID, requester, reason string) error {
	if s.opsWebhook == "" {
		return nil
	}

	body := map[string]any{
		"fallback":   "Dataset failed processing.",
		"title":      "Dataset failed processing",
		"title_link": s.datasetURL(datasetID),
		"attachments": []map[string]any{
			{
				"color":       "warning",
				"text":        reason,
				"author_name": requester,
				"fields": []map[string]string{
					{"title": "Dataset id", "value": datasetID},
				},
			},
		},
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode ops alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opsWebhook, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build ops alert request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ops alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ops webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (s *httpService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Smasher - Test",
		message:  "Notification system test",
		tags:     []string{"smasher", "test"},
		priority: "low",
	}
	return s.send(ctx, data)
}

func (s *httpService) send(ctx context.Context, data payload) error {
	if s == nil || s.client == nil || s.topic == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.topic, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyDatasetReady(context.Context, string, string, int) error { return nil }
func (noopService) NotifyDatasetFailed(context.Context, string, string) error     { return nil }
func (noopService) AlertOperations(context.Context, string, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }

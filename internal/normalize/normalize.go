// Package normalize integrates the smashing pipeline with the external
// quantile normalization service. The statistical transform itself is
// opaque; this package only moves matrices across the wire and
// classifies failures.
package normalize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"smasher/internal/config"
	"smasher/internal/frame"
	"smasher/internal/services"
)

const userAgent = "smasher/0.1.0"

// ErrNoTarget indicates the service has no normalization target for the
// requested organism.
var ErrNoTarget = errors.New("no normalization target for organism")

// Service reshapes a combined matrix against an organism's reference
// distribution, or reports a typed failure.
type Service interface {
	Normalize(ctx context.Context, matrix *frame.QuantifiedFrame, organism string) (*frame.QuantifiedFrame, error)
}

// NewService builds a normalization client from configuration. An empty
// base URL yields an unconfigured service that fails every call, so
// datasets requesting quantile normalization fail with a clear reason
// instead of silently skipping the transform.
func NewService(cfg *config.Config) Service {
	base := strings.TrimSpace(cfg.Normalization.BaseURL)
	if base == "" {
		return unconfiguredService{}
	}
	return &httpService{
		baseURL: base,
		client:  &http.Client{Timeout: time.Duration(cfg.Normalization.RequestTimeout) * time.Second},
	}
}

type httpService struct {
	baseURL string
	client  *http.Client
}

// Normalize posts the matrix as TSV and parses the normalized TSV reply.
func (s *httpService) Normalize(ctx context.Context, matrix *frame.QuantifiedFrame, organism string) (*frame.QuantifiedFrame, error) {
	organism = strings.TrimSpace(organism)
	if organism == "" {
		return nil, services.Wrap(services.ErrValidation, "normalize", "request", "organism is required", nil)
	}

	var body bytes.Buffer
	if err := matrix.WriteTSV(&body, "Gene"); err != nil {
		return nil, services.Wrap(services.ErrTransient, "normalize", "encode matrix", "", err)
	}

	endpoint := fmt.Sprintf("%s/qn/%s", s.baseURL, url.PathEscape(organism))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "normalize", "build request", "", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/tab-separated-values; charset=utf-8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "normalize", "call service", "", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrExternalService, "normalize", "call service",
			fmt.Sprintf("%v: %s", ErrNoTarget, organism), nil)
	case resp.StatusCode >= 300:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, services.Wrap(services.ErrExternalService, "normalize", "call service",
			fmt.Sprintf("service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	normalized, err := frame.ReadTSV(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "normalize", "decode reply", "", err)
	}
	return normalized, nil
}

type unconfiguredService struct{}

func (unconfiguredService) Normalize(context.Context, *frame.QuantifiedFrame, string) (*frame.QuantifiedFrame, error) {
	return nil, services.Wrap(services.ErrConfiguration, "normalize", "call service",
		"normalization.base_url is not configured", nil)
}

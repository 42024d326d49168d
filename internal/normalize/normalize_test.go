package normalize

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smasher/internal/config"
	"smasher/internal/frame"
	"smasher/internal/services"
)

func testMatrix(t *testing.T) *frame.QuantifiedFrame {
	t.Helper()
	built, err := frame.New(
		[]string{"ENSG1", "ENSG2"},
		[]string{"GSM1", "GSM2"},
		[][]float64{{1, 2}, {3, 4}},
	)
	if err != nil {
		t.Fatalf("frame.New: %v", err)
	}
	return built
}

func serviceFor(url string) Service {
	cfg := config.Default()
	cfg.Normalization.BaseURL = url
	cfg.Normalization.RequestTimeout = 5
	return NewService(&cfg)
}

func TestNormalizeRoundTrip(t *testing.T) {
	var gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		// Reply with a normalized matrix of the same shape.
		io.WriteString(w, "Gene\tGSM1\tGSM2\nENSG1\t0.5\t0.5\nENSG2\t0.7\t0.7\n")
	}))
	defer server.Close()

	normalized, err := serviceFor(server.URL).Normalize(context.Background(), testMatrix(t), "HOMO_SAPIENS")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if gotPath != "/qn/HOMO_SAPIENS" {
		t.Fatalf("path = %q", gotPath)
	}
	if !strings.HasPrefix(gotBody, "Gene\tGSM1\tGSM2\n") {
		t.Fatalf("request body missing header:\n%s", gotBody)
	}
	if normalized.Rows() != 2 || normalized.Cols() != 2 {
		t.Fatalf("shape = %dx%d", normalized.Rows(), normalized.Cols())
	}
	if normalized.Value(0, 0) != 0.5 {
		t.Fatalf("value = %g, want 0.5", normalized.Value(0, 0))
	}
}

func TestNormalizeMissingTarget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := serviceFor(server.URL).Normalize(context.Background(), testMatrix(t), "RARE_SPECIES")
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if !strings.Contains(err.Error(), "RARE_SPECIES") {
		t.Fatalf("error should name the organism: %v", err)
	}
}

func TestNormalizeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "reference distribution corrupt", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := serviceFor(server.URL).Normalize(context.Background(), testMatrix(t), "HOMO_SAPIENS")
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if !strings.Contains(err.Error(), "500") {
		t.Fatalf("error should carry the status: %v", err)
	}
}

func TestNormalizeMalformedReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "Gene\tGSM1\nENSG1\tnotanumber\n")
	}))
	defer server.Close()

	_, err := serviceFor(server.URL).Normalize(context.Background(), testMatrix(t), "HOMO_SAPIENS")
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestNormalizeRequiresOrganism(t *testing.T) {
	_, err := serviceFor("http://unused.invalid").Normalize(context.Background(), testMatrix(t), "  ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUnconfiguredServiceFails(t *testing.T) {
	cfg := config.Default()
	cfg.Normalization.BaseURL = ""

	_, err := NewService(&cfg).Normalize(context.Background(), testMatrix(t), "HOMO_SAPIENS")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

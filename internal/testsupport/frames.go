package testsupport

import (
	"testing"

	"smasher/internal/frame"
)

// MustFrame builds a QuantifiedFrame and fails the test on invalid input.
func MustFrame(t testing.TB, features, columns []string, values [][]float64) *frame.QuantifiedFrame {
	t.Helper()

	built, err := frame.New(features, columns, values)
	if err != nil {
		t.Fatalf("frame.New: %v", err)
	}
	return built
}

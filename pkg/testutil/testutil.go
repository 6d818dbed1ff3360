// Package testutil provides testing utilities shared across packages.
package testutil

import (
	"os"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t testing.TB) *zap.Logger {
	return zaptest.NewLogger(t)
}

// IntegrationTest skips the calling test in -short mode.
func IntegrationTest(t testing.TB) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireEnv returns the value of key or skips the test when it is unset.
// Integration tests use it to find external services such as databases.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	IntegrationTest(t)
	v := os.Getenv(key)
	if v == "" {
		t.Skipf("%s not set", key)
	}
	return v
}
